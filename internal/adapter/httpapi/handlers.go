package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/engine"
	"github.com/climascope/climate-grid-engine/internal/ingest"
)

type queryRequest struct {
	Source     string                 `json:"source"`
	Locations  []domain.LocationQuery `json:"locations"`
	Indicators []string               `json:"indicators"`
	Scenario   string                 `json:"scenario"`
	TimePeriod string                 `json:"time_period"`
}

type queryMetadata struct {
	Source      string    `json:"source"`
	Scenario    string    `json:"scenario"`
	TimePeriod  string    `json:"time_period"`
	LastUpdated time.Time `json:"last_updated"`
}

type queryResponse struct {
	Locations  []domain.LocationQuery `json:"locations"`
	Indicators []string               `json:"indicators"`
	RiskData   []domain.RiskDataPoint `json:"risk_data"`
	Metadata   queryMetadata          `json:"metadata"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(req.Locations) == 0 {
		writeError(w, http.StatusBadRequest, "at least one location is required")
		return
	}
	if err := validateScope(&req.Source, &req.Scenario, &req.TimePeriod); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i := range req.Locations {
		if req.Locations[i].ID == "" {
			req.Locations[i].ID = uuid.NewString()
		}
	}
	indicators := req.Indicators
	if len(indicators) == 0 {
		for _, def := range domain.Catalog(req.Source) {
			indicators = append(indicators, def.ID)
		}
	}

	res, err := s.resolver.Resolve(r.Context(), req.Source, req.Locations, indicators, req.Scenario, req.TimePeriod)
	if err != nil {
		s.logger.Error("query resolution failed", "error", err)
		writeError(w, http.StatusInternalServerError, "resolution failed")
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Locations:  req.Locations,
		Indicators: indicators,
		RiskData:   res.Points,
		Metadata: queryMetadata{
			Source:      req.Source,
			Scenario:    req.Scenario,
			TimePeriod:  req.TimePeriod,
			LastUpdated: res.LastUpdated,
		},
	})
}

type overlayRequest struct {
	Source      string        `json:"source"`
	IndicatorID string        `json:"indicator_id"`
	Scenario    string        `json:"scenario"`
	TimePeriod  string        `json:"time_period"`
	Bounds      engine.Bounds `json:"bounds"`
	Resolution  int           `json:"resolution"`
}

type overlayResponse struct {
	Cells []engine.OverlayCell `json:"cells"`
	Count int                  `json:"count"`
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	var req overlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validateScope(&req.Source, &req.Scenario, &req.TimePeriod); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cells, err := s.resolver.Overlay(r.Context(), req.Source, req.IndicatorID, req.Scenario, req.TimePeriod, req.Bounds, req.Resolution)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, overlayResponse{Cells: cells, Count: len(cells)})
}

type indicatorsResponse struct {
	Indicators  []domain.IndicatorDefinition  `json:"indicators"`
	Scenarios   []domain.ScenarioDefinition   `json:"scenarios"`
	TimePeriods []domain.TimePeriodDefinition `json:"time_periods"`
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")

	var defs []domain.IndicatorDefinition
	if source == "" {
		defs = append(defs, domain.Catalog(domain.SourceCMIP6)...)
		defs = append(defs, domain.Catalog(domain.SourceImpact)...)
	} else {
		defs = domain.Catalog(source)
		if len(defs) == 0 {
			writeError(w, http.StatusBadRequest, "unknown source")
			return
		}
	}
	writeJSON(w, http.StatusOK, indicatorsResponse{
		Indicators:  defs,
		Scenarios:   domain.Scenarios,
		TimePeriods: domain.TimePeriods,
	})
}

type importRequest struct {
	Source    string                 `json:"source"`
	Locations []domain.LocationQuery `json:"locations"`
	Scenarios []string               `json:"scenarios"`
	Periods   []string               `json:"periods"`

	// GridLimit expands to the first N default lattice points when no
	// explicit locations are given.
	GridLimit int `json:"grid_limit"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		writeError(w, http.StatusServiceUnavailable, "importing is disabled")
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(req.Locations) == 0 {
		if req.GridLimit <= 0 {
			writeError(w, http.StatusBadRequest, "locations or grid_limit is required")
			return
		}
		req.Locations = ingest.DefaultLocations(req.GridLimit)
	}

	opts := ingest.Options{Source: req.Source, Locations: req.Locations}
	for _, id := range req.Scenarios {
		opts.Scenarios = append(opts.Scenarios, domain.ScenarioByID(id))
	}
	for _, id := range req.Periods {
		opts.Periods = append(opts.Periods, domain.TimePeriodByID(id))
	}

	summary, err := s.importer.Run(r.Context(), opts, nil)
	if err != nil {
		s.logger.Warn("import interrupted", "error", err, "imported", summary.Imported)
		writeJSON(w, http.StatusAccepted, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// validateScope fills empty fields with defaults and rejects unknown
// identifiers before they reach the domain's silent fallbacks.
func validateScope(source, scenarioID, periodID *string) error {
	if *source == "" {
		*source = domain.SourceCMIP6
	}
	if len(domain.Catalog(*source)) == 0 {
		return errors.New("unknown source")
	}
	if *scenarioID == "" {
		*scenarioID = domain.ScenarioByID("").ID
	} else if !knownScenario(*scenarioID) {
		return errors.New("unknown scenario")
	}
	if *periodID == "" {
		*periodID = domain.TimePeriodByID("").ID
	} else if !knownPeriod(*periodID) {
		return errors.New("unknown time period")
	}
	return nil
}

func knownScenario(id string) bool {
	for _, s := range domain.Scenarios {
		if s.ID == id {
			return true
		}
	}
	return false
}

func knownPeriod(id string) bool {
	for _, p := range domain.TimePeriods {
		if p.ID == id {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
