package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/climascope/climate-grid-engine/internal/domain"
)

// upsertChunkSize bounds the number of rows per transaction during batch
// writes.
const upsertChunkSize = 500

// gridRow is the bun model for the grid_data_points table. It stays private
// to this package so the domain type carries no ORM coupling.
type gridRow struct {
	bun.BaseModel `bun:"table:grid_data_points"`

	Source      string    `bun:"source,notnull"`
	IndicatorID string    `bun:"indicator_id,notnull"`
	Scenario    string    `bun:"scenario,notnull"`
	TimePeriod  string    `bun:"time_period,notnull"`
	Latitude    float64   `bun:"latitude,notnull"`
	Longitude   float64   `bun:"longitude,notnull"`
	Value       float64   `bun:"value,notnull"`
	Unit        string    `bun:"unit"`
	Model       string    `bun:"model"`
	Percentile  float64   `bun:"percentile"`
	DataSource  string    `bun:"data_source"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func toRow(p domain.GridDataPoint) gridRow {
	return gridRow{
		Source:      p.Source,
		IndicatorID: p.IndicatorID,
		Scenario:    p.Scenario,
		TimePeriod:  p.TimePeriod,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Value:       p.Value,
		Unit:        p.Unit,
		Model:       p.Model,
		Percentile:  p.Percentile,
		DataSource:  p.DataSource,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromRow(r gridRow) domain.GridDataPoint {
	return domain.GridDataPoint{
		Source:      r.Source,
		IndicatorID: r.IndicatorID,
		Scenario:    r.Scenario,
		TimePeriod:  r.TimePeriod,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Value:       r.Value,
		Unit:        r.Unit,
		Model:       r.Model,
		Percentile:  r.Percentile,
		DataSource:  r.DataSource,
		UpdatedAt:   r.UpdatedAt,
	}
}

// PostgresStore implements GridStore on a bun/Postgres handle.
type PostgresStore struct {
	db *bun.DB
}

// OpenPostgres connects to Postgres via the bun pgdriver and returns a ready
// store. debug enables the bundebug query hook.
func OpenPostgres(dsn string, debug bool) (*PostgresStore, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithDialTimeout(10*time.Second),
		pgdriver.WithReadTimeout(60*time.Second),
		pgdriver.WithWriteTimeout(30*time.Second),
	)
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(20)
	sqldb.SetMaxIdleConns(5)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing bun handle (tests, shared pools).
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the table and the unique six-column key index if they
// do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*gridRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create grid_data_points: %w", err)
	}

	if _, err := s.db.NewCreateIndex().
		Model((*gridRow)(nil)).
		Index("grid_data_points_key_idx").
		Unique().
		IfNotExists().
		Column("source", "indicator_id", "scenario", "time_period", "latitude", "longitude").
		Exec(ctx); err != nil {
		return fmt.Errorf("create key index: %w", err)
	}
	return nil
}

// UpsertBatch replaces all indicators at each point's cell key. Points are
// chunked so a large import never holds one giant transaction; within a
// chunk, delete-then-insert runs transactionally per the store contract.
func (s *PostgresStore) UpsertBatch(ctx context.Context, points []domain.GridDataPoint) error {
	for start := 0; start < len(points); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(points) {
			end = len(points)
		}
		if err := s.upsertChunk(ctx, points[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) upsertChunk(ctx context.Context, points []domain.GridDataPoint) error {
	rows := make([]gridRow, len(points))
	keys := make(map[domain.CellKey]struct{}, len(points))
	for i, p := range points {
		rows[i] = toRow(p)
		keys[p.CellKey()] = struct{}{}
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for key := range keys {
			if _, err := tx.NewDelete().
				Model((*gridRow)(nil)).
				Where("source = ?", key.Source).
				Where("scenario = ?", key.Scenario).
				Where("time_period = ?", key.TimePeriod).
				Where("latitude = ?", key.Latitude).
				Where("longitude = ?", key.Longitude).
				Exec(ctx); err != nil {
				return fmt.Errorf("delete stale cell rows: %w", err)
			}
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert grid rows: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) QueryBox(ctx context.Context, source, scenario, period string, box Box) ([]domain.GridDataPoint, error) {
	var rows []gridRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("source = ?", source).
		Where("scenario = ?", scenario).
		Where("time_period = ?", period).
		Where("latitude BETWEEN ? AND ?", box.LatMin, box.LatMax).
		Where("longitude BETWEEN ? AND ?", box.LonMin, box.LonMax).
		Order("latitude", "longitude", "indicator_id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("query box: %w", err)
	}
	return rowsToPoints(rows), nil
}

func (s *PostgresStore) QueryByIndicator(ctx context.Context, indicatorID, source, scenario, period string, box Box) ([]domain.GridDataPoint, error) {
	var rows []gridRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("indicator_id = ?", indicatorID).
		Where("source = ?", source).
		Where("scenario = ?", scenario).
		Where("time_period = ?", period).
		Where("latitude BETWEEN ? AND ?", box.LatMin, box.LatMax).
		Where("longitude BETWEEN ? AND ?", box.LonMin, box.LonMax).
		Order("latitude", "longitude").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("query by indicator: %w", err)
	}
	return rowsToPoints(rows), nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.NewSelect().
		Model((*gridRow)(nil)).
		ColumnExpr("count(DISTINCT source) AS sources").
		ColumnExpr("count(DISTINCT scenario) AS scenarios").
		ColumnExpr("count(DISTINCT time_period) AS time_periods").
		ColumnExpr("count(DISTINCT (latitude, longitude)) AS locations").
		ColumnExpr("count(*) AS total_rows").
		Scan(ctx, &stats.Sources, &stats.Scenarios, &stats.TimePeriods, &stats.Locations, &stats.Rows)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func rowsToPoints(rows []gridRow) []domain.GridDataPoint {
	if len(rows) == 0 {
		return nil
	}
	out := make([]domain.GridDataPoint, len(rows))
	for i := range rows {
		out[i] = fromRow(rows[i])
	}
	return out
}
