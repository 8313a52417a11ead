// Package kafka publishes imported grid data points to a Kafka topic so
// downstream consumers can react to fresh climate data.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/observability"
)

// Publisher produces grid point messages to a Kafka topic.
// It implements ingest.Publisher.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// PublishBatch serializes and publishes the points in a single WriteMessages
// call.
func (p *Publisher) PublishBatch(ctx context.Context, points []domain.GridDataPoint) error {
	if len(points) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(points))
	for i := range points {
		msg, err := serializeToMessage(points[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	p.metrics.PointsPublished.Add(float64(len(points)))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a GridDataPoint into a Kafka message. The key
// groups messages by grid cell so per-cell ordering survives partitioning.
func serializeToMessage(point domain.GridDataPoint) (kafkago.Message, error) {
	data, err := json.Marshal(point)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize grid point: %w", err)
	}
	key := fmt.Sprintf("%s:%s:%s:%.4f:%.4f",
		point.Source, point.Scenario, point.TimePeriod, point.Latitude, point.Longitude)
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "indicator_id", Value: []byte(point.IndicatorID)},
			{Key: "updated_at", Value: []byte(point.UpdatedAt.Format(time.RFC3339))},
		},
	}, nil
}
