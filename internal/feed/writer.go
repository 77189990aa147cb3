// Package feed publishes accepted noise reports to a Kafka topic so
// downstream consumers (analytics, notification fan-out) can react to new
// submissions without polling the database.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/quietspotter/quietspotter/internal/domain"
)

// Writer produces accepted noise reports to a Kafka topic.
// It implements store.ReportPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the report feed topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishReport serializes and publishes a single accepted report. The report
// is keyed by location so consumers see per-location ordering.
func (w *Writer) PublishReport(ctx context.Context, report domain.NoiseReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish report %s: %w", report.ID, err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a NoiseReport into a Kafka message.
func serializeToMessage(report domain.NoiseReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize noise report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.LocationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location_id", Value: []byte(report.LocationID)},
			{Key: "noise_level", Value: []byte(strconv.Itoa(report.NoiseLevel))},
			{Key: "noise_band", Value: []byte(domain.Classify(report.NoiseLevel))},
			{Key: "submitted_at", Value: []byte(report.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
