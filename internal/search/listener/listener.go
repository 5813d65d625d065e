package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/search"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventReindexRequested = "variant.reindex.requested"

type ReindexRequestedEvent struct {
	EventType   string    `json:"event_type"`
	VariantID   string    `json:"variant_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type MessagePublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// ReindexPublisher queues reindex requests on the retry topic.
type ReindexPublisher struct {
	producer MessagePublisher
}

func NewReindexPublisher(producer MessagePublisher) *ReindexPublisher {
	return &ReindexPublisher{producer: producer}
}

func (p *ReindexPublisher) RequestReindex(ctx context.Context, variantID, reason string) error {
	value, err := json.Marshal(ReindexRequestedEvent{
		EventType:   EventReindexRequested,
		VariantID:   variantID,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, variantID, value)
}

// ReindexListener replays reindex requests that batch paths could not
// complete.
type ReindexListener struct {
	consumer MessageReader
	uc       search.UseCase
	logger   logger.ZapLogger
}

func NewReindexListener(consumer MessageReader, uc search.UseCase, logger logger.ZapLogger) *ReindexListener {
	return &ReindexListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *ReindexListener) Start(ctx context.Context) {
	l.logger.Info("Starting reindex listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping reindex listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *ReindexListener) processMessage(ctx context.Context, value []byte) {
	var event ReindexRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventReindexRequested || event.VariantID == "" {
		return
	}

	if err := l.uc.ReindexVariant(ctx, event.VariantID); err != nil {
		l.logger.Error("Retried reindex failed",
			zap.String("variant_id", event.VariantID),
			zap.String("reason", event.Reason),
			zap.Error(err),
		)
	}
}
