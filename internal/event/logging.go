package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
)

// LoggingPublisher writes events to a structured log, for local wiring and
// tests where no broker is available.
type LoggingPublisher struct {
	logger *zap.Logger
}

func NewLoggingPublisher(logger *zap.Logger) *LoggingPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LoggingPublisher{logger: logger}
}

var _ port.EventPublisher = (*LoggingPublisher)(nil)

func (p *LoggingPublisher) PublishAll(_ context.Context, events []domain.Event) error {
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("json.Marshal[%s]: %w", e.Name(), err)
		}

		p.logger.Info("domain event",
			zap.String("name", e.Name()),
			zap.Time("occurred_at", e.OccurredAt()),
			zap.ByteString("payload", payload))
	}

	return nil
}
