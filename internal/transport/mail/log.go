package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrisearch/internal/domain/verification"
)

// LogMailer writes emails to the logger instead of sending them. Local use only:
// the code ends up in the log.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send implements the verification mailer.
func (m *LogMailer) Send(_ context.Context, msg verification.Message) error {
	m.logger.Info("email not sent (log driver)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
