package production

import (
	"log/slog"

	"github.com/comalice/rafcore/internal/core"
)

// LogObserver writes each Change as a structured log line using log/slog,
// since it carries structured subject/property/before/after fields rather
// than a single formatted message.
type LogObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) Notify(c core.Change) {
	attrs := []any{
		slog.String("kind", string(c.Kind)),
		slog.String("subject", c.Subject),
		slog.String("property", c.Property),
	}
	if c.Before != nil {
		attrs = append(attrs, slog.Any("before", c.Before))
	}
	if c.After != nil {
		attrs = append(attrs, slog.Any("after", c.After))
	}
	o.logger.Info("change", attrs...)
}
