package keywords

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

// WithLogger returns a context whose keyword log lines go to log instead of the
// Library's own logger. The remote server uses it to capture per-call output.
func WithLogger(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

func (l *Library) logger(ctx context.Context) *zap.SugaredLogger {
	if log, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok && log != nil {
		return log
	}
	return l.log
}
