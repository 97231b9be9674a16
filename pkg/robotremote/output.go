package robotremote

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// outputCore collects log entries as Robot Framework output lines
// ("*INFO* message"). Structured fields are dropped.
type outputCore struct {
	zapcore.LevelEnabler

	mu    *sync.Mutex
	lines *strings.Builder
}

func newOutputCore(level zapcore.LevelEnabler) *outputCore {
	return &outputCore{LevelEnabler: level, mu: &sync.Mutex{}, lines: &strings.Builder{}}
}

func (c *outputCore) With([]zapcore.Field) zapcore.Core { return c }

func (c *outputCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *outputCore) Write(ent zapcore.Entry, _ []zapcore.Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines.WriteString("*")
	c.lines.WriteString(robotLevel(ent.Level))
	c.lines.WriteString("* ")
	c.lines.WriteString(ent.Message)
	c.lines.WriteString("\n")
	return nil
}

func (c *outputCore) Sync() error { return nil }

// String returns the collected output without the trailing newline.
func (c *outputCore) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSuffix(c.lines.String(), "\n")
}

func robotLevel(l zapcore.Level) string {
	switch {
	case l <= zapcore.DebugLevel:
		return "DEBUG"
	case l == zapcore.InfoLevel:
		return "INFO"
	case l == zapcore.WarnLevel:
		return "WARN"
	default:
		return "ERROR"
	}
}

// captureLogger returns a logger that writes to base and to the returned core.
func captureLogger(base *zap.SugaredLogger) (*zap.SugaredLogger, *outputCore) {
	out := newOutputCore(zapcore.DebugLevel)
	tee := zapcore.NewTee(base.Desugar().Core(), out)
	return zap.New(tee).Sugar(), out
}
