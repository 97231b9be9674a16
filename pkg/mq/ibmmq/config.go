package ibmmq

import (
	"errors"
	"math"
	"time"
)

const (
	// DefaultMaxMessageLength matches the default MAXMSGL of a queue manager (4 MiB).
	DefaultMaxMessageLength = 4 * 1024 * 1024
	initialBufferSize       = 64 * 1024
)

// ErrUnavailable is returned when the binary was built without the ibmmq tag.
var ErrUnavailable = errors.New("IBM MQ driver not available: rebuild with -tags ibmmq and the MQ client installed")

// Config holds driver settings.
type Config struct {
	// MaxMessageLength bounds the receive buffer. Messages larger than this fail
	// with MQRC_TRUNCATED_MSG_FAILED.
	MaxMessageLength int `env:"MQ_MAX_MESSAGE_LENGTH" envDefault:"4194304"`
}

// WithDefaults returns a copy of the config with zero fields filled in.
func (c Config) WithDefaults() Config {
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = DefaultMaxMessageLength
	}
	return c
}

// nextBufferSize returns the buffer size to retry a truncated get with.
func nextBufferSize(current, required, limit int) int {
	size := current * 2
	if required > size {
		size = required
	}
	if size > limit {
		size = limit
	}
	return size
}

// waitInterval converts a positive wait to MQGMO WaitInterval milliseconds.
// Sub-millisecond waits round up to 1 and waits beyond the int32 range clamp to
// math.MaxInt32, since negative values mean an unlimited wait or a
// MQRC_WAIT_INTERVAL_ERROR.
func waitInterval(d time.Duration) int32 {
	ms := d / time.Millisecond
	switch {
	case ms >= math.MaxInt32:
		return math.MaxInt32
	case ms < 1:
		return 1
	}
	return int32(ms)
}
