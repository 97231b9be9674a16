package ibmmq

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	require.Equal(t, DefaultMaxMessageLength, Config{}.WithDefaults().MaxMessageLength)
	require.Equal(t, 10, Config{MaxMessageLength: 10}.WithDefaults().MaxMessageLength)
}

func TestNextBufferSize(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		required int
		limit    int
		expected int
	}{
		{name: "doubles", current: 64, required: 70, limit: 1024, expected: 128},
		{name: "jumps to required", current: 64, required: 500, limit: 1024, expected: 500},
		{name: "capped at limit", current: 512, required: 4096, limit: 1024, expected: 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, nextBufferSize(tt.current, tt.required, tt.limit))
		})
	}
}

func TestWaitInterval(t *testing.T) {
	tests := []struct {
		name     string
		wait     time.Duration
		expected int32
	}{
		{name: "seconds", wait: 5 * time.Second, expected: 5000},
		{name: "sub millisecond", wait: 300 * time.Microsecond, expected: 1},
		{name: "max int32", wait: math.MaxInt32 * time.Millisecond, expected: math.MaxInt32},
		{name: "25 days", wait: 25 * 24 * time.Hour, expected: math.MaxInt32},
		{name: "max duration", wait: math.MaxInt64, expected: math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, waitInterval(tt.wait))
		})
	}
}
