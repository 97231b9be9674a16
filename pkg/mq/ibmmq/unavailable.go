//go:build !ibmmq

package ibmmq

import (
	"context"

	"github.com/ava-labs/mqlibrary/pkg/mq"
	"go.uber.org/zap"
)

// Driver is a placeholder that reports ErrUnavailable.
type Driver struct{}

// New returns a driver that cannot connect.
func New(_ Config, _ *zap.SugaredLogger) *Driver {
	return &Driver{}
}

// Connect always fails with ErrUnavailable.
func (d *Driver) Connect(_ context.Context, _ mq.ConnectOptions) (mq.QueueManager, error) {
	return nil, ErrUnavailable
}
