package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/mqlibrary/pkg/audit"
	"github.com/ava-labs/mqlibrary/pkg/keywords"
	"github.com/ava-labs/mqlibrary/pkg/metrics"
	"github.com/ava-labs/mqlibrary/pkg/mq"
	"github.com/ava-labs/mqlibrary/pkg/mq/ibmmq"
	"github.com/ava-labs/mqlibrary/pkg/mq/memory"
)

var errShuttingDown = errors.New("shutting down")

// runtime wires the keyword library to its driver, metrics and audit trail.
type runtime struct {
	log      *zap.SugaredLogger
	lib      *keywords.Library
	reg      *keywords.Registry
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	auditObserver  *audit.Observer
	auditPublisher *audit.KafkaPublisher

	closing atomic.Bool
}

func newDriver(cfg *Config, log *zap.SugaredLogger) (mq.Driver, error) {
	switch cfg.Driver {
	case driverIBMMQ:
		return ibmmq.New(cfg.IBMMQ, log), nil
	case driverMemory:
		broker := memory.NewBroker()
		broker.AddQueueManager(cfg.MemoryQueueManager, memory.WithQueues(cfg.MemoryQueues...))
		log.Infow("using in-memory queue manager",
			"queueManager", cfg.MemoryQueueManager,
			"queues", cfg.MemoryQueues,
		)
		return broker, nil
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}

// newRuntime builds the keyword registry for cfg. ctx bounds the audit
// publisher's background work.
func newRuntime(ctx context.Context, cfg *Config, log *zap.SugaredLogger) (*runtime, error) {
	driver, err := newDriver(cfg, log)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.NewWithLabels(registry, metrics.Labels{
		Instance:    cfg.Instance,
		Environment: cfg.Environment,
		Region:      cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	rt := &runtime{
		log:      log,
		lib:      keywords.New(driver, cfg.Keywords, log, keywords.WithRecorder(m)),
		registry: registry,
		metrics:  m,
	}

	observers := []keywords.Observer{m}
	if cfg.Audit.Enabled() {
		pub, err := audit.NewKafkaPublisher(ctx, cfg.Audit, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit publisher: %w", err)
		}
		rt.auditPublisher = pub
		rt.auditObserver = audit.NewObserver(pub, log, audit.WithInstance(cfg.Instance))
		observers = append(observers, rt.auditObserver)
		log.Infow("auditing keyword calls", "brokers", cfg.Audit.BootstrapServers, "topic", cfg.Audit.Topic)
	}
	rt.reg = keywords.NewRegistry(rt.lib, observers...)
	return rt, nil
}

// auditErrors returns fatal audit publisher errors. It is nil when auditing is
// off.
func (r *runtime) auditErrors() <-chan error {
	if r.auditPublisher == nil {
		return nil
	}
	return r.auditPublisher.Errors()
}

// health fails once shutdown started.
func (r *runtime) health(context.Context) error {
	if r.closing.Load() {
		return errShuttingDown
	}
	return nil
}

// close disconnects every alias and flushes the audit trail.
func (r *runtime) close(ctx context.Context) {
	r.closing.Store(true)
	r.lib.DisconnectAll(ctx)
	if r.auditObserver != nil {
		r.auditObserver.Close(ctx)
	}
}
