package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/mqlibrary/pkg/metrics"
	"github.com/ava-labs/mqlibrary/pkg/robotremote"
	"github.com/ava-labs/mqlibrary/pkg/utils"
)

var errStopRequested = errors.New("stop requested by client")

func serve(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}

	sugar, err := utils.NewSugaredLoggerTo(cfg.Verbose, cfg.LogOutput)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"driver", cfg.Driver,
		"listen", cfg.ListenAddr,
		"allowStop", cfg.AllowStop,
		"defaultAlias", cfg.Keywords.DefaultAlias,
		"defaultCCSID", cfg.Keywords.DefaultCCSID,
		"metricsHost", cfg.MetricsHost,
		"metricsPort", cfg.MetricsPort,
		"auditBrokers", cfg.Audit.BootstrapServers,
		"auditTopic", cfg.Audit.Topic,
		"auditSASLUser", cfg.Audit.SASL.Username,
		"auditSASLPassword", utils.Redact(cfg.Audit.SASL.Password),
		"instance", cfg.Instance,
		"environment", cfg.Environment,
		"region", cfg.Region,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServer(ctx, cfg, sugar)
}

// runServer serves until ctx is done, a server fails or a client stops it.
func runServer(ctx context.Context, cfg *Config, sugar *zap.SugaredLogger) error {
	rt, err := newRuntime(ctx, cfg, sugar)
	if err != nil {
		return err
	}

	remote := robotremote.NewServer(cfg.ListenAddr, rt.reg, sugar, robotremote.WithAllowStop(cfg.AllowStop))
	remoteErrCh := remote.Start()
	sugar.Infof("remote library listening on http://%s", cfg.ListenAddr)

	var (
		metricsServer *metrics.Server
		metricsErrCh  <-chan error
	)
	if cfg.MetricsPort > 0 {
		metricsServer = metrics.NewServer(cfg.MetricsAddr(), rt.registry, rt.health)
		metricsErrCh = metricsServer.Start()
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err := <-remoteErrCh:
			return err
		case <-remote.Stopped():
			return errStopRequested
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		select {
		case err := <-metricsErrCh:
			return err
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		select {
		case err, ok := <-rt.auditErrors():
			if ok {
				sugar.Errorw("audit publisher failed, keyword calls are no longer audited", "error", err)
			}
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	err = g.Wait()
	switch {
	case errors.Is(err, errStopRequested):
		sugar.Info("remote server stopped by client")
		err = nil
	case err != nil:
		sugar.Errorw("serve failed", "error", err)
	default:
		sugar.Info("exiting due to context cancellation")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	rt.closing.Store(true)
	sugar.Info("shutting down remote server")
	if shutdownErr := remote.Shutdown(shutdownCtx); shutdownErr != nil {
		sugar.Warnw("remote server shutdown error", "error", shutdownErr)
	}
	rt.close(shutdownCtx)
	if metricsServer != nil {
		if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
			sugar.Warnw("metrics server shutdown error", "error", shutdownErr)
		}
	}

	sugar.Info("shutdown complete")
	return err
}
