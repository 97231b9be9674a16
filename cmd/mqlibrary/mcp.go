package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/mqlibrary/pkg/mcptools"
	"github.com/ava-labs/mqlibrary/pkg/utils"
)

// serveMCP serves the keywords over stdio. Logs go to stderr only so stdout
// carries nothing but protocol messages.
func serveMCP(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	for _, out := range cfg.LogOutput {
		if out == "stdout" {
			return fmt.Errorf("log-output must not include stdout in mcp mode")
		}
	}

	sugar, err := utils.NewSugaredLoggerTo(cfg.Verbose, cfg.LogOutput)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := newRuntime(ctx, cfg, sugar)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	srv := mcptools.New(rt.reg, sugar, c.App.Version)
	sugar.Infow("serving MCP tools on stdio", "tools", len(srv.Tools()), "driver", cfg.Driver)
	return srv.Serve()
}
