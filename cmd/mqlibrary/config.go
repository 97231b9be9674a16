package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/mqlibrary/pkg/audit"
	"github.com/ava-labs/mqlibrary/pkg/keywords"
	"github.com/ava-labs/mqlibrary/pkg/mq/ibmmq"
	"github.com/ava-labs/mqlibrary/pkg/utils"
)

const (
	driverIBMMQ  = "ibmmq"
	driverMemory = "memory"
)

// Config holds all configuration for the mqlibrary commands
type Config struct {
	// Application settings
	Verbose   bool
	LogOutput []string
	Instance  string

	// Driver settings
	Driver             string
	MemoryQueueManager string
	MemoryQueues       []string
	IBMMQ              ibmmq.Config

	// Keyword defaults
	Keywords keywords.Config

	// Audit settings
	Audit audit.KafkaConfig

	// Remote server settings
	ListenAddr      string
	AllowStop       bool
	ShutdownTimeout time.Duration

	// Metrics settings
	MetricsHost string
	MetricsPort int
	Environment string
	Region      string
}

// MetricsAddr returns the formatted metrics address
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.MetricsHost, c.MetricsPort)
}

// Validate checks the settings that flags cannot constrain
func (c *Config) Validate() error {
	var errs []error
	switch c.Driver {
	case driverIBMMQ, driverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, driverIBMMQ, driverMemory))
	}
	if c.Driver == driverMemory && c.MemoryQueueManager == "" {
		errs = append(errs, errors.New("memory-queue-manager must not be empty"))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics-port must be between 0 and 65535, got %d", c.MetricsPort))
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must not be negative, got %s", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// buildConfig builds a Config from CLI context flags and the environment
func buildConfig(c *cli.Context) (*Config, error) {
	kwCfg, err := keywords.LoadConfig()
	if err != nil {
		return nil, err
	}

	var mqCfg ibmmq.Config
	if err := env.Parse(&mqCfg); err != nil {
		return nil, fmt.Errorf("failed to parse MQ driver config: %w", err)
	}

	auditCfg, err := audit.LoadKafkaConfig()
	if err != nil {
		return nil, err
	}
	if c.IsSet("audit-kafka-brokers") {
		auditCfg.BootstrapServers = c.String("audit-kafka-brokers")
	}
	if c.IsSet("audit-kafka-topic") {
		auditCfg.Topic = c.String("audit-kafka-topic")
	}

	cfg := &Config{
		Verbose:            c.Bool("verbose"),
		LogOutput:          utils.SplitList(c.String("log-output")),
		Instance:           c.String("instance"),
		Driver:             strings.ToLower(c.String("driver")),
		MemoryQueueManager: c.String("memory-queue-manager"),
		MemoryQueues:       utils.SplitList(c.String("memory-queues")),
		IBMMQ:              mqCfg.WithDefaults(),
		Keywords:           kwCfg,
		Audit:              auditCfg,
		ListenAddr:         c.String("listen"),
		AllowStop:          c.Bool("allow-stop"),
		ShutdownTimeout:    c.Duration("shutdown-timeout"),
		MetricsHost:        c.String("metrics-host"),
		MetricsPort:        c.Int("metrics-port"),
		Environment:        c.String("environment"),
		Region:             c.String("region"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envFileArg finds the --env-file value in raw command line arguments.
func envFileArg(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			return ""
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "env-file" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// preloadEnvFile loads the --env-file, if any. Variables already set in the
// environment win.
func preloadEnvFile(args []string) error {
	path := envFileArg(args)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
