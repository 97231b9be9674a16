package main

import (
	"time"

	"github.com/urfave/cli/v2"
)

// commonFlags returns the flags shared by every command that runs keywords
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
			EnvVars: []string{"VERBOSE"},
			Value:   false,
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Load environment variables from a dotenv file before reading any other setting",
		},
		&cli.StringFlag{
			Name:    "log-output",
			Usage:   "Log destinations (comma-separated paths, 'stderr' or 'stdout')",
			EnvVars: []string{"LOG_OUTPUT"},
			Value:   "stderr",
		},
		&cli.StringFlag{
			Name:    "driver",
			Aliases: []string{"d"},
			Usage:   "MQ driver to connect with (ibmmq or memory)",
			EnvVars: []string{"MQ_DRIVER"},
			Value:   driverIBMMQ,
		},
		&cli.StringFlag{
			Name:    "memory-queue-manager",
			Usage:   "Queue manager hosted by the memory driver",
			EnvVars: []string{"MEMORY_QUEUE_MANAGER"},
			Value:   "QM1",
		},
		&cli.StringFlag{
			Name:    "memory-queues",
			Usage:   "Queues hosted by the memory driver (comma-separated)",
			EnvVars: []string{"MEMORY_QUEUES"},
			Value:   "DEV.QUEUE.1,DEV.QUEUE.2,DEV.QUEUE.3",
		},
		&cli.StringFlag{
			Name:    "instance",
			Aliases: []string{"I"},
			Usage:   "Instance name for metrics labels and audit events",
			EnvVars: []string{"INSTANCE_NAME"},
			Value:   "",
		},
		&cli.StringFlag{
			Name:  "audit-kafka-brokers",
			Usage: "Kafka brokers for keyword audit events, overrides AUDIT_KAFKA_BOOTSTRAP_SERVERS (empty disables auditing)",
		},
		&cli.StringFlag{
			Name:  "audit-kafka-topic",
			Usage: "Kafka topic for keyword audit events, overrides AUDIT_KAFKA_TOPIC",
		},
	}
}

// serveFlags returns the flags of the serve command
func serveFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.StringFlag{
			Name:    "listen",
			Aliases: []string{"l"},
			Usage:   "Address of the remote library server",
			EnvVars: []string{"LISTEN_ADDR"},
			Value:   "127.0.0.1:8270",
		},
		&cli.BoolFlag{
			Name:    "allow-stop",
			Usage:   "Allow clients to stop the server with Stop Remote Server",
			EnvVars: []string{"ALLOW_STOP"},
			Value:   false,
		},
		&cli.DurationFlag{
			Name:    "shutdown-timeout",
			Usage:   "How long to wait for running keywords on shutdown",
			EnvVars: []string{"SHUTDOWN_TIMEOUT"},
			Value:   15 * time.Second,
		},
		&cli.StringFlag{
			Name:    "metrics-host",
			Usage:   "Host for Prometheus metrics server (empty for all interfaces)",
			EnvVars: []string{"METRICS_HOST"},
			Value:   "",
		},
		&cli.IntFlag{
			Name:    "metrics-port",
			Aliases: []string{"m"},
			Usage:   "Port for Prometheus metrics server (0 disables it)",
			EnvVars: []string{"METRICS_PORT"},
			Value:   9090,
		},
		&cli.StringFlag{
			Name:    "environment",
			Aliases: []string{"E"},
			Usage:   "Deployment environment for metrics labels (e.g., 'ci', 'staging')",
			EnvVars: []string{"ENVIRONMENT"},
			Value:   "",
		},
		&cli.StringFlag{
			Name:    "region",
			Aliases: []string{"R"},
			Usage:   "Cloud region for metrics labels (e.g., 'us-east-1')",
			EnvVars: []string{"REGION"},
			Value:   "",
		},
	)
}

func execFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "YAML script with the keyword steps to run",
			Required: true,
		},
	)
}

func docsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Load environment variables from a dotenv file first",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"o"},
			Usage:   "Output format (text, json or yaml)",
			Value:   formatText,
		},
	}
}
