package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// flags read their EnvVars while parsing, so the env file goes first
	if err := preloadEnvFile(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "mqlibrary",
		Usage:   "IBM MQ keywords for Robot Framework suites and MCP clients",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the keywords as a Robot Framework remote library",
				Flags:  serveFlags(),
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the keywords as MCP tools on stdin/stdout",
				Flags:  commonFlags(),
				Action: serveMCP,
			},
			{
				Name:   "exec",
				Usage:  "Run a YAML keyword script",
				Flags:  execFlags(),
				Action: execScript,
			},
			{
				Name:   "keywords",
				Usage:  "Print the keyword documentation",
				Flags:  docsFlags(),
				Action: printKeywords,
			},
		},
	}
}
