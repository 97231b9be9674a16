//go:build e2e && ibmmq

// Package e2e runs the keywords against a real queue manager in a container.
//
// Run with: go test -tags e2e,ibmmq ./test/e2e/ (requires Docker and the MQ
// client libraries).
package e2e

import "os"

func getEnvStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
