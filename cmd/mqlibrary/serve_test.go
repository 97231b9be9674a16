package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func rpc(addr, method string) (string, error) {
	body := "<?xml version='1.0'?><methodCall><methodName>" + method + "</methodName><params></params></methodCall>"
	resp, err := http.Post("http://"+addr+"/RPC2", "text/xml", strings.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return string(data), err
}

func TestRunServer_StoppedByClient(t *testing.T) {
	cfg := memoryConfig()
	cfg.ListenAddr = freeAddr(t)
	cfg.AllowStop = true
	cfg.ShutdownTimeout = 5 * time.Second

	metricsAddr := freeAddr(t)
	host, port, err := net.SplitHostPort(metricsAddr)
	require.NoError(t, err)
	cfg.MetricsHost = host
	cfg.MetricsPort, err = net.LookupPort("tcp", port)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- runServer(t.Context(), cfg, zaptest.NewLogger(t).Sugar()) }()

	require.Eventually(t, func() bool {
		out, err := rpc(cfg.ListenAddr, "get_keyword_names")
		return err == nil && strings.Contains(out, "Connect MQ")
	}, 5*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + metricsAddr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	out, err := rpc(cfg.ListenAddr, "stop_remote_server")
	require.NoError(t, err)
	require.Contains(t, out, "<boolean>1</boolean>")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}

	_, err = rpc(cfg.ListenAddr, "get_keyword_names")
	require.Error(t, err)
}

func TestRunServer_ContextCancelled(t *testing.T) {
	cfg := memoryConfig()
	cfg.ListenAddr = freeAddr(t)
	cfg.ShutdownTimeout = 5 * time.Second

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, cfg, zaptest.NewLogger(t).Sugar()) }()

	require.Eventually(t, func() bool {
		_, err := rpc(cfg.ListenAddr, "get_keyword_names")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	// stopping is not allowed, so only the signal context ends the server
	out, err := rpc(cfg.ListenAddr, "stop_remote_server")
	require.NoError(t, err)
	require.Contains(t, out, "<boolean>0</boolean>")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunServer_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := memoryConfig()
	cfg.ListenAddr = ln.Addr().String()
	cfg.ShutdownTimeout = time.Second

	err = runServer(t.Context(), cfg, zaptest.NewLogger(t).Sugar())
	require.ErrorContains(t, err, "remote server")
}
