package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cometbft/cometbft/abci/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nullspace.io/casino-chain/internal/app"
)

func main() {
	var (
		home       = flag.String("home", ".ocp", "app home directory (state will be stored under <home>/app)")
		addr       = flag.String("addr", "tcp://127.0.0.1:26658", "ABCI listen address")
		transport  = flag.String("transport", "socket", "ABCI transport (socket|grpc)")
		metricsAddr = flag.String("metrics-addr", "127.0.0.1:26660", "Prometheus /metrics listen address; empty disables it")
	)
	flag.Parse()

	a, err := app.New(*home)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := a.Metrics().Register(reg); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "register metrics: %v\n", err)
			os.Exit(1)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			_ = http.ListenAndServe(*metricsAddr, mux)
		}()
	}

	srv, err := server.NewServer(*addr, *transport, a)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "start abci server: %v\n", err)
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "abci server start: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = srv.Stop() }()

	// Wait for signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
