package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reductstore/reduct-operator/pkg/events"
	"github.com/reductstore/reduct-operator/pkg/health"
	"github.com/reductstore/reduct-operator/pkg/log"
	"github.com/reductstore/reduct-operator/pkg/metrics"
	"github.com/reductstore/reduct-operator/pkg/types"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run periodic reconciliations and serve metrics",
	Long: `Run the controller as a long-lived process that performs a full stateless
reconciliation on a fixed interval (the update-status event) and exposes
Prometheus metrics. Each tick is identical to a one-shot invocation: nothing
is carried over between reconciliations.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().Duration("interval", 30*time.Second, "Reconcile interval")
	daemonCmd.Flags().String("metrics-addr", ":9090", "Prometheus metrics listen address")
	daemonCmd.Flags().String("probe-url", "", "Workload readiness URL probed each tick")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	initLogging(cmd)
	logger := log.WithComponent("daemon")

	interval, _ := cmd.Flags().GetDuration("interval")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	probeURL, _ := cmd.Flags().GetString("probe-url")

	ctrl, closeFn, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	defer server.Close()

	var checker *health.HTTPChecker
	if probeURL != "" {
		checker = health.NewHTTPChecker(probeURL)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("Daemon running, reconciling every %s. Press Ctrl+C to stop.\n", interval)
	broker.Publish(&events.Event{Type: types.EventUpdateStatus})

	for {
		select {
		case <-ticker.C:
			broker.Publish(&events.Event{Type: types.EventUpdateStatus})
		case event := <-sub:
			ctx, cancel := context.WithTimeout(cmd.Context(), invocationTimeout)
			_, report := ctrl.Handle(ctx, event.Type)
			cancel()
			logger.Info().
				Str("status", string(report.State)).
				Str("message", report.Message).
				Msg("reconcile tick")
			if checker != nil {
				probe(cmd.Context(), checker)
			}
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
			return nil
		}
	}
}

func probe(ctx context.Context, checker *health.HTTPChecker) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	result := checker.Check(probeCtx)
	if result.Healthy {
		metrics.WorkloadUp.Set(1)
	} else {
		metrics.WorkloadUp.Set(0)
	}
}
