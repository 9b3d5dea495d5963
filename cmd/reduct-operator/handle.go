package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reductstore/reduct-operator/pkg/events"
	"github.com/reductstore/reduct-operator/pkg/log"
	"github.com/reductstore/reduct-operator/pkg/types"
)

const invocationTimeout = 2 * time.Minute

var handleCmd = &cobra.Command{
	Use:   "handle <event>",
	Short: "Run one reconciliation for a triggering event",
	Long: `Run a single stateless reconciliation invocation for the given platform
event and print the resulting status. The process always exits 0 once a
status has been produced; fatal misconfiguration is communicated through the
blocked status, not the exit code, since the platform re-invokes on the next
event regardless.

Examples:
  reduct-operator handle config-changed
  reduct-operator handle update-status`,
	Args: cobra.ExactArgs(1),
	RunE: runHandle,
}

func runHandle(cmd *cobra.Command, args []string) error {
	initLogging(cmd)

	event, err := events.Parse(args[0])
	if err != nil {
		return err
	}

	ctrl, closeFn, err := setup(cmd)
	if err != nil {
		// Invalid declared options block until the options change; every
		// invocation still terminates with a status and exit code 0.
		if types.IsValidation(err) {
			printStatus(types.StatusReport{State: types.StatusBlocked, Message: err.Error()})
			return nil
		}
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(cmd.Context(), invocationTimeout)
	defer cancel()

	_, report := ctrl.Handle(ctx, event)
	printStatus(report)
	return nil
}

func printStatus(report types.StatusReport) {
	fmt.Printf("%s: %s\n", report.State, report.Message)
	for _, id := range report.IgnoredRelations {
		relLogger := log.WithRelation(id)
		relLogger.Warn().Msg("conflicting same-role relation ignored")
		fmt.Printf("ignored relation: %s\n", id)
	}
}
