package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reductstore/reduct-operator/pkg/builder"
	"github.com/reductstore/reduct-operator/pkg/observe"
	"github.com/reductstore/reduct-operator/pkg/publisher"
	"github.com/reductstore/reduct-operator/pkg/reconciler"
	"github.com/reductstore/reduct-operator/pkg/status"
	"github.com/reductstore/reduct-operator/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show convergence status without applying changes",
	Long: `Read the observed state, build the desired state, and print the status the
next reconciliation would report, plus the mutations it would apply. Nothing
is mutated: this is a dry run of the diff.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	initLogging(cmd)

	ctrl, closeFn, err := setup(cmd)
	if err != nil {
		if types.IsValidation(err) {
			printStatus(types.StatusReport{State: types.StatusBlocked, Message: err.Error()})
			return nil
		}
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(cmd.Context(), invocationTimeout)
	defer cancel()

	observed := ctrl.Readers.ReadObserved(ctx)
	if observed.FailedSource(observe.SourceSupervisor) {
		printStatus(types.StatusReport{State: types.StatusWaiting, Message: "waiting for supervisor API"})
		return nil
	}

	result, err := builder.Build(ctrl.Options, observed.Relations, observed.Storage)
	if err != nil {
		printStatus(types.StatusReport{State: types.StatusBlocked, Message: err.Error()})
		return nil
	}
	if result.WaitingOn != "" {
		printStatus(types.StatusReport{State: types.StatusWaiting, Message: result.WaitingOn, IgnoredRelations: result.Ignored})
		return nil
	}

	records := publisher.Records(result.Config, observed)
	mutations := reconciler.Diff(result.Config, records, observed)

	outcome := &types.ReconcileOutcome{Kind: types.OutcomeConverged}
	if len(observed.FailedReads) > 0 {
		outcome.Kind = types.OutcomeDegraded
	}
	printStatus(status.Summarize(outcome, observed.FailedReads, result.Ignored))

	if len(mutations) == 0 {
		fmt.Println("in sync: no pending mutations")
		return nil
	}
	for _, m := range mutations {
		if m.Relation != "" {
			fmt.Printf("pending: %s (%s)\n", m.Kind, m.Relation)
		} else {
			fmt.Printf("pending: %s\n", m.Kind)
		}
	}
	return nil
}
