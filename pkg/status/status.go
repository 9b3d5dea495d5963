package status

import (
	"fmt"
	"strings"

	"github.com/reductstore/reduct-operator/pkg/types"
)

// Summarize maps a reconcile outcome to the externally visible status. The
// message is a single line naming the unmet precondition or the converged
// endpoint; error detail stays on the diagnostic log channel.
func Summarize(outcome *types.ReconcileOutcome, failedReads []types.ReadFailure, ignored []string) types.StatusReport {
	report := types.StatusReport{IgnoredRelations: ignored}

	switch outcome.Kind {
	case types.OutcomeConverged:
		report.State = types.StatusActive
		report.Message = outcome.Message
		if report.Message == "" {
			report.Message = "service running"
		}
	case types.OutcomeDegraded:
		report.State = types.StatusActive
		report.Message = degradedMessage(outcome, failedReads)
	case types.OutcomeMisconfigure:
		report.State = types.StatusBlocked
		report.Message = outcome.Message
	case types.OutcomeRetryable:
		if outcome.Err != nil && !types.IsTransient(outcome.Err) && !types.IsNotReady(outcome.Err) {
			// A mutation the remote system rejected outright; retried on
			// the next triggering event rather than a tight loop
			report.State = types.StatusError
		} else {
			report.State = types.StatusWaiting
		}
		report.Message = outcome.Message
	default:
		report.State = types.StatusError
		report.Message = outcome.Message
	}

	if report.Message == "" && outcome.Err != nil {
		report.Message = outcome.Err.Error()
	}
	return report
}

func degradedMessage(outcome *types.ReconcileOutcome, failedReads []types.ReadFailure) string {
	if len(failedReads) == 0 {
		return outcome.Message
	}
	sources := make([]string, 0, len(failedReads))
	for _, f := range failedReads {
		sources = append(sources, f.Source)
	}
	base := outcome.Message
	if base == "" {
		base = "service running"
	}
	return fmt.Sprintf("%s (degraded: %s unreadable)", base, strings.Join(sources, ", "))
}
