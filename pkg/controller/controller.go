package controller

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/reductstore/reduct-operator/pkg/builder"
	"github.com/reductstore/reduct-operator/pkg/config"
	"github.com/reductstore/reduct-operator/pkg/log"
	"github.com/reductstore/reduct-operator/pkg/metrics"
	"github.com/reductstore/reduct-operator/pkg/observe"
	"github.com/reductstore/reduct-operator/pkg/publisher"
	"github.com/reductstore/reduct-operator/pkg/reconciler"
	"github.com/reductstore/reduct-operator/pkg/relations"
	"github.com/reductstore/reduct-operator/pkg/status"
	"github.com/reductstore/reduct-operator/pkg/types"
)

// Controller sequences one stateless invocation:
// Read -> Build -> Diff&Apply -> Publish -> Report. It holds no state across
// invocations; every decision is reconstructed from the declared options and
// the observed remote state. Any step's failure jumps to Report, except
// Publish, which always runs with the best currently-known state.
type Controller struct {
	Options *config.Options
	Readers *observe.Readers
	Engine  *reconciler.Engine
	Store   relations.Store
}

// New wires a controller from its collaborators
func New(opts *config.Options, readers *observe.Readers, engine *reconciler.Engine, store relations.Store) *Controller {
	return &Controller{Options: opts, Readers: readers, Engine: engine, Store: store}
}

// Handle runs one full reconciliation for a triggering event. It always
// terminates with a status report and never blocks awaiting external
// convergence: retries happen because the platform re-invokes the
// controller, not because the controller loops internally.
func (c *Controller) Handle(ctx context.Context, event types.EventType) (*types.ReconcileOutcome, types.StatusReport) {
	invocationID := uuid.NewString()
	logger := log.WithInvocation(invocationID)
	logger.Info().Str("event", string(event)).Msg("reconcile started")

	timer := metrics.NewTimer()
	outcome, report := c.reconcile(ctx, event)
	timer.ObserveDuration(metrics.ReconcileDuration)
	metrics.ReconcileInvocationsTotal.WithLabelValues(string(outcome.Kind)).Inc()

	logger.Info().
		Str("outcome", string(outcome.Kind)).
		Str("status", string(report.State)).
		Str("message", report.Message).
		Int("mutations", len(outcome.Applied)).
		Msg("reconcile finished")
	return outcome, report
}

func (c *Controller) reconcile(ctx context.Context, event types.EventType) (*types.ReconcileOutcome, types.StatusReport) {
	logger := log.WithComponent("controller")

	// Read
	observed := c.Readers.ReadObserved(ctx)

	if observed.FailedSource(observe.SourceSupervisor) {
		outcome := &types.ReconcileOutcome{
			Kind:    types.OutcomeRetryable,
			Message: "waiting for supervisor API",
			Err:     &types.NotReadyError{Reason: "supervisor unreachable"},
		}
		outcome.Applied = c.publishAll(ctx, nil, observed, nil)
		return outcome, status.Summarize(outcome, observed.FailedReads, nil)
	}
	if observed.FailedSource(observe.SourceStorage) {
		outcome := &types.ReconcileOutcome{
			Kind:    types.OutcomeRetryable,
			Message: "waiting for storage status",
			Err:     &types.NotReadyError{Reason: "storage status unreadable"},
		}
		outcome.Applied = c.publishAll(ctx, nil, observed, nil)
		return outcome, status.Summarize(outcome, observed.FailedReads, nil)
	}

	// Build
	result, err := builder.Build(c.Options, observed.Relations, observed.Storage)
	if err != nil {
		logger.Warn().Err(err).Msg("desired state build failed")
		outcome := &types.ReconcileOutcome{
			Kind:    types.OutcomeMisconfigure,
			Message: err.Error(),
			Err:     err,
		}
		outcome.Applied = c.publishAll(ctx, nil, observed, nil)
		return outcome, status.Summarize(outcome, observed.FailedReads, nil)
	}
	if result.WaitingOn != "" {
		outcome := &types.ReconcileOutcome{
			Kind:    types.OutcomeRetryable,
			Message: result.WaitingOn,
			Err:     &types.NotReadyError{Reason: result.WaitingOn},
		}
		outcome.Applied = c.publishAll(ctx, nil, observed, nil)
		return outcome, status.Summarize(outcome, observed.FailedReads, result.Ignored)
	}
	desired := result.Config

	if desired.LicenseSource != "" {
		if _, err := os.Stat(desired.LicenseSource); err != nil {
			outcome := &types.ReconcileOutcome{
				Kind:    types.OutcomeMisconfigure,
				Message: fmt.Sprintf("attach license file %q", desired.LicenseSource),
				Err:     err,
			}
			outcome.Applied = c.publishAll(ctx, desired, observed, nil)
			return outcome, status.Summarize(outcome, observed.FailedReads, result.Ignored)
		}
	}

	// Diff & Apply
	records := publisher.Records(desired, observed)
	mutations := reconciler.Diff(desired, records, observed)
	applied, applyErr := c.Engine.Apply(ctx, desired, mutations)

	// Publish always runs, even after an apply failure, with the best
	// currently-known state
	applied = append(applied, c.publishAll(ctx, desired, observed, applied)...)

	if applyErr != nil {
		outcome := &types.ReconcileOutcome{
			Kind:    types.OutcomeRetryable,
			Applied: applied,
			Err:     applyErr,
		}
		if types.IsTransient(applyErr) {
			outcome.Message = "waiting for supervisor API"
		} else {
			outcome.Message = "failed to apply configuration"
		}
		return outcome, status.Summarize(outcome, observed.FailedReads, result.Ignored)
	}

	// Report
	outcome := &types.ReconcileOutcome{
		Kind:    types.OutcomeConverged,
		Applied: applied,
		Message: convergedMessage(desired),
	}
	if len(observed.FailedReads) > 0 {
		outcome.Kind = types.OutcomeDegraded
	}
	return outcome, status.Summarize(outcome, observed.FailedReads, result.Ignored)
}

// publishAll writes any relation records not already covered by applied
// publish mutations. Failures here only degrade the status; they never
// abort reporting.
func (c *Controller) publishAll(ctx context.Context, desired *types.DesiredConfig, observed *types.ObservedState, applied []types.Mutation) []types.Mutation {
	logger := log.WithComponent("controller")

	done := make(map[string]bool)
	for _, m := range applied {
		if m.Kind == types.MutationPublish {
			done[m.Relation] = true
		}
	}

	var published []types.Mutation
	for _, record := range publisher.Records(desired, observed) {
		if done[record.ID] {
			continue
		}
		current := currentLocalData(observed, record.ID)
		if fieldsEqual(record.LocalData, current) {
			continue
		}
		if err := c.Store.SetLocal(ctx, record.ID, record.LocalData); err != nil {
			relLogger := log.WithRelation(record.ID)
			relLogger.Warn().Err(err).Msg("failed to publish relation data")
			continue
		}
		metrics.MutationsAppliedTotal.WithLabelValues(string(types.MutationPublish)).Inc()
		metrics.RelationsPublishedTotal.WithLabelValues(string(record.Role)).Inc()
		logger.Debug().Str("relation", record.ID).Msg("relation data published")
		published = append(published, types.Mutation{
			Kind:     types.MutationPublish,
			Relation: record.ID,
			Role:     record.Role,
			Fields:   record.LocalData,
		})
	}
	return published
}

func convergedMessage(desired *types.DesiredConfig) string {
	if desired.ExternalURL != "" {
		if api, err := publisher.ExternalAPIURL(desired.ExternalURL, desired.Environment["RS_API_BASE_PATH"]); err == nil {
			return "ready at " + api
		}
	}
	return "service running"
}

func currentLocalData(observed *types.ObservedState, id string) map[string]string {
	for _, r := range observed.Relations {
		if r.ID == id {
			return r.LocalData
		}
	}
	return nil
}

func fieldsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
