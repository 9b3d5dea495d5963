package reconciler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/reductstore/reduct-operator/pkg/log"
	"github.com/reductstore/reduct-operator/pkg/metrics"
	"github.com/reductstore/reduct-operator/pkg/relations"
	"github.com/reductstore/reduct-operator/pkg/supervisor"
	"github.com/reductstore/reduct-operator/pkg/types"
	"github.com/reductstore/reduct-operator/pkg/volume"
)

const (
	// DefaultRetries is the bounded retry count per mutation
	DefaultRetries = 3

	// DefaultBackoff is the initial delay between retries; it doubles on
	// each attempt
	DefaultBackoff = 200 * time.Millisecond
)

// Engine applies the minimal ordered set of remote mutations needed to make
// observed state match desired state. Every mutation is an idempotent
// set-to-desired operation: re-applying one after a partial failure is safe,
// so no rollback is ever attempted.
type Engine struct {
	Supervisor supervisor.Client
	Volume     volume.Manager
	Relations  relations.Store
	Retries    int
	Backoff    time.Duration
}

// NewEngine creates an engine with default retry discipline
func NewEngine(sup supervisor.Client, vol volume.Manager, rel relations.Store) *Engine {
	return &Engine{
		Supervisor: sup,
		Volume:     vol,
		Relations:  rel,
		Retries:    DefaultRetries,
		Backoff:    DefaultBackoff,
	}
}

// Diff computes the ordered mutation list taking observed to desired.
// Ordering is fixed: storage mount before process plan before process
// start/restart before relation publication, so traffic is never served
// against a half-configured workload. An observed state that already matches
// yields an empty list.
func Diff(desired *types.DesiredConfig, records []*types.RelationRecord, observed *types.ObservedState) []types.Mutation {
	var mutations []types.Mutation

	if !observed.Storage.Mounted {
		mutations = append(mutations, types.Mutation{Kind: types.MutationMountStorage})
	}

	if desired.LicenseSource != "" && !observed.LicenseInstalled {
		mutations = append(mutations, types.Mutation{Kind: types.MutationPushLicense})
	}

	plan := desired.Plan()
	planDiffers := !plan.Equal(observed.Plan)
	if planDiffers {
		mutations = append(mutations, types.Mutation{Kind: types.MutationSetPlan})
	}

	running := observed.Process == types.ProcessRunning || observed.Process == types.ProcessStarting
	switch {
	case planDiffers && running:
		// Command, args, or environment changed under a live process
		mutations = append(mutations, types.Mutation{Kind: types.MutationRestartProcess})
	case !running:
		// Covers both first start and a crashed process with a matching
		// plan: status-only differences trigger a start, not a plan rewrite
		mutations = append(mutations, types.Mutation{Kind: types.MutationStartProcess})
	}

	for _, record := range records {
		current := relationLocalData(observed, record.ID)
		if !fieldsEqual(record.LocalData, current) {
			mutations = append(mutations, types.Mutation{
				Kind:     types.MutationPublish,
				Relation: record.ID,
				Role:     record.Role,
				Fields:   record.LocalData,
			})
		}
	}

	return mutations
}

// Apply executes the mutations in order with bounded retries and backoff for
// transient remote errors. It returns the mutations actually applied; on
// failure the remaining sequence is aborted and already-applied mutations are
// left in place, since the next invocation recomputes the diff from current
// observed state.
func (e *Engine) Apply(ctx context.Context, desired *types.DesiredConfig, mutations []types.Mutation) ([]types.Mutation, error) {
	logger := log.WithComponent("reconciler")
	var applied []types.Mutation

	for _, m := range mutations {
		if err := e.applyWithRetry(ctx, desired, m); err != nil {
			logger.Error().Err(err).Str("mutation", string(m.Kind)).Msg("mutation failed, aborting sequence")
			return applied, err
		}
		metrics.MutationsAppliedTotal.WithLabelValues(string(m.Kind)).Inc()
		if m.Kind == types.MutationPublish {
			metrics.RelationsPublishedTotal.WithLabelValues(string(m.Role)).Inc()
		}
		logger.Debug().Str("mutation", string(m.Kind)).Msg("mutation applied")
		applied = append(applied, m)
	}

	return applied, nil
}

func (e *Engine) applyWithRetry(ctx context.Context, desired *types.DesiredConfig, m types.Mutation) error {
	retries := e.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	backoff := e.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			metrics.MutationRetriesTotal.Inc()
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return &types.TransientIOError{Op: string(m.Kind), Err: ctx.Err()}
			}
			backoff *= 2
		}
		err = e.applyOne(ctx, desired, m)
		if err == nil {
			return nil
		}
		if !types.IsTransient(err) {
			return &types.ApplyError{Mutation: m.Kind, Err: err}
		}
	}
	return err
}

func (e *Engine) applyOne(ctx context.Context, desired *types.DesiredConfig, m types.Mutation) error {
	switch m.Kind {
	case types.MutationMountStorage:
		return e.Volume.Mount(ctx)
	case types.MutationPushLicense:
		data, err := os.ReadFile(desired.LicenseSource)
		if err != nil {
			return fmt.Errorf("failed to read license file: %w", err)
		}
		return e.Supervisor.PushFile(ctx, desired.LicensePath, data, 0600)
	case types.MutationSetPlan:
		return e.Supervisor.SetPlan(ctx, desired.Plan())
	case types.MutationStartProcess:
		return e.Supervisor.Start(ctx, desired.Service)
	case types.MutationRestartProcess:
		return e.Supervisor.Restart(ctx, desired.Service)
	case types.MutationPublish:
		return e.Relations.SetLocal(ctx, m.Relation, m.Fields)
	default:
		return fmt.Errorf("unknown mutation kind: %s", m.Kind)
	}
}

func relationLocalData(observed *types.ObservedState, id string) map[string]string {
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
