package observe

import (
	"context"

	"github.com/reductstore/reduct-operator/pkg/log"
	"github.com/reductstore/reduct-operator/pkg/metrics"
	"github.com/reductstore/reduct-operator/pkg/relations"
	"github.com/reductstore/reduct-operator/pkg/supervisor"
	"github.com/reductstore/reduct-operator/pkg/types"
	"github.com/reductstore/reduct-operator/pkg/volume"
)

// Source names recorded in ReadFailure entries
const (
	SourceSupervisor = "supervisor"
	SourceStorage    = "storage"
	SourceRelations  = "relations"
)

// Readers pulls observed facts from the remote APIs: the supervisor's
// process plan and service status, storage attachment, and relation data.
// Pure fetch, no decisions. Each sub-read fails independently: a failure in
// one source is recorded in FailedReads and never hides the others.
type Readers struct {
	Supervisor  supervisor.Client
	Volume      volume.Manager
	Relations   relations.Store
	Service     string
	LicensePath string // in-workload destination to check, empty to skip
}

// ReadObserved fetches a fresh ObservedState. It never fails outright:
// unreadable sources are reported through ObservedState.FailedReads.
func (r *Readers) ReadObserved(ctx context.Context) *types.ObservedState {
	logger := log.WithComponent("observe")
	state := &types.ObservedState{Process: types.ProcessNotStarted}

	plan, err := r.Supervisor.Plan(ctx)
	if err != nil {
		state.FailedReads = append(state.FailedReads,
			types.ReadFailure{Source: SourceSupervisor, Err: err.Error()})
		metrics.ReadFailuresTotal.WithLabelValues(SourceSupervisor).Inc()
		logger.Warn().Err(err).Msg("failed to read supervisor plan")
	} else {
		state.Plan = plan
		status, err := r.Supervisor.ServiceStatus(ctx, r.Service)
		if err != nil {
			state.FailedReads = append(state.FailedReads,
				types.ReadFailure{Source: SourceSupervisor, Err: err.Error()})
			metrics.ReadFailuresTotal.WithLabelValues(SourceSupervisor).Inc()
			logger.Warn().Err(err).Msg("failed to read service status")
		} else {
			state.Process = status
		}
		if r.LicensePath != "" {
			// Best-effort: an unreadable license status only means the
			// push mutation may be re-applied, which is idempotent.
			if exists, err := r.Supervisor.FileExists(ctx, r.LicensePath); err == nil {
				state.LicenseInstalled = exists
			}
		}
	}

	storage, err := r.Volume.Status(ctx)
	if err != nil {
		state.FailedReads = append(state.FailedReads,
			types.ReadFailure{Source: SourceStorage, Err: err.Error()})
		metrics.ReadFailuresTotal.WithLabelValues(SourceStorage).Inc()
		logger.Warn().Err(err).Msg("failed to read storage status")
	} else {
		state.Storage = storage
	}

	ids, err := r.Relations.IDs(ctx)
	if err != nil {
		state.FailedReads = append(state.FailedReads,
			types.ReadFailure{Source: SourceRelations, Err: err.Error()})
		metrics.ReadFailuresTotal.WithLabelValues(SourceRelations).Inc()
		logger.Warn().Err(err).Msg("failed to list relations")
		return state
	}
	for _, id := range ids {
		record, err := r.Relations.Get(ctx, id)
		if err != nil {
			state.FailedReads = append(state.FailedReads,
				types.ReadFailure{Source: "relation:" + id, Err: err.Error()})
			metrics.ReadFailuresTotal.WithLabelValues(SourceRelations).Inc()
			relLogger := log.WithRelation(id)
			relLogger.Warn().Err(err).Msg("failed to read relation data")
			continue
		}
		state.Relations = append(state.Relations, record)
	}

	return state
}
