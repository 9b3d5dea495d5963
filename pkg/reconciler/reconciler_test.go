package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reductstore/reduct-operator/pkg/relations"
	"github.com/reductstore/reduct-operator/pkg/supervisor"
	"github.com/reductstore/reduct-operator/pkg/types"
	"github.com/reductstore/reduct-operator/pkg/volume"
)

func desiredFixture() *types.DesiredConfig {
	return &types.DesiredConfig{
		Service: "reductstore",
		Command: "reductstore",
		Environment: map[string]string{
			"RS_LOG_LEVEL": "INFO",
			"RS_PORT":      "8383",
			"RS_DATA_PATH": "/data",
		},
		Port:     8383,
		DataPath: "/data",
	}
}

func kinds(mutations []types.Mutation) []types.MutationKind {
	var out []types.MutationKind
	for _, m := range mutations {
		out = append(out, m.Kind)
	}
	return out
}

func TestDiffFreshWorkload(t *testing.T) {
	// Storage attached but not mounted, no plan installed, process not
	// started: full bring-up in the mandated order
	observed := &types.ObservedState{
		Process: types.ProcessNotStarted,
		Storage: types.StorageStatus{Attached: true, Mounted: false, Path: "/data"},
	}

	mutations := Diff(desiredFixture(), nil, observed)
	assert.Equal(t, []types.MutationKind{
		types.MutationMountStorage,
		types.MutationSetPlan,
		types.MutationStartProcess,
	}, kinds(mutations))
}

func TestDiffNoOp(t *testing.T) {
	desired := desiredFixture()
	observed := &types.ObservedState{
		Plan:    desired.Plan(),
		Process: types.ProcessRunning,
		Storage: types.StorageStatus{Attached: true, Mounted: true, Path: "/data"},
	}

	mutations := Diff(desired, nil, observed)
	assert.Empty(t, mutations)
}

func TestDiffEnvironmentChangeRestartsRunningProcess(t *testing.T) {
	desired := desiredFixture()
	previous := desiredFixture()
	previous.Environment["RS_RETENTION_POLICY"] = "30d"

	observed := &types.ObservedState{
		Plan:    previous.Plan(),
		Process: types.ProcessRunning,
		Storage: types.StorageStatus{Attached: true, Mounted: true, Path: "/data"},
	}

	mutations := Diff(desired, nil, observed)
	assert.Equal(t, []types.MutationKind{
		types.MutationSetPlan,
		types.MutationRestartProcess,
	}, kinds(mutations))
}

func TestDiffCrashedProcessStartsWithoutPlanRewrite(t *testing.T) {
	desired := desiredFixture()
	observed := &types.ObservedState{
		Plan:    desired.Plan(),
		Process: types.ProcessErrored,
		Storage: types.StorageStatus{Attached: true, Mounted: true, Path: "/data"},
	}

	mutations := Diff(desired, nil, observed)
	assert.Equal(t, []types.MutationKind{types.MutationStartProcess}, kinds(mutations))
}

func TestDiffLicensePushOrderedBeforePlan(t *testing.T) {
	desired := desiredFixture()
	desired.LicenseSource = "/srv/reduct.lic"
	desired.LicensePath = "/reduct.lic"

	observed := &types.ObservedState{
		Process: types.ProcessNotStarted,
		Storage: types.StorageStatus{Attached: true, Mounted: false, Path: "/data"},
	}

	mutations := Diff(desired, nil, observed)
	assert.Equal(t, []types.MutationKind{
		types.MutationMountStorage,
		types.MutationPushLicense,
		types.MutationSetPlan,
		types.MutationStartProcess,
	}, kinds(mutations))
}

func TestDiffPublishOnlyChangedRelations(t *testing.T) {
	desired := desiredFixture()
	records := []*types.RelationRecord{
		{
			ID:        "ingress:1",
			Role:      types.RoleIngress,
			LocalData: map[string]string{types.FieldServiceName: "reductstore"},
		},
		{
			ID:        "bucket:2",
			Role:      types.RoleBucket,
			LocalData: map[string]string{types.FieldRequestedBucket: "reductstore-data"},
		},
	}
	observed := &types.ObservedState{
		Plan:    desired.Plan(),
		Process: types.ProcessRunning,
		Storage: types.StorageStatus{Attached: true, Mounted: true, Path: "/data"},
		Relations: []*types.RelationRecord{
			// ingress already has the desired fields, bucket does not
			{
				ID:        "ingress:1",
				Role:      types.RoleIngress,
				LocalData: map[string]string{types.FieldServiceName: "reductstore"},
			},
			{ID: "bucket:2", Role: types.RoleBucket},
		},
	}

	mutations := Diff(desired, records, observed)
	require.Len(t, mutations, 1)
	assert.Equal(t, types.MutationPublish, mutations[0].Kind)
	assert.Equal(t, "bucket:2", mutations[0].Relation)
}

func TestDiffIsIdempotent(t *testing.T) {
	// Applying the computed mutations against fakes and diffing again must
	// yield zero further mutations
	desired := desiredFixture()
	sup := supervisor.NewFake()
	vol := volume.NewFake(types.StorageStatus{Attached: true, Path: "/data"})
	store := relations.NewMemoryStore()
	engine := newTestEngine(sup, vol, store)

	observed := &types.ObservedState{
		Process: types.ProcessNotStarted,
		Storage: types.StorageStatus{Attached: true, Mounted: false, Path: "/data"},
	}
	mutations := Diff(desired, nil, observed)
	require.NotEmpty(t, mutations)

	applied, err := engine.Apply(context.Background(), desired, mutations)
	require.NoError(t, err)
	assert.Len(t, applied, len(mutations))

	// Re-observe from the fakes
	storage, err := vol.Status(context.Background())
	require.NoError(t, err)
	state, err := sup.ServiceStatus(context.Background(), desired.Service)
	require.NoError(t, err)
	second := &types.ObservedState{
		Plan:    sup.InstalledPlan(),
		Process: state,
		Storage: storage,
	}
	assert.Empty(t, Diff(desired, nil, second))
}

func TestApplyRetriesTransientErrors(t *testing.T) {
	desired := desiredFixture()
	sup := supervisor.NewFake()
	sup.FailFor["SetPlan"] = 2
	vol := volume.NewFake(types.StorageStatus{Attached: true, Mounted: true, Path: "/data"})
	engine := newTestEngine(sup, vol, relations.NewMemoryStore())

	mutations := []types.Mutation{
		{Kind: types.MutationSetPlan},
		{Kind: types.MutationStartProcess},
	}
	applied, err := engine.Apply(context.Background(), desired, mutations)
	require.NoError(t, err)
	assert.Len(t, applied, 2)
	assert.NotNil(t, sup.InstalledPlan())
}

func TestApplyAbortsAfterExhaustedRetries(t *testing.T) {
	desired := desiredFixture()
	sup := supervisor.NewFake()
	sup.FailFor["SetPlan"] = 10
	vol := volume.NewFake(types.StorageStatus{Attached: true, Mounted: false, Path: "/data"})
	engine := newTestEngine(sup, vol, relations.NewMemoryStore())

	mutations := []types.Mutation{
		{Kind: types.MutationMountStorage},
		{Kind: types.MutationSetPlan},
		{Kind: types.MutationStartProcess},
	}
	applied, err := engine.Apply(context.Background(), desired, mutations)
	require.Error(t, err)
	assert.True(t, types.IsTransient(err))

	// The mount was applied and stays in place: reconciliation re-enters
	// from partial state on the next invocation
	assert.Equal(t, []types.MutationKind{types.MutationMountStorage}, kinds(applied))
	assert.Equal(t, 1, vol.MountCalls)
}

func TestApplyRejectionIsNotRetried(t *testing.T) {
	desired := desiredFixture()
	sup := supervisor.NewFake()
	sup.FailOn["SetPlan"] = errors.New("plan rejected: invalid service name")
	vol := volume.NewFake(types.StorageStatus{Attached: true, Mounted: true, Path: "/data"})
	engine := newTestEngine(sup, vol, relations.NewMemoryStore())

	mutations := []types.Mutation{{Kind: types.MutationSetPlan}}
	_, err := engine.Apply(context.Background(), desired, mutations)
	require.Error(t, err)

	var applyErr *types.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, types.MutationSetPlan, applyErr.Mutation)
	// One initial attempt, no retries for a non-transient rejection
	assert.Empty(t, sup.Calls)
}

func newTestEngine(sup supervisor.Client, vol volume.Manager, store relations.Store) *Engine {
	engine := NewEngine(sup, vol, store)
	engine.Backoff = time.Millisecond
	return engine
}
