package observe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reductstore/reduct-operator/pkg/relations"
	"github.com/reductstore/reduct-operator/pkg/supervisor"
	"github.com/reductstore/reduct-operator/pkg/types"
	"github.com/reductstore/reduct-operator/pkg/volume"
)

func newReaders() (*Readers, *supervisor.Fake, *volume.Fake, *relations.MemoryStore) {
	sup := supervisor.NewFake()
	vol := volume.NewFake(types.StorageStatus{Attached: true, Mounted: true, Path: "/data"})
	store := relations.NewMemoryStore()
	return &Readers{
		Supervisor: sup,
		Volume:     vol,
		Relations:  store,
		Service:    "reductstore",
	}, sup, vol, store
}

func TestReadObservedHealthy(t *testing.T) {
	readers, sup, _, store := newReaders()
	ctx := context.Background()

	plan := &types.ProcessPlan{Name: "reductstore", Command: "reductstore"}
	require.NoError(t, sup.SetPlan(ctx, plan))
	sup.SetState(types.ProcessRunning)
	require.NoError(t, store.Put(ctx, &types.RelationRecord{ID: "ingress:1", Role: types.RoleIngress}))

	state := readers.ReadObserved(ctx)
	assert.Empty(t, state.FailedReads)
	assert.True(t, plan.Equal(state.Plan))
	assert.Equal(t, types.ProcessRunning, state.Process)
	assert.True(t, state.Storage.Mounted)
	require.Len(t, state.Relations, 1)
	assert.Equal(t, "ingress:1", state.Relations[0].ID)
}

func TestReadObservedSupervisorDown(t *testing.T) {
	readers, sup, _, _ := newReaders()
	sup.FailFor["Plan"] = 1

	state := readers.ReadObserved(context.Background())
	assert.True(t, state.FailedSource(SourceSupervisor))
	// Other sources are still read
	assert.True(t, state.Storage.Attached)
}

func TestReadObservedStorageFailure(t *testing.T) {
	readers, _, vol, _ := newReaders()
	vol.StatusErr = &types.TransientIOError{Op: "stat storage", Err: context.DeadlineExceeded}

	state := readers.ReadObserved(context.Background())
	assert.True(t, state.FailedSource(SourceStorage))
	assert.False(t, state.FailedSource(SourceSupervisor))
}

func TestReadObservedPartialRelationFailure(t *testing.T) {
	readers, _, _, store := newReaders()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &types.RelationRecord{ID: "ingress:1", Role: types.RoleIngress}))
	require.NoError(t, store.Put(ctx, &types.RelationRecord{ID: "observability:2", Role: types.RoleObservability}))
	store.FailGetID = "observability:2"

	state := readers.ReadObserved(ctx)
	assert.True(t, state.FailedSource("relation:observability:2"))
	require.Len(t, state.Relations, 1)
	assert.Equal(t, "ingress:1", state.Relations[0].ID)
}

func TestReadObservedLicensePresence(t *testing.T) {
	readers, sup, _, _ := newReaders()
	readers.LicensePath = "/reduct.lic"
	ctx := context.Background()

	state := readers.ReadObserved(ctx)
	assert.False(t, state.LicenseInstalled)

	require.NoError(t, sup.PushFile(ctx, "/reduct.lic", []byte("license"), 0600))
	state = readers.ReadObserved(ctx)
	assert.True(t, state.LicenseInstalled)
}
