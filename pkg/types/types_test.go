package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareRelationIDs(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"numeric suffix compares numerically", "ingress:3", "ingress:12", -1},
		{"numeric suffix reversed", "ingress:12", "ingress:3", 1},
		{"equal", "ingress:3", "ingress:3", 0},
		{"different prefixes compare lexicographically", "bucket:9", "ingress:1", -1},
		{"no suffix compares lexicographically", "alpha", "beta", -1},
		{"mixed suffix presence", "ingress", "ingress:1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareRelationIDs(tt.a, tt.b))
		})
	}
}

func TestProcessPlanEqual(t *testing.T) {
	base := func() *ProcessPlan {
		return &ProcessPlan{
			Name:        "reductstore",
			Command:     "reductstore",
			Args:        []string{"--verbose"},
			Environment: map[string]string{"RS_PORT": "8383"},
		}
	}

	assert.True(t, base().Equal(base()))

	changedEnv := base()
	changedEnv.Environment["RS_PORT"] = "9000"
	assert.False(t, base().Equal(changedEnv))

	changedArgs := base()
	changedArgs.Args = []string{"--quiet"}
	assert.False(t, base().Equal(changedArgs))

	// Readiness probe tuning alone never forces a restart
	changedProbe := base()
	changedProbe.Readiness = &ReadinessCheck{URL: "http://localhost:8383/alive"}
	assert.True(t, base().Equal(changedProbe))

	var nilPlan *ProcessPlan
	assert.False(t, base().Equal(nilPlan))
	assert.True(t, nilPlan.Equal(nil))
}

func TestObservedStateRelationTieBreak(t *testing.T) {
	state := &ObservedState{
		Relations: []*RelationRecord{
			{ID: "ingress:12", Role: RoleIngress},
			{ID: "ingress:3", Role: RoleIngress},
			{ID: "bucket:1", Role: RoleBucket},
		},
	}

	honored, ignored := state.Relation(RoleIngress)
	require.NotNil(t, honored)
	assert.Equal(t, "ingress:3", honored.ID)
	assert.Equal(t, []string{"ingress:12"}, ignored)

	honored, ignored = state.Relation(RoleBucket)
	require.NotNil(t, honored)
	assert.Equal(t, "bucket:1", honored.ID)
	assert.Empty(t, ignored)

	honored, ignored = state.Relation(RoleObservability)
	assert.Nil(t, honored)
	assert.Empty(t, ignored)
}

func TestDesiredConfigPlanCopiesEnvironment(t *testing.T) {
	desired := &DesiredConfig{
		Service:     "reductstore",
		Command:     "reductstore",
		Environment: map[string]string{"RS_PORT": "8383"},
	}

	plan := desired.Plan()
	plan.Environment["RS_PORT"] = "9000"
	assert.Equal(t, "8383", desired.Environment["RS_PORT"])
}
