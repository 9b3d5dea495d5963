package types

import "sort"

// EventType identifies the platform occurrence that triggered an invocation
type EventType string

const (
	EventInstall         EventType = "install"
	EventConfigChanged   EventType = "config-changed"
	EventSupervisorReady EventType = "supervisor-ready"
	EventRelationChanged EventType = "relation-changed"
	EventStorageAttached EventType = "storage-attached"
	EventStorageDetached EventType = "storage-detached"
	EventUpdateStatus    EventType = "update-status"
	EventUpgrade         EventType = "upgrade"
)

// RelationRole defines the kind of peer on the other end of a relation
type RelationRole string

const (
	RoleIngress       RelationRole = "ingress-requester"
	RoleBucket        RelationRole = "storage-bucket-consumer"
	RoleObservability RelationRole = "observability-registrant"
)

// RelationRecord is one side of a typed data-exchange channel with a peer.
// LocalData holds the fields this controller owns and may rewrite; RemoteData
// holds the peer's last known published fields and must be treated as
// possibly stale.
type RelationRecord struct {
	ID         string
	Role       RelationRole
	LocalData  map[string]string
	RemoteData map[string]string
}

// Relation data field names, by role
const (
	// Published on ingress-requester relations
	FieldServiceName = "service-name"
	FieldPort        = "port"
	FieldStripPrefix = "strip-prefix"
	// Read from ingress-requester relations
	FieldExternalURL = "external-url"

	// Published on storage-bucket-consumer relations
	FieldRequestedBucket = "requested-bucket-name"
	// Read from storage-bucket-consumer relations
	FieldBucketEndpoint = "endpoint"
	FieldBucketCredRef  = "credentials-secret-ref"

	// Published on observability-registrant relations
	FieldMetricsEndpoint = "metrics-endpoint"
	FieldScrapePort      = "scrape-port"
	FieldDashboard       = "dashboard-definition"
	FieldLogPath         = "log-path"
)

// StorageStatus reports the durable storage attachment for the workload
type StorageStatus struct {
	Attached      bool
	Mounted       bool
	Path          string
	CapacityBytes int64
}

// ProcessState represents the supervisor's view of the workload process
type ProcessState string

const (
	ProcessNotStarted ProcessState = "not-started"
	ProcessStarting   ProcessState = "starting"
	ProcessRunning    ProcessState = "running"
	ProcessStopped    ProcessState = "stopped"
	ProcessErrored    ProcessState = "errored"
)

// ReadinessCheck defines how the supervisor probes workload readiness
type ReadinessCheck struct {
	URL            string
	PeriodSeconds  int
	TimeoutSeconds int
}

// ProcessPlan is the supervisor's declarative description of what to run
type ProcessPlan struct {
	Name        string
	Command     string
	Args        []string
	Environment map[string]string
	Readiness   *ReadinessCheck
}

// Equal reports structural equality of two plans, ignoring readiness probe
// tuning (a probe change alone never warrants a workload restart).
func (p *ProcessPlan) Equal(o *ProcessPlan) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.Name != o.Name || p.Command != o.Command {
		return false
	}
	if len(p.Args) != len(o.Args) {
		return false
	}
	for i := range p.Args {
		if p.Args[i] != o.Args[i] {
			return false
		}
	}
	return mapsEqual(p.Environment, o.Environment)
}

// ReadFailure records one data source that could not be read this invocation
type ReadFailure struct {
	Source string // "supervisor", "storage", or "relation:<id>"
	Err    string
}

// ObservedState is the live remote state fetched fresh each invocation.
// Never mutated after construction, only replaced by the next read.
type ObservedState struct {
	Plan             *ProcessPlan // nil when no plan is installed
	Process          ProcessState
	Storage          StorageStatus
	Relations        []*RelationRecord
	LicenseInstalled bool
	FailedReads      []ReadFailure
}

// FailedSource reports whether a given source appears in FailedReads
func (s *ObservedState) FailedSource(source string) bool {
	for _, f := range s.FailedReads {
		if f.Source == source {
			return true
		}
	}
	return false
}

// Relation returns the first relation with the given role, ordered by
// stable relation identifier, plus the IDs of any further relations of the
// same role. The caller reports those as ignored rather than merging them.
func (s *ObservedState) Relation(role RelationRole) (*RelationRecord, []string) {
	var matched []*RelationRecord
	for _, r := range s.Relations {
		if r.Role == role {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}
	sort.Slice(matched, func(i, j int) bool {
		return CompareRelationIDs(matched[i].ID, matched[j].ID) < 0
	})
	var ignored []string
	for _, r := range matched[1:] {
		ignored = append(ignored, r.ID)
	}
	return matched[0], ignored
}

// DesiredConfig is the complete desired configuration for one invocation.
// It is a pure function of (options, relation data, storage status): the same
// inputs always produce a structurally identical value, and it is rebuilt
// from scratch every invocation.
type DesiredConfig struct {
	Service       string
	Command       string
	Args          []string
	Environment   map[string]string
	Port          int
	DataPath      string
	LicenseSource string // host path of the license file to push, empty if none
	LicensePath   string // destination inside the workload
	ExternalURL   string // from the honored ingress relation, possibly stale
	Readiness     *ReadinessCheck
}

// Plan renders the process plan implied by this configuration
func (d *DesiredConfig) Plan() *ProcessPlan {
	env := make(map[string]string, len(d.Environment))
	for k, v := range d.Environment {
		env[k] = v
	}
	args := make([]string, len(d.Args))
	copy(args, d.Args)
	return &ProcessPlan{
		Name:        d.Service,
		Command:     d.Command,
		Args:        args,
		Environment: env,
		Readiness:   d.Readiness,
	}
}

// MutationKind identifies one idempotent remote mutation
type MutationKind string

const (
	MutationMountStorage   MutationKind = "mount-storage"
	MutationPushLicense    MutationKind = "push-license"
	MutationSetPlan        MutationKind = "set-process-plan"
	MutationStartProcess   MutationKind = "start-process"
	MutationRestartProcess MutationKind = "restart-process"
	MutationPublish        MutationKind = "publish-relation-data"
)

// Mutation is one "set to desired state" operation. Applying the same
// mutation twice must be a no-op against the remote system.
type Mutation struct {
	Kind     MutationKind
	Relation string            // relation ID, publish mutations only
	Role     RelationRole      // relation role, publish mutations only
	Fields   map[string]string // owned fields to write, publish mutations only
}

// OutcomeKind is the controller's final verdict for one invocation
type OutcomeKind string

const (
	OutcomeConverged    OutcomeKind = "converged"
	OutcomeDegraded     OutcomeKind = "converged-with-degradation"
	OutcomeRetryable    OutcomeKind = "retryable-failure"
	OutcomeMisconfigure OutcomeKind = "fatal-misconfiguration"
)

// ReconcileOutcome aggregates what one invocation decided and applied
type ReconcileOutcome struct {
	Kind    OutcomeKind
	Message string
	Applied []Mutation
	Err     error
}

// StatusState is one of the small fixed set of externally visible states
type StatusState string

const (
	StatusActive  StatusState = "active"
	StatusWaiting StatusState = "waiting"
	StatusBlocked StatusState = "blocked"
	StatusError   StatusState = "error"
)

// StatusReport is the single human-readable summary of one invocation
type StatusReport struct {
	State            StatusState
	Message          string
	IgnoredRelations []string
}

func mapsEqual(a, b map[string]string) bool {
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
