package supervisor

import (
	"context"
	"os"
	"sync"

	"github.com/reductstore/reduct-operator/pkg/types"
)

// Fake is an in-memory supervisor for tests. It records every mutating call
// and can inject failures per method.
type Fake struct {
	mu sync.Mutex

	plan    *types.ProcessPlan
	state   types.ProcessState
	files   map[string][]byte
	Calls   []string
	FailOn  map[string]error // method name -> error returned
	FailFor map[string]int   // method name -> remaining transient failures
}

// NewFake creates a fake supervisor with no plan and a stopped workload
func NewFake() *Fake {
	return &Fake{
		state:   types.ProcessNotStarted,
		files:   make(map[string][]byte),
		FailOn:  make(map[string]error),
		FailFor: make(map[string]int),
	}
}

func (f *Fake) fail(method string) error {
	if n := f.FailFor[method]; n > 0 {
		f.FailFor[method] = n - 1
		return &types.TransientIOError{Op: method, Err: os.ErrDeadlineExceeded}
	}
	if err := f.FailOn[method]; err != nil {
		return err
	}
	return nil
}

// SetState overrides the fake's process state
func (f *Fake) SetState(state types.ProcessState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
}

// InstalledPlan returns the currently installed plan
func (f *Fake) InstalledPlan() *types.ProcessPlan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plan
}

// File returns the contents pushed to a path, if any
func (f *Fake) File(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	return data, ok
}

func (f *Fake) Plan(ctx context.Context) (*types.ProcessPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Plan"); err != nil {
		return nil, err
	}
	f.Calls = append(f.Calls, "Plan")
	return f.plan, nil
}

func (f *Fake) SetPlan(ctx context.Context, plan *types.ProcessPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SetPlan"); err != nil {
		return err
	}
	f.Calls = append(f.Calls, "SetPlan")
	f.plan = plan
	return nil
}

func (f *Fake) ServiceStatus(ctx context.Context, name string) (types.ProcessState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ServiceStatus"); err != nil {
		return types.ProcessNotStarted, err
	}
	f.Calls = append(f.Calls, "ServiceStatus")
	return f.state, nil
}

func (f *Fake) Start(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Start"); err != nil {
		return err
	}
	f.Calls = append(f.Calls, "Start")
	f.state = types.ProcessRunning
	return nil
}

func (f *Fake) Restart(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Restart"); err != nil {
		return err
	}
	f.Calls = append(f.Calls, "Restart")
	f.state = types.ProcessRunning
	return nil
}

func (f *Fake) PushFile(ctx context.Context, path string, data []byte, mode os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("PushFile"); err != nil {
		return err
	}
	f.Calls = append(f.Calls, "PushFile")
	f.files[path] = data
	return nil
}

func (f *Fake) FileExists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("FileExists"); err != nil {
		return false, err
	}
	f.Calls = append(f.Calls, "FileExists")
	_, ok := f.files[path]
	return ok, nil
}
