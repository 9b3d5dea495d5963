package volume

import (
	"context"
	"sync"

	"github.com/reductstore/reduct-operator/pkg/types"
)

// Fake is an in-memory storage manager for tests
type Fake struct {
	mu         sync.Mutex
	status     types.StorageStatus
	StatusErr  error
	MountErr   error
	MountCalls int
}

// NewFake creates a fake reporting the given status
func NewFake(status types.StorageStatus) *Fake {
	return &Fake{status: status}
}

// SetStatus replaces the reported status
func (f *Fake) SetStatus(status types.StorageStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *Fake) Status(ctx context.Context) (types.StorageStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StatusErr != nil {
		return types.StorageStatus{}, f.StatusErr
	}
	return f.status, nil
}

func (f *Fake) Mount(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MountCalls++
	if f.MountErr != nil {
		return f.MountErr
	}
	f.status.Mounted = true
	return nil
}
