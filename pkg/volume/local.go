package volume

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/reductstore/reduct-operator/pkg/types"
)

const (
	// DefaultAttachPath is where the platform surfaces the attached volume
	DefaultAttachPath = "/var/lib/reduct-operator/storage"

	// DefaultMountPath is the workload's data directory
	DefaultMountPath = "/data"
)

// Manager reads durable storage attachment status and ensures the attached
// volume is mounted at the workload's data path.
type Manager interface {
	// Status reports the current attachment and mount state
	Status(ctx context.Context) (types.StorageStatus, error)

	// Mount makes the attached volume visible at the workload data path.
	// Mounting an already-mounted volume is a no-op.
	Mount(ctx context.Context) error
}

// LocalManager implements Manager against the local filesystem: the platform
// attaches the durable volume as a directory, and mounting binds it to the
// data path via a symlink.
type LocalManager struct {
	attachPath string
	mountPath  string
}

// NewLocalManager creates a manager for the given attach and mount paths
func NewLocalManager(attachPath, mountPath string) *LocalManager {
	if attachPath == "" {
		attachPath = DefaultAttachPath
	}
	if mountPath == "" {
		mountPath = DefaultMountPath
	}
	return &LocalManager{attachPath: attachPath, mountPath: mountPath}
}

// Status reports attachment (volume directory present) and mount state
// (data path resolves to it), plus capacity of the backing filesystem.
func (m *LocalManager) Status(ctx context.Context) (types.StorageStatus, error) {
	status := types.StorageStatus{Path: m.mountPath}

	info, err := os.Stat(m.attachPath)
	if os.IsNotExist(err) {
		return status, nil
	}
	if err != nil {
		return status, &types.TransientIOError{Op: "stat storage", Err: err}
	}
	if !info.IsDir() {
		return status, fmt.Errorf("storage attach path %s is not a directory", m.attachPath)
	}
	status.Attached = true

	var fs unix.Statfs_t
	if err := unix.Statfs(m.attachPath, &fs); err == nil {
		status.CapacityBytes = int64(fs.Blocks) * int64(fs.Bsize)
	}

	target, err := os.Readlink(m.mountPath)
	if err == nil && target == m.attachPath {
		status.Mounted = true
	}
	return status, nil
}

// Mount links the attached volume to the workload data path
func (m *LocalManager) Mount(ctx context.Context) error {
	if _, err := os.Stat(m.attachPath); err != nil {
		return fmt.Errorf("storage not attached at %s: %w", m.attachPath, err)
	}
	if target, err := os.Readlink(m.mountPath); err == nil {
		if target == m.attachPath {
			return nil // already mounted
		}
		if err := os.Remove(m.mountPath); err != nil {
			return fmt.Errorf("failed to replace stale mount: %w", err)
		}
	}
	if err := os.Symlink(m.attachPath, m.mountPath); err != nil {
		return fmt.Errorf("failed to mount storage: %w", err)
	}
	return nil
}
