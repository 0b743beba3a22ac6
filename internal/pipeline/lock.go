package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrShardBusy is returned when another process holds the shard lock.
var ErrShardBusy = errors.New("shard is already being processed")

// ShardLock guards one claim offset across processes.
type ShardLock struct {
	path string
	lock *flock.Flock
}

// ShardLockPath returns the lock file used for offset.
func ShardLockPath(dir string, offset int) string {
	return filepath.Join(dir, fmt.Sprintf("shard-%d.lock", offset))
}

// AcquireShardLock takes the lock for offset without blocking.
func AcquireShardLock(dir string, offset int) (*ShardLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := ShardLockPath(dir, offset)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire shard lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: offset %d (%s)", ErrShardBusy, offset, path)
	}
	return &ShardLock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *ShardLock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks the shard.
func (l *ShardLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
