package artifacts

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Lease serializes writers for a single (phase, fingerprint) key across
// processes. Different keys never contend with each other.
type Lease struct {
	lock *flock.Flock
}

// AcquireLease blocks until the per-key lock is held or ctx is done.
func (s *Store) AcquireLease(ctx context.Context, phase, fp string) (*Lease, error) {
	name := fmt.Sprintf("%s-%s.lock", sanitizeName(phase), fp)
	lock := flock.New(filepath.Join(s.root, "leases", name))
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("artifact lease %s/%s: %w", phase, fp, err)
	}
	if !locked {
		return nil, fmt.Errorf("artifact lease %s/%s: not acquired", phase, fp)
	}
	return &Lease{lock: lock}, nil
}

// Release frees the lease. Safe to call on a nil lease.
func (l *Lease) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
