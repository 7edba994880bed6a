package service

import (
	"context"
	"errors"
	"time"

	"github.com/eventra/registration-service/internal/model"
	"github.com/eventra/registration-service/internal/repository"
)

// DefaultLockWait bounds how long a registration attempt may wait for an
// event's exclusive section before it is abandoned.
const DefaultLockWait = 5 * time.Second

// CapacityGuard serializes registration attempts per event so the count of
// CONFIRMED registrations can never exceed capacity. Attempts on different
// events never contend. Capacity rejections made inside the section are
// terminal; the guard never retries on the caller's behalf.
type CapacityGuard struct {
	locker  EventLocker
	maxWait time.Duration
}

// NewCapacityGuard constructs a guard. A non-positive maxWait falls back to
// DefaultLockWait.
func NewCapacityGuard(locker EventLocker, maxWait time.Duration) *CapacityGuard {
	if maxWait <= 0 {
		maxWait = DefaultLockWait
	}
	return &CapacityGuard{locker: locker, maxWait: maxWait}
}

// WithExclusiveEventAccess runs fn while holding exclusive access to the
// event's registration state. fn must (re)read counts through the section's
// view, decide, and write; the lock is released only after the decision is
// durably committed. Waiting longer than the configured bound surfaces
// model.ErrContention: the attempt is abandoned, never partially applied.
func (g *CapacityGuard) WithExclusiveEventAccess(ctx context.Context, eventID string, fn func(tx repository.EventTx) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	err := g.locker.WithEventLock(ctx, eventID, fn)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return model.ErrContention
	}
	return err
}
