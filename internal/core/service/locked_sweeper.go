package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/99minutos/apitoken-system/internal/core/domain"
	"github.com/99minutos/apitoken-system/internal/core/ports"
)

// LockedSweeper allows one sweep per HD index at a time, inside this process
// and, when a locker is set, across processes.
type LockedSweeper struct {
	inner  ports.Sweeper
	locker ports.SweepLocker

	mu       sync.Mutex
	inflight map[int]struct{}
}

func NewLockedSweeper(inner ports.Sweeper, locker ports.SweepLocker) *LockedSweeper {
	return &LockedSweeper{inner: inner, locker: locker, inflight: make(map[int]struct{})}
}

func (s *LockedSweeper) Queue(ctx context.Context, hdIndex int) (string, error) {
	if !s.enter(hdIndex) {
		return "", fmt.Errorf("%w: %d", domain.ErrSweepInProgress, hdIndex)
	}
	defer s.leave(hdIndex)

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, hdIndex)
		if err != nil {
			return "", err
		}
		defer release()
	}

	return s.inner.Queue(ctx, hdIndex)
}

func (s *LockedSweeper) enter(hdIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[hdIndex]; busy {
		return false
	}
	s.inflight[hdIndex] = struct{}{}
	return true
}

func (s *LockedSweeper) leave(hdIndex int) {
	s.mu.Lock()
	delete(s.inflight, hdIndex)
	s.mu.Unlock()
}
