package service

import (
	"context"
	"errors"
	"testing"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

type blockingSweeper struct {
	started chan int
	release chan struct{}
}

func (s *blockingSweeper) Queue(_ context.Context, hdIndex int) (string, error) {
	s.started <- hdIndex
	<-s.release
	return "txid", nil
}

type stubLocker struct {
	err      error
	released int
}

func (l *stubLocker) Acquire(context.Context, int) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released++ }, nil
}

func TestLockedSweeper_RejectsConcurrentSameIndex(t *testing.T) {
	inner := &blockingSweeper{started: make(chan int, 2), release: make(chan struct{})}
	locker := &stubLocker{}
	s := NewLockedSweeper(inner, locker)

	done := make(chan error, 1)
	go func() {
		_, err := s.Queue(context.Background(), 1)
		done <- err
	}()
	<-inner.started

	if _, err := s.Queue(context.Background(), 1); !errors.Is(err, domain.ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}

	close(inner.release)
	if err := <-done; err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	if locker.released != 1 {
		t.Fatalf("expected lock release, got %d", locker.released)
	}

	if _, err := s.Queue(context.Background(), 1); err != nil {
		t.Fatalf("index must be free again: %v", err)
	}
}

func TestLockedSweeper_DifferentIndexesRunTogether(t *testing.T) {
	inner := &blockingSweeper{started: make(chan int, 2), release: make(chan struct{})}
	s := NewLockedSweeper(inner, nil)

	done := make(chan error, 2)
	for _, idx := range []int{1, 2} {
		go func(i int) {
			_, err := s.Queue(context.Background(), i)
			done <- err
		}(idx)
	}
	<-inner.started
	<-inner.started
	close(inner.release)

	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
	}
}

func TestLockedSweeper_DistributedLockHeld(t *testing.T) {
	inner := &blockingSweeper{started: make(chan int, 1), release: make(chan struct{})}
	s := NewLockedSweeper(inner, &stubLocker{err: domain.ErrSweepInProgress})

	if _, err := s.Queue(context.Background(), 1); !errors.Is(err, domain.ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}
	select {
	case <-inner.started:
		t.Fatalf("inner sweeper must not run without the lock")
	default:
	}
}
