package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/core/ports"
)

// overlapDetector fails if two top-ups for the same user run at once.
type overlapDetector struct {
	mu       sync.Mutex
	running  map[string]bool
	overlaps int32
	calls    int32
	err      error
}

func (s *overlapDetector) Topup(_ context.Context, userID string) (*ports.TopupResult, error) {
	s.mu.Lock()
	if s.running[userID] {
		atomic.AddInt32(&s.overlaps, 1)
	}
	s.running[userID] = true
	s.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&s.calls, 1)

	s.mu.Lock()
	s.running[userID] = false
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &ports.TopupResult{Credit: decimal.NewFromInt(1)}, nil
}

func TestDispatcher_SerialisesPerUser(t *testing.T) {
	svc := &overlapDetector{running: map[string]bool{}}
	d := NewDispatcher(4, 0, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, user := range []string{"alice", "bob"} {
			wg.Add(1)
			go func(u string) {
				defer wg.Done()
				if _, err := d.Topup(context.Background(), u); err != nil {
					t.Errorf("Topup(%s): %v", u, err)
				}
			}(user)
		}
	}
	wg.Wait()

	if n := atomic.LoadInt32(&svc.overlaps); n != 0 {
		t.Fatalf("expected no overlapping top-ups per user, got %d", n)
	}
	if n := atomic.LoadInt32(&svc.calls); n != 20 {
		t.Fatalf("expected 20 calls, got %d", n)
	}
}

func TestDispatcher_PropagatesResultAndError(t *testing.T) {
	boom := errors.New("boom")
	svc := &overlapDetector{running: map[string]bool{}, err: boom}
	d := NewDispatcher(1, 0, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	if _, err := d.Topup(context.Background(), "carol"); !errors.Is(err, boom) {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestDispatcher_StoppedOrCancelled(t *testing.T) {
	svc := &overlapDetector{running: map[string]bool{}}
	d := NewDispatcher(1, 1, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	callerCtx, callerCancel := context.WithTimeout(context.Background(), time.Second)
	defer callerCancel()
	_, err := d.Topup(callerCtx, "dave")
	if !errors.Is(err, ErrStopped) && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestDispatcher_ShardIsStable(t *testing.T) {
	d := NewDispatcher(8, 0, &overlapDetector{}, zerolog.Nop())
	first := d.shardIndex("user-42")
	for i := 0; i < 5; i++ {
		if got := d.shardIndex("user-42"); got != first {
			t.Fatalf("shard changed: %d != %d", got, first)
		}
	}
}
