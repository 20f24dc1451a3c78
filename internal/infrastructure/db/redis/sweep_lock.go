package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

const defaultLockTTL = 2 * time.Minute

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock taken over by another process is never removed.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SweepLock implements ports.SweepLocker with SET NX PX.
// Key format: sweeplock:<hd_index>
type SweepLock struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewSweepLock(client *redis.Client, ttl time.Duration, log zerolog.Logger) *SweepLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &SweepLock{client: client, ttl: ttl, log: log}
}

// Acquire takes the lock for hdIndex or fails with domain.ErrSweepInProgress.
func (l *SweepLock) Acquire(ctx context.Context, hdIndex int) (func(), error) {
	key := l.key(hdIndex)
	token := lockToken()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("sweep lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrSweepInProgress, hdIndex)
	}

	release := func() {
		// The caller's context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("sweep lock release failed, waiting for ttl")
		}
	}
	return release, nil
}

func (l *SweepLock) key(hdIndex int) string {
	return fmt.Sprintf("sweeplock:%d", hdIndex)
}

func lockToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
