package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/orchard/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed worker can hold a test's distributed lock.
const DefaultLockTTL = 5 * time.Minute

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// locks serializes runs per key. Entries are reference counted and dropped when unused.
type locks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry

	locker ports.DistributedLocker
	ttl    time.Duration
	logger *slog.Logger
}

func newLocks(logger *slog.Logger) *locks {
	return &locks{entries: make(map[string]*lockEntry), ttl: DefaultLockTTL, logger: logger}
}

// acquire gets or creates an entry and increments its reference count.
// The caller must lock entry.mu and call release(key) after unlocking it.
func (l *locks) acquire(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (l *locks) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.entries, key)
	}
}

// with runs fn while holding the local lock for key and, when configured, the distributed one.
func (l *locks) with(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := l.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		l.release(key)
	}()

	if l.locker != nil {
		unlock, err := l.locker.Lock(ctx, "orchard:test:"+key, l.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				l.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"test", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
