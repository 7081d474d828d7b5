package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"roomstay/internal/app/policies"
)

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements a single-instance Redis lock (SET NX PX with a random
// token) so several API processes serialize on the same keys.
type Locker struct {
	Client *goredis.Client
	TTL    time.Duration
	Prefix string
	Poll   time.Duration
	Logger *slog.Logger
}

func NewClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr, DB: 0})
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	name := l.Prefix + "lock:" + key
	token := uuid.NewString()
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	poll := l.Poll
	if poll <= 0 {
		poll = 25 * time.Millisecond
	}
	for {
		ok, err := l.Client.SetNX(ctx, name, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, lockCtxErr(ctx)
			}
			return nil, err
		}
		if ok {
			break
		}
		timer := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lockCtxErr(ctx)
		case <-timer.C:
		}
	}
	return func() {
		// Release must not depend on a request context that may be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.Client, []string{name}, token).Err(); err != nil && l.Logger != nil {
			l.Logger.Warn("redis lock release failed", "key", name, "error", err)
		}
	}, nil
}

func lockCtxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return policies.ErrLockTimeout
	}
	return ctx.Err()
}

var _ policies.Locker = (*Locker)(nil)
