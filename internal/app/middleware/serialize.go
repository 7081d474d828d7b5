package middleware

import (
	"context"
	"sort"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/policies"
)

// SerializedCommand names the keys that must not be worked on concurrently,
// e.g. "room:<id>".
type SerializedCommand interface {
	LockKeys() []string
}

// Serialize holds every lock a command names for the whole dispatch. Keys
// are taken in sorted order so two commands never wait on each other.
func Serialize(locker policies.Locker) CommandMiddleware {
	if locker == nil {
		panic("middleware: locker required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			sc, ok := cmd.(SerializedCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			keys := dedupeSorted(sc.LockKeys())
			for _, key := range keys {
				release, err := locker.Acquire(ctx, key)
				if err != nil {
					return nil, err
				}
				defer release()
			}
			return nextFn(ctx, cmd)
		})
	}
}

func dedupeSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
