package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"roomstay/internal/app/commands"
	"roomstay/internal/app/policies"
	"roomstay/internal/domain/shared/apperr"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // should match the handler result type
}

// IdempotencyRecord is the remembered outcome of one keyed command. A failed
// command is replayed with the same kind and message.
type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	ErrKind    apperr.Kind
	Error      string
	OccurredAt time.Time
	ExpiresAt  time.Time
}

func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

type IdempotencyStore interface {
	// Get reports found=false for missing or expired records.
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

type IdempotencyOptions struct {
	Codec ResultCodec
	TTL   time.Duration
	// Locker, when set, makes concurrent requests with the same key wait for
	// the first one instead of executing twice.
	Locker policies.Locker
}

func Idempotency(store IdempotencyStore, opts IdempotencyOptions) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	codec := opts.Codec
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			key := scopedKey(cmd, idCmd.IdempotencyKey())
			if opts.Locker != nil {
				release, err := opts.Locker.Acquire(ctx, "idem:"+key)
				if err != nil {
					return nil, err
				}
				defer release()
			}
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return replay(rec, idCmd, codec)
			}

			result, err := nextFn(ctx, cmd)
			now := time.Now().UTC()
			record := IdempotencyRecord{Key: key, OccurredAt: now}
			if opts.TTL > 0 {
				record.ExpiresAt = now.Add(opts.TTL)
			}
			if err != nil {
				// Only deterministic rejections are remembered; operational
				// failures stay retryable under the same key.
				if !apperr.Expected(err) {
					return nil, err
				}
				record.ErrKind = apperr.KindOf(err)
				record.Error = err.Error()
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

// scopedKey keeps one caller's key from replaying another caller's result.
func scopedKey(cmd commands.Command, key string) string {
	scope := cmd.Key()
	if g, ok := cmd.(Guarded); ok {
		scope += ":" + g.Actor().ID
	}
	return scope + ":" + key
}

func replay(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	if rec.Error != "" {
		kind := rec.ErrKind
		if kind == "" {
			kind = apperr.Internal
		}
		return nil, apperr.New(kind, rec.Error)
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return normalizePrototype(proto), nil
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
