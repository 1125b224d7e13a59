package idempotency

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Guard runs create at most once per (scope, key). A replayed key returns the remembered
// value with replayed=true. A failed create releases the key so the client may retry.
func Guard(ctx context.Context, s Store, scope, key string, create func(context.Context) (string, error)) (value string, replayed bool, err error) {
	if s == nil || key == "" {
		value, err = create(ctx)
		return value, false, err
	}

	if v, ok, err := s.Recall(ctx, scope, key); err != nil {
		return "", false, fmt.Errorf("recall idempotency key: %w", err)
	} else if ok {
		return v, true, nil
	}

	locked, err := s.TryLock(ctx, scope, key)
	if err != nil {
		return "", false, fmt.Errorf("lock idempotency key: %w", err)
	}
	if !locked {
		return "", false, ErrInProgress
	}

	value, err = create(ctx)
	if err != nil {
		_ = s.Unlock(context.WithoutCancel(ctx), scope, key)
		return "", false, err
	}
	// The resource exists, so a failed Remember must not fail the request. The
	// lock stays until its TTL so a retry cannot create a second one meanwhile.
	if err := s.Remember(context.WithoutCancel(ctx), scope, key, value); err != nil {
		zap.L().Warn("remember idempotency key",
			zap.String("scope", scope), zap.String("key", key), zap.String("value", value), zap.Error(err))
	}
	return value, false, nil
}
