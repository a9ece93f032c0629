package engine

import (
	"context"
	"time"

	"github.com/hassansecfix/policy-edit-sub000/pkg/log"
)

// 🧩 Strategy is one attempt in an ordered fallback cascade. Attempt
// reports whether it succeeded; an error is treated as "this strategy
// cannot serve" and the cascade moves on.
type Strategy struct {
	Name    string
	Attempt func(ctx context.Context) (bool, error)
}

// 🎯 RunCascade walks strategies in order until one succeeds, narrating
// every attempt. Returns the winning strategy's name, or "" when the
// whole cascade came up empty. Only context cancellation aborts early.
func RunCascade(ctx context.Context, console *log.Logger, group string, strategies []Strategy) (string, error) {
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ok, err := s.Attempt(ctx)
		detail := ""
		if err != nil {
			ok = false
			detail = err.Error()
		}
		if console != nil {
			console.LogStrategyAttempt(group, s.Name, ok, detail)
		}
		if ok {
			return s.Name, nil
		}
	}
	return "", nil
}

// sleep waits for d unless the context is cancelled first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
