// Package ratelimit implements a fixed-window request counter keyed by
// (action, actor). Fixed windows allow a burst of up to 2*max across a
// window boundary; that is accepted for simplicity, so policies with strict
// burst requirements should pick conservative window sizes.
package ratelimit

import (
	"context"
	"log"
	"time"
)

// Result is the outcome of a single window check. The limiter never errors
// toward the caller; denial is expressed through Allowed so the deny
// response stays a caller decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store counts requests per key within a fixed window. Implementations must
// make the read-check-increment sequence atomic per key.
type Store interface {
	Check(ctx context.Context, key string, window time.Duration, max int) (Result, error)
}

// Policy names a window size and request budget for one action.
type Policy struct {
	Window time.Duration
	Max    int
}

// DefaultPolicies is the policy table for caller-facing mutating operations.
// Unknown actions fall back to the "default" entry.
var DefaultPolicies = map[string]Policy{
	"vote":           {Window: time.Minute, Max: 30},
	"post-create":    {Window: time.Hour, Max: 5},
	"comment-create": {Window: time.Minute, Max: 20},
	"search":         {Window: time.Minute, Max: 30},
	"default":        {Window: time.Minute, Max: 60},
}

// Limiter checks named policies against an injected store. Every distinct
// (action, actor) pair is an independent key; there is no global cap.
type Limiter struct {
	store    Store
	policies map[string]Policy
}

func New(store Store, policies map[string]Policy) *Limiter {
	if policies == nil {
		policies = DefaultPolicies
	}
	return &Limiter{store: store, policies: policies}
}

// Check applies the named policy to one actor. Store failures fail open:
// a broken counter store should degrade limiting, not take requests down.
func (l *Limiter) Check(ctx context.Context, action, actor string) Result {
	policy, ok := l.policies[action]
	if !ok {
		policy = l.policies["default"]
	}

	res, err := l.store.Check(ctx, action+":"+actor, policy.Window, policy.Max)
	if err != nil {
		log.Printf("rate limit store error, failing open: %v", err)
		return Result{Allowed: true, Remaining: policy.Max, ResetAt: time.Now().Add(policy.Window)}
	}
	return res
}
