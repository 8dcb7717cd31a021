// Package ratelimit adapts network/throttler.go's Throttler interface
// and backoff policies wholesale, retargeted from "P2P connection
// attempts" to "transact submissions per account", so a single account
// cannot flood Operator.Transact.
package ratelimit

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

var errAcquireCancelled = errors.New("ratelimit: acquire cancelled")

type backoffPolicy interface {
	backoff(attempt int)
}

type staticBackoffPolicy struct {
	backoffDuration time.Duration
}

func (p staticBackoffPolicy) backoff(_ int) {
	time.Sleep(p.backoffDuration)
}

type incrementalBackoffPolicy struct {
	backoffDuration   time.Duration
	incrementDuration time.Duration
}

func (n incrementalBackoffPolicy) getBackoffDuration(attempt int) time.Duration {
	incrementMillis := n.incrementDuration.Milliseconds()
	backoffMillis := n.backoffDuration.Milliseconds()
	return time.Duration(backoffMillis+incrementMillis*int64(attempt)) * time.Millisecond
}

func (n incrementalBackoffPolicy) backoff(attempt int) {
	time.Sleep(n.getBackoffDuration(attempt))
}

type randomisedBackoffPolicy struct {
	minDuration time.Duration
	maxDuration time.Duration
}

func (r randomisedBackoffPolicy) backoff(_ int) {
	randMillis := rand.Float64() * float64(r.maxDuration-r.minDuration)
	time.Sleep(r.minDuration + time.Duration(randMillis))
}

// Throttler gates one caller's submission rate.
type Throttler interface {
	// Acquire blocks until the caller may proceed, or ctx is cancelled.
	Acquire(ctx context.Context) error
}

type waitingThrottler struct {
	limiter *rate.Limiter
}

func (w waitingThrottler) Acquire(ctx context.Context) error {
	return w.limiter.Wait(ctx)
}

type backoffThrottler struct {
	limiter *rate.Limiter
	policy  backoffPolicy
}

func (t backoffThrottler) Acquire(ctx context.Context) error {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return errAcquireCancelled
		default:
		}
		if t.limiter.Allow() {
			return nil
		}
		t.policy.backoff(attempt)
		attempt++
	}
}

type noThrottler struct{}

func (noThrottler) Acquire(context.Context) error { return nil }

func NewWaitingThrottler(perSecond int) Throttler {
	return waitingThrottler{limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond)}
}

func NewNoThrottler() Throttler { return noThrottler{} }

func NewStaticBackoffThrottler(perSecond int, backoffDuration time.Duration) Throttler {
	return backoffThrottler{
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		policy:  staticBackoffPolicy{backoffDuration: backoffDuration},
	}
}

func NewIncrementalBackoffThrottler(perSecond int, backoffDuration, incrementDuration time.Duration) Throttler {
	return backoffThrottler{
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		policy:  incrementalBackoffPolicy{backoffDuration: backoffDuration, incrementDuration: incrementDuration},
	}
}

func NewRandomisedBackoffThrottler(perSecond int, minDuration, maxDuration time.Duration) Throttler {
	return backoffThrottler{
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		policy:  randomisedBackoffPolicy{minDuration: minDuration, maxDuration: maxDuration},
	}
}
