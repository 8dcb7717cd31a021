package ratelimit

import (
	"context"
	"sync"

	"github.com/ava-labs/privacy-channel/internal/ids"
)

// PerAccount lazily creates one Throttler per account, all built from
// the same factory, so Operator.Transact can throttle submissions
// per-account instead of globally.
type PerAccount struct {
	mu       sync.Mutex
	factory  func() Throttler
	accounts map[ids.ShortID]Throttler
}

// NewPerAccount builds a PerAccount limiter whose per-account
// Throttlers are constructed by factory on first use.
func NewPerAccount(factory func() Throttler) *PerAccount {
	return &PerAccount{
		factory:  factory,
		accounts: make(map[ids.ShortID]Throttler),
	}
}

// Acquire blocks until account may submit another transact, or ctx is
// cancelled.
func (p *PerAccount) Acquire(ctx context.Context, account ids.ShortID) error {
	p.mu.Lock()
	t, ok := p.accounts[account]
	if !ok {
		t = p.factory()
		p.accounts[account] = t
	}
	p.mu.Unlock()
	return t.Acquire(ctx)
}
