// Package externalasset models the bridged fungible-token contract
// consumed (not specified) by the core (spec §6: "External asset
// contract (consumed): transfer(from, to, amount), balance(addr),
// mint(to, amount)"). It provides an in-memory reference
// implementation for tests and local runs; a production deployment
// would instead call out to the real token contract over the host's
// cross-contract invocation mechanism.
package externalasset

import (
	"context"
	"fmt"
	"sync"

	"github.com/ava-labs/privacy-channel/internal/ids"
)

// Asset is the standard fungible-token surface ChannelOperator bridges
// value through.
type Asset interface {
	Transfer(ctx context.Context, from, to ids.ShortID, amount int64) error
	Balance(ctx context.Context, addr ids.ShortID) (int64, error)
	Mint(ctx context.Context, to ids.ShortID, amount int64) error
}

// ErrInsufficientBalance is returned by InMemoryAsset.Transfer when
// from's balance is short; it carries no stable spec error code since
// the asset contract is an external collaborator (spec §1, Out of Scope).
type ErrInsufficientBalance struct {
	Account ids.ShortID
	Have    int64
	Want    int64
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("account %s: balance %d insufficient for transfer of %d", e.Account, e.Have, e.Want)
}

// InMemoryAsset is a reference token ledger keyed by ShortID, used by
// end-to-end tests that need a real balance-moving asset rather than a
// mock (spec §8 scenarios S2-S4 reference a token balance directly).
type InMemoryAsset struct {
	mu       sync.Mutex
	balances map[ids.ShortID]int64
}

func NewInMemoryAsset() *InMemoryAsset {
	return &InMemoryAsset{balances: make(map[ids.ShortID]int64)}
}

func (a *InMemoryAsset) Transfer(_ context.Context, from, to ids.ShortID, amount int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balances[from] < amount {
		return &ErrInsufficientBalance{Account: from, Have: a.balances[from], Want: amount}
	}
	a.balances[from] -= amount
	a.balances[to] += amount
	return nil
}

func (a *InMemoryAsset) Balance(_ context.Context, addr ids.ShortID) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balances[addr], nil
}

func (a *InMemoryAsset) Mint(_ context.Context, to ids.ShortID, amount int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[to] += amount
	return nil
}
