package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/ava-labs/privacy-channel/internal/channel/operator"
	"github.com/ava-labs/privacy-channel/internal/ids"
	"github.com/ava-labs/privacy-channel/internal/ratelimit"
	"github.com/ava-labs/privacy-channel/internal/reqid"
)

// Service implements the §6 public entry points as gorilla/rpc
// methods: every method takes (r *http.Request, args, reply) and
// returns error, the signature gorilla/rpc's json codec dispatches to.
type Service struct {
	Op  *operator.Operator
	Hub *Hub

	// transact defaults to Op.Transact; callers that want every RPC
	// call spanned (internal/telemetry.TracedOperator) can override it
	// with NewTracedService without Service needing to import telemetry.
	transact func(ctx context.Context, opn operator.ChannelOperation, ai operator.AuthInput) error

	// limiter, if set, throttles Transact per submitting account so a
	// single account cannot flood the channel (spec EXPANSION B.7).
	limiter *ratelimit.PerAccount
}

// WithRateLimit attaches limiter to s, gating every future Transact
// call on one Acquire per submitting account.
func (s *Service) WithRateLimit(limiter *ratelimit.PerAccount) *Service {
	s.limiter = limiter
	return s
}

// submitterAccount identifies the account a Transact request is
// throttled under: the address its first spend input's owner key
// derives to, the same hash-down-to-ShortID scheme legAccountAddress
// and genesis.ProviderAddress use. Requests with no spend input (pure
// deposits) are throttled under the zero address instead.
func submitterAccount(req TransactRequest) ids.ShortID {
	if len(req.Spend) == 0 {
		return ids.ShortID{}
	}
	key, err := keyFromDTO(req.Spend[0].Key)
	if err != nil {
		return ids.ShortID{}
	}
	sum := sha256.Sum256(key.Key)
	var sid ids.ShortID
	copy(sid[:], sum[:ids.ShortIDLen])
	return sid
}

// NewService wires op (and its EmitBundleEvents-gated hub, if any)
// into a Service ready to register with a gorilla/rpc server.
func NewService(op *operator.Operator, hub *Hub) *Service {
	return &Service{Op: op, Hub: hub, transact: op.Transact}
}

// Transacter is the subset of *operator.Operator (or a wrapper around
// it, such as telemetry.TracedOperator) NewTracedService needs.
type Transacter interface {
	Transact(ctx context.Context, opn operator.ChannelOperation, ai operator.AuthInput) error
}

// NewTracedService is NewService, but every Transact RPC call runs
// through t instead of op.Transact directly — wire in a
// telemetry.TracedOperator here to get a span per RPC call.
func NewTracedService(op *operator.Operator, t Transacter, hub *Hub) *Service {
	return &Service{Op: op, Hub: hub, transact: t.Transact}
}

// TransactArgs/TransactReply are TransactRequest/TransactResponse
// under the names gorilla/rpc's reflection-based dispatch expects
// (Args/Reply suffix is convention, not required).
type TransactArgs = TransactRequest
type TransactReply = TransactResponse

// Transact runs one ChannelOperator.Transact call end to end (spec §6
// "transact"), then — if the operator's config enables it — publishes
// a bundle-applied event to the websocket feed (EXPANSION C).
func (s *Service) Transact(r *http.Request, args *TransactArgs, reply *TransactReply) error {
	if s.limiter != nil {
		if err := s.limiter.Acquire(r.Context(), submitterAccount(*args)); err != nil {
			return err
		}
	}

	op, err := toChannelOperation(*args)
	if err != nil {
		return err
	}
	ai, err := toAuthInput(*args)
	if err != nil {
		return err
	}

	corrID := reqid.New()
	ctx := reqid.WithID(r.Context(), corrID)
	if err := s.transact(ctx, op, ai); err != nil {
		return err
	}
	reply.OK = true
	reply.CorrelationID = corrID

	if s.Hub != nil {
		s.Hub.Publish(Event{Type: "bundle_applied", Digest: args.Digest, CorrelationID: corrID})
	}
	return nil
}

// UtxoBalanceArgs/UtxoBalanceReply back "utxo_balance" (spec §6).
type UtxoBalanceArgs struct {
	Key KeyDTO `json:"key"`
}

type UtxoBalanceReply struct {
	Balance int64 `json:"balance"`
}

func (s *Service) UtxoBalance(r *http.Request, args *UtxoBalanceArgs, reply *UtxoBalanceReply) error {
	key, err := keyFromDTO(args.Key)
	if err != nil {
		return err
	}
	bal, err := s.Op.Bundle.Store.Balance(key)
	if err != nil {
		return err
	}
	reply.Balance = bal
	return nil
}

// UtxoBalancesArgs/UtxoBalancesReply back the EXPANSION C batch
// accessor: one round trip for many keys instead of N client calls.
type UtxoBalancesArgs struct {
	Keys []KeyDTO `json:"keys"`
}

type UtxoBalancesReply struct {
	Balances []int64 `json:"balances"`
}

func (s *Service) UtxoBalances(r *http.Request, args *UtxoBalancesArgs, reply *UtxoBalancesReply) error {
	balances := make([]int64, len(args.Keys))
	for i, k := range args.Keys {
		key, err := keyFromDTO(k)
		if err != nil {
			return err
		}
		bal, err := s.Op.Bundle.Store.Balance(key)
		if err != nil {
			return err
		}
		balances[i] = bal
	}
	reply.Balances = balances
	return nil
}

// IsProviderArgs/IsProviderReply back "is_provider" (spec §6).
type IsProviderArgs struct {
	Address string `json:"address"` // hex ShortID
}

type IsProviderReply struct {
	IsProvider bool `json:"isProvider"`
}

func (s *Service) IsProvider(r *http.Request, args *IsProviderArgs, reply *IsProviderReply) error {
	addr, err := ids.ShortFromHex(args.Address)
	if err != nil {
		return err
	}
	reply.IsProvider = s.Op.Registry.IsProvider(addr)
	return nil
}

// SupplyArgs/SupplyReply back "supply" (spec §3).
type SupplyArgs struct{}

type SupplyReply struct {
	Supply int64 `json:"supply"`
}

func (s *Service) Supply(r *http.Request, args *SupplyArgs, reply *SupplyReply) error {
	supply, err := s.Op.Supply()
	if err != nil {
		return err
	}
	reply.Supply = supply
	return nil
}

// AssetArgs/AssetReply back "asset" (spec §6).
type AssetArgs struct{}

type AssetReply struct {
	Address string `json:"address"` // hex ShortID
}

func (s *Service) Asset(r *http.Request, args *AssetArgs, reply *AssetReply) error {
	reply.Address = hex.EncodeToString(s.Op.AssetAddr[:])
	return nil
}

// AdminArgs/AdminReply back "admin" (spec §6).
type AdminArgs struct{}

type AdminReply struct {
	Address string `json:"address"` // hex ShortID
}

func (s *Service) Admin(r *http.Request, args *AdminArgs, reply *AdminReply) error {
	reply.Address = hex.EncodeToString(s.Op.AdminAddr[:])
	return nil
}

// SetAdminArgs/SetAdminReply back "set_admin" (spec §6, admin-only).
// Caller is the address presented as the current admin; the host's
// own require-auth-for-address primitive (spec §6) is what would
// normally attest that the request really originates from it, and is
// consumed rather than reimplemented here.
type SetAdminArgs struct {
	Caller  string `json:"caller"`  // hex ShortID, must equal the current admin
	Address string `json:"address"` // hex ShortID, the new admin
}

type SetAdminReply struct {
	OK bool `json:"ok"`
}

func (s *Service) SetAdmin(r *http.Request, args *SetAdminArgs, reply *SetAdminReply) error {
	caller, err := ids.ShortFromHex(args.Caller)
	if err != nil {
		return err
	}
	if err := s.Op.RequireAdmin(caller); err != nil {
		return err
	}
	addr, err := ids.ShortFromHex(args.Address)
	if err != nil {
		return err
	}
	s.Op.AdminAddr = addr
	reply.OK = true
	return nil
}

// providerAdmin is the mutating half of auth.ProviderRegistry that
// add_provider/remove_provider need; s.Op.Registry is declared as the
// narrower auth.ProviderLookup so AuthEngine.Check never depends on
// mutation, so this is recovered with a type assertion at the edge.
type providerAdmin interface {
	Register(addr ids.ShortID) error
	Deregister(addr ids.ShortID) error
}

func (s *Service) providerAdmin() (providerAdmin, error) {
	pa, ok := s.Op.Registry.(providerAdmin)
	if !ok {
		return nil, fmt.Errorf("api: provider registry does not support add_provider/remove_provider")
	}
	return pa, nil
}

// AddProviderArgs/AddProviderReply back "add_provider" (spec §6,
// admin-only).
type AddProviderArgs struct {
	Caller  string `json:"caller"`  // hex ShortID, must equal the admin
	Address string `json:"address"` // hex ShortID, the provider to register
}

type AddProviderReply struct {
	OK bool `json:"ok"`
}

func (s *Service) AddProvider(r *http.Request, args *AddProviderArgs, reply *AddProviderReply) error {
	caller, err := ids.ShortFromHex(args.Caller)
	if err != nil {
		return err
	}
	if err := s.Op.RequireAdmin(caller); err != nil {
		return err
	}
	addr, err := ids.ShortFromHex(args.Address)
	if err != nil {
		return err
	}
	pa, err := s.providerAdmin()
	if err != nil {
		return err
	}
	if err := pa.Register(addr); err != nil {
		return err
	}
	reply.OK = true
	return nil
}

// UnspentEntryDTO is the wire form of one store.UnspentEntry.
type UnspentEntryDTO struct {
	Key    KeyDTO `json:"key"`
	Amount int64  `json:"amount"`
}

// ListUnspentArgs/ListUnspentReply back the admin "list unspent
// UTXOs" debug endpoint (SPEC_FULL.md EXPANSION B.11, admin-only): an
// operational feature the original contract interface had no room
// for, served from the in-memory google/btree index bundle.Engine
// maintains rather than a full KV scan.
type ListUnspentArgs struct {
	Caller string `json:"caller"` // hex ShortID, must equal the admin
	Limit  int    `json:"limit"`
}

type ListUnspentReply struct {
	Entries []UnspentEntryDTO `json:"entries"`
}

func (s *Service) ListUnspent(r *http.Request, args *ListUnspentArgs, reply *ListUnspentReply) error {
	caller, err := ids.ShortFromHex(args.Caller)
	if err != nil {
		return err
	}
	if err := s.Op.RequireAdmin(caller); err != nil {
		return err
	}
	if s.Op.Bundle.Index == nil {
		return fmt.Errorf("api: unspent index is not enabled on this node")
	}
	limit := args.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	entries := s.Op.Bundle.Index.List(limit)
	reply.Entries = make([]UnspentEntryDTO, len(entries))
	for i, e := range entries {
		reply.Entries[i] = UnspentEntryDTO{Key: keyToDTO(e.Key), Amount: e.Amount}
	}
	return nil
}

// RemoveProviderArgs/RemoveProviderReply back "remove_provider" (spec
// §6, admin-only). ProviderRegistry.Deregister itself enforces the
// minimum-provider floor (EXPANSION C).
type RemoveProviderArgs struct {
	Caller  string `json:"caller"`  // hex ShortID, must equal the admin
	Address string `json:"address"` // hex ShortID, the provider to remove
}

type RemoveProviderReply struct {
	OK bool `json:"ok"`
}

func (s *Service) RemoveProvider(r *http.Request, args *RemoveProviderArgs, reply *RemoveProviderReply) error {
	caller, err := ids.ShortFromHex(args.Caller)
	if err != nil {
		return err
	}
	if err := s.Op.RequireAdmin(caller); err != nil {
		return err
	}
	addr, err := ids.ShortFromHex(args.Address)
	if err != nil {
		return err
	}
	pa, err := s.providerAdmin()
	if err != nil {
		return err
	}
	if err := pa.Deregister(addr); err != nil {
		return err
	}
	reply.OK = true
	return nil
}
