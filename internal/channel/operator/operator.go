package operator

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/ava-labs/privacy-channel/internal/channel"
	"github.com/ava-labs/privacy-channel/internal/channel/auth"
	"github.com/ava-labs/privacy-channel/internal/channel/bundle"
	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/externalasset"
	"github.com/ava-labs/privacy-channel/internal/ids"
	"github.com/ava-labs/privacy-channel/internal/storage"
)

// AuthInput carries the host-side authorization material a Transact
// call is invoked with: the transaction digest providers sign, the
// submitted signature set, any pre-existing contexts the host already
// built, and the current ledger height for expiry checks.
type AuthInput struct {
	Digest        []byte
	Signatures    auth.Signatures
	Contexts      []auth.Context
	CurrentLedger uint32
}

// Operator wires together BundleEngine, Engine (auth), ProviderRegistry
// and the external asset for one channel instance.
type Operator struct {
	ContractID ids.ShortID
	Holding    ids.ShortID

	Bundle     bundle.Engine
	AuthEngine auth.Engine
	Registry   auth.ProviderLookup
	Asset      externalasset.Asset

	// AdminAddr and AssetAddr back the spec §6 admin()/asset() reads
	// and the admin-only mutators; the caller (cmd/channeld) sets them
	// after New, since they are bootstrap/config data rather than
	// storage the Operator owns itself.
	AdminAddr ids.ShortID
	AssetAddr ids.ShortID

	supplyKV storage.KV
	supplyK  []byte
}

func New(contractID, holding ids.ShortID, bundleEngine bundle.Engine, authEngine auth.Engine, registry auth.ProviderLookup, asset externalasset.Asset, supplyKV storage.KV, supplyKey []byte) *Operator {
	return &Operator{
		ContractID: contractID,
		Holding:    holding,
		Bundle:     bundleEngine,
		AuthEngine: authEngine,
		Registry:   registry,
		Asset:      asset,
		supplyKV:   supplyKV,
		supplyK:    supplyKey,
	}
}

// RequireAdmin implements spec §6's admin-only gate for set_admin,
// add_provider and remove_provider. The host's native require-auth-
// for-address primitive is consumed, not specified (spec §6); this
// rendition trusts the caller-presented address, the same way
// IsProvider trusts registry membership without re-verifying a
// signature of its own.
func (op *Operator) RequireAdmin(caller ids.ShortID) error {
	if op.AdminAddr == (ids.ShortID{}) || caller != op.AdminAddr {
		return channel.ErrAdminUnauthorized
	}
	return nil
}

// Supply returns the current in-channel liability (spec §3).
func (op *Operator) Supply() (int64, error) {
	raw, err := op.supplyKV.Get(op.supplyK)
	if err == storage.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(raw)), nil
}

func (op *Operator) setSupply(v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return op.supplyKV.Put(op.supplyK, buf[:])
}

// legAccountAddress derives the address an ExternalApproval's key must
// match, using the same hash-down-to-ShortID scheme as a provider
// address (spec is silent on a dedicated derivation; both represent
// "the external account a key speaks for").
func legAccountAddress(key crypto.SignerKey) ids.ShortID {
	sum := sha256.Sum256(key.Key)
	var sid ids.ShortID
	copy(sid[:], sum[:ids.ShortIDLen])
	return sid
}

// legDigest is the message an external-leg approval signs over: the
// account, amount, and canonical condition bytes, so an approval can
// never be replayed against a different leg (spec §4.7: "binds
// approvals to the same conditions the UTXO layer enforced").
func legDigest(leg Leg) [32]byte {
	h := sha256.New()
	h.Write(leg.Account.Bytes())
	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], uint64(leg.Amount))
	h.Write(amt[:])
	for _, c := range leg.Conditions {
		h.Write(c.CanonicalBytes())
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func verifyLegApproval(verifier crypto.Verifier, leg Leg) error {
	if legAccountAddress(leg.Approval.Key) != leg.Account {
		return channel.ErrAuthMismatchedContract
	}
	digest := legDigest(leg)
	if err := verifier.Verify(leg.Approval.Key, leg.Approval.Signature, digest[:]); err != nil {
		if err == crypto.ErrUnsupportedSignatureFormat {
			return channel.ErrAuthUnsupportedSigFormat
		}
		return channel.ErrAuthInvalidSigFormat
	}
	return nil
}

// Transact runs the full §4.7 flow: pre-process, BundleEngine.Process
// under the auth trigger, then execute external legs in deposit-then-
// withdraw order, updating supply.
//
// External-asset transfer failures after the bundle has committed are
// not rolled back in the UTXO store: the source specification's host
// provides that rollback via its own enclosing-transaction abort, which
// a from-scratch engine without a host transaction coordinator cannot
// replicate without its own write-ahead log across both subsystems.
// Leg approvals are verified before the bundle commits specifically so
// that the only remaining failure mode past that point is the external
// asset itself rejecting a transfer (e.g. insufficient balance), which
// callers should treat as an operational fault, not a validation one.
func (op *Operator) Transact(ctx context.Context, opn ChannelOperation, ai AuthInput) error {
	pre, err := PreProcess(opn)
	if err != nil {
		return err
	}

	verifier := crypto.NewVerifier()
	for _, leg := range opn.Deposit {
		if err := verifyLegApproval(verifier, leg); err != nil {
			return err
		}
	}
	for _, leg := range opn.Withdraw {
		if err := verifyLegApproval(verifier, leg); err != nil {
			return err
		}
	}

	trigger := func(req auth.AuthRequirements) error {
		contexts := make([]auth.Context, 0, len(ai.Contexts)+1)
		contexts = append(contexts, ai.Contexts...)
		contexts = append(contexts, auth.Context{Kind: auth.ContextContract, Contract: op.ContractID, Requirements: req})
		return op.AuthEngine.Check(ai.Digest, ai.Signatures, contexts, ai.CurrentLedger, op.Registry)
	}

	supply, err := op.Supply()
	if err != nil {
		return err
	}
	if supply > math.MaxInt64-pre.TotalDeposit {
		return channel.ErrAmountOverflow
	}

	if err := op.Bundle.Process(pre.Bundle, pre.TotalDeposit, pre.TotalWithdraw, trigger); err != nil {
		return err
	}

	for _, leg := range opn.Deposit {
		if supply > math.MaxInt64-leg.Amount {
			return channel.ErrAmountOverflow
		}
		if err := op.Asset.Transfer(ctx, leg.Account, op.Holding, leg.Amount); err != nil {
			return err
		}
		supply += leg.Amount
	}
	for _, leg := range opn.Withdraw {
		if err := op.Asset.Transfer(ctx, op.Holding, leg.Account, leg.Amount); err != nil {
			return err
		}
		supply -= leg.Amount
	}

	return op.setSupply(supply)
}
