// Package auth implements the authorization protocol of spec §4.5/§4.6:
// per-context UTXO-owner signature checking, provider quorum, and the
// registry of addresses allowed to act as a provider. It is grounded on
// utils/crypto's Factory/Verifier split, generalized from one signature
// scheme to the P256/Ed25519/Provider matrix of internal/crypto.
package auth

import (
	"github.com/ava-labs/privacy-channel/internal/condition"
	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/ids"
)

// Requirement pairs a signer with the condition sequence it must
// authorize, the unit of AuthRequirements (spec §4: "mapping from
// SignerKey to its required condition sequence").
type Requirement struct {
	Key        crypto.SignerKey
	Conditions condition.Sequence
}

// AuthRequirements is the first positional argument bound into every
// signed preimage at a require_auth_for_args call site.
type AuthRequirements []Requirement

// SignatureEntry is one value in the Signatures mapping: a signature
// plus the ledger height it is valid until (spec §4.5: "the expiry
// travels with each signature rather than with the envelope").
type SignatureEntry struct {
	Key              crypto.SignerKey
	Signature        crypto.Signature
	ValidUntilLedger uint32
}

// Signatures is the full set of signatures submitted alongside a
// transact call.
type Signatures []SignatureEntry

// Find returns the entry keyed by key, if present.
func (s Signatures) Find(key crypto.SignerKey) (SignatureEntry, bool) {
	for _, e := range s {
		if e.Key.Equal(key) {
			return e, true
		}
	}
	return SignatureEntry{}, false
}

// ContextKind tags the variant of a Context; only Contract contexts
// carry UTXO-auth requirements (spec §4.5).
type ContextKind uint8

const (
	ContextContract ContextKind = iota
	ContextOther
)

// Context is one entry of the `contexts: sequence<Context>` argument
// the host's custom-account callback is invoked with.
type Context struct {
	Kind         ContextKind
	Contract     ids.ShortID
	Requirements AuthRequirements
}
