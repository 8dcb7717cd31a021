package auth

import (
	"crypto/sha256"

	"github.com/ava-labs/privacy-channel/internal/channel"
	"github.com/ava-labs/privacy-channel/internal/codec"
	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/ids"
)

// ProviderThreshold is PROVIDER_THRESHOLD from spec §4.5: the minimum
// number of distinct, registered provider signatures a transact needs.
const ProviderThreshold = 1

// ProviderLookup is the read-only slice of ProviderRegistry the engine
// needs; satisfied by *ProviderRegistry.
type ProviderLookup interface {
	IsProvider(addr ids.ShortID) bool
}

// Engine drives the per-context signature discipline of spec §4.5. It
// holds no state of its own beyond a verifier, so one Engine serves
// every channel instance.
type Engine struct {
	verifier crypto.Verifier
}

func NewEngine() Engine {
	return Engine{verifier: crypto.NewVerifier()}
}

// providerAddress derives the external account address a Provider
// signer is attested under, by hashing its raw key down to a ShortID
// (spec §4.5: "derive the corresponding external account address").
func providerAddress(key crypto.SignerKey) ids.ShortID {
	sum := sha256.Sum256(key.Key)
	var sid ids.ShortID
	copy(sid[:], sum[:ids.ShortIDLen])
	return sid
}

// Check runs the full auth discipline: per-context UTXO-owner checks,
// duplicate-key detection, provider quorum, and the extra-signature
// sweep (spec §4.5). digest is the host-computed transaction digest
// providers sign over; currentLedger gates every expiry check.
func (e Engine) Check(digest []byte, sigs Signatures, contexts []Context, currentLedger uint32, registry ProviderLookup) error {
	consumed := make(map[[1 + crypto.P256PubKeyLen]byte]bool)
	seenP256 := make(map[[1 + crypto.P256PubKeyLen]byte]bool)

	for _, ctx := range contexts {
		if ctx.Kind != ContextContract {
			return channel.ErrAuthUnexpectedContext
		}
		if len(ctx.Requirements) == 0 {
			continue
		}
		for _, req := range ctx.Requirements {
			if len(req.Conditions) == 0 {
				return channel.ErrAuthNoConditions
			}
			switch req.Key.Kind {
			case crypto.SignerP256:
				mk := req.Key.MapKey()
				if seenP256[mk] {
					return channel.ErrAuthDuplicate
				}
				seenP256[mk] = true

				entry, ok := sigs.Find(req.Key)
				if !ok {
					return channel.ErrAuthMissingSignature
				}
				if entry.ValidUntilLedger < currentLedger {
					return channel.ErrAuthSignatureExpired
				}
				payload := codec.AuthPayload{
					Contract:        ctx.Contract,
					Conditions:      req.Conditions,
					LiveUntilLedger: entry.ValidUntilLedger,
				}
				digestHash, err := codec.HashPayload(payload)
				if err != nil {
					return channel.ErrAuthBadArg
				}
				if err := e.verifier.Verify(req.Key, entry.Signature, digestHash[:]); err != nil {
					return mapVerifyErr(err)
				}
				consumed[mk] = true

			case crypto.SignerEd25519, crypto.SignerProvider:
				// O1: only Provider attestation is ever accepted
				// through the separate provider-quorum path below;
				// neither Ed25519 nor Provider may own a spend.
				return channel.ErrAuthUnsupportedSigner

			default:
				return channel.ErrAuthBadArg
			}
		}
	}

	providerVotes := 0
	providerConsumed := make(map[[1 + crypto.P256PubKeyLen]byte]bool)
	for _, entry := range sigs {
		if entry.Key.Kind != crypto.SignerProvider {
			continue
		}
		addr := providerAddress(entry.Key)
		if !registry.IsProvider(addr) {
			return channel.ErrAuthUnsupportedSigner
		}
		if entry.ValidUntilLedger < currentLedger {
			return channel.ErrAuthSignatureExpired
		}
		if err := e.verifier.Verify(entry.Key, entry.Signature, digest); err != nil {
			return mapVerifyErr(err)
		}
		providerConsumed[entry.Key.MapKey()] = true
		providerVotes++
	}
	if providerVotes < ProviderThreshold {
		return channel.ErrAuthProviderThresholdMiss
	}

	for _, entry := range sigs {
		if entry.Key.Kind == crypto.SignerProvider {
			continue
		}
		mk := entry.Key.MapKey()
		if !consumed[mk] {
			return channel.ErrAuthExtraSignature
		}
	}

	return nil
}

func mapVerifyErr(err error) error {
	switch err {
	case crypto.ErrUnsupportedSignatureFormat:
		return channel.ErrAuthUnsupportedSigFormat
	default:
		return channel.ErrAuthInvalidSigFormat
	}
}
