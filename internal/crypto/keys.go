// Package crypto implements the multi-scheme signer/signature sum types
// and verification logic of the authorization protocol (spec §3, §4.2).
package crypto

import (
	"fmt"
)

// SignerKeyKind tags the variant of a SignerKey.
type SignerKeyKind uint8

const (
	SignerP256 SignerKeyKind = iota
	SignerEd25519
	SignerProvider
)

func (k SignerKeyKind) String() string {
	switch k {
	case SignerP256:
		return "P256"
	case SignerEd25519:
		return "Ed25519"
	case SignerProvider:
		return "Provider"
	default:
		return "Unknown"
	}
}

// P256PubKeyLen is the length of an uncompressed SEC1 P-256 public key.
const P256PubKeyLen = 65

// Ed25519PubKeyLen is the length of an Ed25519 public key.
const Ed25519PubKeyLen = 32

// SignerKey is the sum type `P256(pk65) | Ed25519(pk32) | Provider(pk32)`
// from spec §3. Provider is semantically distinct from Ed25519 even
// though both carry a 32-byte key, because routing differs (§4.5).
type SignerKey struct {
	Kind SignerKeyKind
	Key  []byte // 65 bytes for P256, 32 bytes for Ed25519/Provider
}

// NewP256SignerKey validates and wraps an uncompressed P-256 public key.
func NewP256SignerKey(pk []byte) (SignerKey, error) {
	if len(pk) != P256PubKeyLen {
		return SignerKey{}, fmt.Errorf("p256 signer key must be %d bytes, got %d", P256PubKeyLen, len(pk))
	}
	if pk[0] != 0x04 {
		return SignerKey{}, fmt.Errorf("p256 signer key must be uncompressed (prefix 0x04)")
	}
	key := make([]byte, P256PubKeyLen)
	copy(key, pk)
	return SignerKey{Kind: SignerP256, Key: key}, nil
}

func NewEd25519SignerKey(pk []byte) (SignerKey, error) {
	if len(pk) != Ed25519PubKeyLen {
		return SignerKey{}, fmt.Errorf("ed25519 signer key must be %d bytes, got %d", Ed25519PubKeyLen, len(pk))
	}
	key := make([]byte, Ed25519PubKeyLen)
	copy(key, pk)
	return SignerKey{Kind: SignerEd25519, Key: key}, nil
}

func NewProviderSignerKey(pk []byte) (SignerKey, error) {
	if len(pk) != Ed25519PubKeyLen {
		return SignerKey{}, fmt.Errorf("provider signer key must be %d bytes, got %d", Ed25519PubKeyLen, len(pk))
	}
	key := make([]byte, Ed25519PubKeyLen)
	copy(key, pk)
	return SignerKey{Kind: SignerProvider, Key: key}, nil
}

// MapKey returns a value usable as a Go map key (arrays are comparable,
// slices are not), scoped by kind so a P256 key and an Ed25519 key that
// happen to share bytes in their common prefix never collide.
func (sk SignerKey) MapKey() [1 + P256PubKeyLen]byte {
	var out [1 + P256PubKeyLen]byte
	out[0] = byte(sk.Kind)
	copy(out[1:], sk.Key)
	return out
}

func (sk SignerKey) Equal(other SignerKey) bool {
	if sk.Kind != other.Kind || len(sk.Key) != len(other.Key) {
		return false
	}
	for i := range sk.Key {
		if sk.Key[i] != other.Key[i] {
			return false
		}
	}
	return true
}

// SignatureKind tags the variant of a Signature, including the two
// reserved-but-unsupported schemes (spec §3).
type SignatureKind uint8

const (
	SigP256 SignatureKind = iota
	SigEd25519
	SigSecp256k1
	SigBLS12_381
)

func (k SignatureKind) String() string {
	switch k {
	case SigP256:
		return "P256"
	case SigEd25519:
		return "Ed25519"
	case SigSecp256k1:
		return "Secp256k1"
	case SigBLS12_381:
		return "BLS12_381"
	default:
		return "Unknown"
	}
}

// Signature is the sum type `P256(64B) | Ed25519(64B) | Secp256k1 | BLS12_381`.
type Signature struct {
	Kind SignatureKind
	Raw  []byte
}
