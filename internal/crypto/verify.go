package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"math/big"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	blst "github.com/supranational/blst/bindings/go"
	"golang.org/x/crypto/ed25519"
)

// VerifyError enumerates the outcomes of SignatureVerifier.Verify, mapped
// to the stable error codes in spec §6 (InvalidSignatureFormat=7,
// UnsupportedSignatureFormat=8).
var (
	ErrInvalidSignatureFormat     = errors.New("invalid signature format")
	ErrUnsupportedSignatureFormat = errors.New("unsupported signature format")
)

// p256SigLen is the length of the raw (r||s) P-256 ECDSA signature the
// authorization protocol carries (spec §3: "P256(r||s, 64 B)").
const p256SigLen = 64

// secp256k1CompactSigLen mirrors the 64-byte (r||s) compact encoding;
// derived from the library's private-key scalar length rather than a
// hand-picked constant, since r and s are each one scalar wide.
var secp256k1CompactSigLen = 2 * secp256k1.PrivKeyBytesLen

// bls12381CompressedSigLen is the size of a compressed G2 point, the
// standard BLS12-381 signature encoding in min-pubkey-size mode.
const bls12381CompressedSigLen = 96

// Verifier implements the variant matrix of spec §4.2: only
// P256-by-P256 and {Provider,Ed25519}-by-Ed25519 pairings ever verify;
// any other pairing is a format/support error. Verification is
// constant-failure: it never returns partial success.
type Verifier struct{}

func NewVerifier() Verifier { return Verifier{} }

// Verify checks sig over digest under key, per the pairing rules of §4.2.
func (Verifier) Verify(key SignerKey, sig Signature, digest []byte) error {
	switch sig.Kind {
	case SigP256:
		if key.Kind != SignerP256 {
			return ErrInvalidSignatureFormat
		}
		return verifyP256(key.Key, sig.Raw, digest)
	case SigEd25519:
		if key.Kind != SignerProvider && key.Kind != SignerEd25519 {
			return ErrInvalidSignatureFormat
		}
		return verifyEd25519(key.Key, sig.Raw, digest)
	case SigSecp256k1:
		// Reserved: shape-validate, then always refuse as unsupported.
		if len(sig.Raw) != secp256k1CompactSigLen {
			return ErrInvalidSignatureFormat
		}
		return ErrUnsupportedSignatureFormat
	case SigBLS12_381:
		if len(sig.Raw) != bls12381CompressedSigLen {
			return ErrInvalidSignatureFormat
		}
		var p blst.P2Affine
		if p.Uncompress(sig.Raw) == nil {
			return ErrInvalidSignatureFormat
		}
		return ErrUnsupportedSignatureFormat
	default:
		return ErrInvalidSignatureFormat
	}
}

func verifyP256(pubKey65, sigRaw, digest []byte) error {
	if len(pubKey65) != P256PubKeyLen || len(sigRaw) != p256SigLen {
		return ErrInvalidSignatureFormat
	}
	curve := elliptic.P256()
	x := new(big.Int).SetBytes(pubKey65[1:33])
	y := new(big.Int).SetBytes(pubKey65[33:65])
	if !curve.IsOnCurve(x, y) {
		return ErrInvalidSignatureFormat
	}
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	r := new(big.Int).SetBytes(sigRaw[:32])
	s := new(big.Int).SetBytes(sigRaw[32:])
	if !ecdsa.Verify(pub, digest, r, s) {
		return ErrInvalidSignatureFormat
	}
	return nil
}

func verifyEd25519(pubKey32, sigRaw, digest []byte) error {
	if len(pubKey32) != Ed25519PubKeyLen || len(sigRaw) != ed25519.SignatureSize {
		return ErrInvalidSignatureFormat
	}
	if !ed25519.Verify(ed25519.PublicKey(pubKey32), digest, sigRaw) {
		return ErrInvalidSignatureFormat
	}
	return nil
}
