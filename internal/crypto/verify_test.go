package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

func genP256(t *testing.T) (*ecdsa.PrivateKey, []byte) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	pub := elliptic.Marshal(elliptic.P256(), priv.X, priv.Y)
	return priv, pub
}

func signP256(t *testing.T, priv *ecdsa.PrivateKey, digest []byte) []byte {
	t.Helper()
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	require.NoError(t, err)
	out := make([]byte, 64)
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out
}

func TestVerifyP256RoundTrip(t *testing.T) {
	priv, pub := genP256(t)
	digest := sha256.Sum256([]byte("hello"))
	sigRaw := signP256(t, priv, digest[:])

	key, err := NewP256SignerKey(pub)
	require.NoError(t, err)
	sig := Signature{Kind: SigP256, Raw: sigRaw}

	v := NewVerifier()
	require.NoError(t, v.Verify(key, sig, digest[:]))

	digest2 := sha256.Sum256([]byte("tampered"))
	require.Error(t, v.Verify(key, sig, digest2[:]))
}

func TestVerifyEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	digest := sha256.Sum256([]byte("provider attest"))
	sigRaw := ed25519.Sign(priv, digest[:])

	key, err := NewEd25519SignerKey(pub)
	require.NoError(t, err)
	sig := Signature{Kind: SigEd25519, Raw: sigRaw}

	v := NewVerifier()
	require.NoError(t, v.Verify(key, sig, digest[:]))

	providerKey, err := NewProviderSignerKey(pub)
	require.NoError(t, err)
	require.NoError(t, v.Verify(providerKey, sig, digest[:]))
}

func TestVerifyMismatchedPairing(t *testing.T) {
	_, pub := genP256(t)
	key, err := NewP256SignerKey(pub)
	require.NoError(t, err)

	v := NewVerifier()
	sig := Signature{Kind: SigEd25519, Raw: make([]byte, ed25519.SignatureSize)}
	require.ErrorIs(t, v.Verify(key, sig, []byte("digest")), ErrInvalidSignatureFormat)
}

func TestVerifyReservedSchemesAlwaysUnsupported(t *testing.T) {
	v := NewVerifier()
	key, err := NewProviderSignerKey(make([]byte, Ed25519PubKeyLen))
	require.NoError(t, err)

	secpSig := Signature{Kind: SigSecp256k1, Raw: make([]byte, secp256k1CompactSigLen)}
	require.ErrorIs(t, v.Verify(key, secpSig, []byte("digest")), ErrUnsupportedSignatureFormat)

	blsSig := Signature{Kind: SigBLS12_381, Raw: make([]byte, bls12381CompressedSigLen)}
	err = v.Verify(key, blsSig, []byte("digest"))
	require.True(t, err == ErrUnsupportedSignatureFormat || err == ErrInvalidSignatureFormat)
}
