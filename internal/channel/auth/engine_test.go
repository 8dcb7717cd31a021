package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/ava-labs/privacy-channel/internal/channel"
	"github.com/ava-labs/privacy-channel/internal/codec"
	"github.com/ava-labs/privacy-channel/internal/condition"
	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/ids"
	"github.com/ava-labs/privacy-channel/internal/storage"
	"golang.org/x/crypto/ed25519"
)

type fixedRegistry struct {
	allowed map[ids.ShortID]bool
}

func (f fixedRegistry) IsProvider(addr ids.ShortID) bool { return f.allowed[addr] }

func genP256(t *testing.T) (*ecdsa.PrivateKey, crypto.SignerKey) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	raw := elliptic.Marshal(elliptic.P256(), priv.PublicKey.X, priv.PublicKey.Y)
	key, err := crypto.NewP256SignerKey(raw)
	if err != nil {
		t.Fatal(err)
	}
	return priv, key
}

func signP256(t *testing.T, priv *ecdsa.PrivateKey, digest []byte) crypto.Signature {
	t.Helper()
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	if err != nil {
		t.Fatal(err)
	}
	raw := make([]byte, 64)
	r.FillBytes(raw[:32])
	s.FillBytes(raw[32:])
	return crypto.Signature{Kind: crypto.SigP256, Raw: raw}
}

func genProvider(t *testing.T) (ed25519.PrivateKey, crypto.SignerKey, ids.ShortID) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key, err := crypto.NewProviderSignerKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return priv, key, providerAddress(key)
}

func buildHappyCase(t *testing.T) (Engine, []byte, Signatures, []Context, fixedRegistry) {
	t.Helper()
	contract, _ := ids.ShortFromHex("0102030405060708090a0b0c0d0e0f1011121314")

	ownerPriv, ownerKey := genP256(t)
	conditions := condition.Sequence{condition.Create(ownerKey, 700)}

	payload := codec.AuthPayload{Contract: contract, Conditions: conditions, LiveUntilLedger: 100}
	digestHash, err := codec.HashPayload(payload)
	if err != nil {
		t.Fatal(err)
	}
	ownerSig := signP256(t, ownerPriv, digestHash[:])

	providerPriv, providerKey, providerAddr := genProvider(t)
	txDigest := []byte("transaction-digest-stand-in-32b!")
	providerSig := ed25519.Sign(providerPriv, txDigest)

	sigs := Signatures{
		{Key: ownerKey, Signature: ownerSig, ValidUntilLedger: 100},
		{Key: providerKey, Signature: crypto.Signature{Kind: crypto.SigEd25519, Raw: providerSig}, ValidUntilLedger: 100},
	}
	contexts := []Context{
		{Kind: ContextContract, Contract: contract, Requirements: AuthRequirements{
			{Key: ownerKey, Conditions: conditions},
		}},
	}
	registry := fixedRegistry{allowed: map[ids.ShortID]bool{providerAddr: true}}

	return NewEngine(), txDigest, sigs, contexts, registry
}

func TestEngineCheckHappyPath(t *testing.T) {
	e, digest, sigs, contexts, registry := buildHappyCase(t)
	if err := e.Check(digest, sigs, contexts, 50, registry); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestEngineCheckRejectsExpiredSignature(t *testing.T) {
	e, digest, sigs, contexts, registry := buildHappyCase(t)
	if err := e.Check(digest, sigs, contexts, 1000, registry); channel.CodeOf(err) != channel.CodeAuthSignatureExpired {
		t.Fatalf("err = %v, want SignatureExpired", err)
	}
}

// B4: valid_until_ledger one below current ledger is rejected; equal
// to current ledger is accepted.
func TestEngineCheckSignatureExpiryBoundary(t *testing.T) {
	e, digest, sigs, contexts, registry := buildHappyCase(t)
	// buildHappyCase signs with ValidUntilLedger: 100.
	if err := e.Check(digest, sigs, contexts, 100, registry); err != nil {
		t.Fatalf("check at current_ledger == valid_until_ledger: %v", err)
	}
	if err := e.Check(digest, sigs, contexts, 101, registry); channel.CodeOf(err) != channel.CodeAuthSignatureExpired {
		t.Fatalf("err = %v, want SignatureExpired", err)
	}
}

func TestEngineCheckRejectsUnregisteredProvider(t *testing.T) {
	e, digest, sigs, contexts, _ := buildHappyCase(t)
	empty := fixedRegistry{allowed: map[ids.ShortID]bool{}}
	if err := e.Check(digest, sigs, contexts, 50, empty); err == nil {
		t.Fatal("expected error for unregistered provider")
	}
}

func TestEngineCheckRejectsMissingSignature(t *testing.T) {
	e, digest, sigs, contexts, registry := buildHappyCase(t)
	// drop the owner signature, keep only the provider one.
	var providerOnly Signatures
	for _, s := range sigs {
		if s.Key.Kind == crypto.SignerProvider {
			providerOnly = append(providerOnly, s)
		}
	}
	if err := e.Check(digest, providerOnly, contexts, 50, registry); channel.CodeOf(err) != channel.CodeAuthMissingSignature {
		t.Fatalf("err = %v, want MissingSignature", err)
	}
}

func TestEngineCheckRejectsExtraSignature(t *testing.T) {
	e, digest, sigs, contexts, registry := buildHappyCase(t)
	_, extraKey := genP256(t)
	extraSig := crypto.Signature{Kind: crypto.SigP256, Raw: make([]byte, 64)}
	sigs = append(sigs, SignatureEntry{Key: extraKey, Signature: extraSig, ValidUntilLedger: 100})
	if err := e.Check(digest, sigs, contexts, 50, registry); channel.CodeOf(err) != channel.CodeAuthExtraSignature {
		t.Fatalf("err = %v, want ExtraSignature", err)
	}
}

func TestEngineCheckRejectsDuplicateKeyAcrossContexts(t *testing.T) {
	e, digest, sigs, contexts, registry := buildHappyCase(t)
	contexts = append(contexts, contexts[0])
	if err := e.Check(digest, sigs, contexts, 50, registry); channel.CodeOf(err) != channel.CodeAuthDuplicate {
		t.Fatalf("err = %v, want Duplicate", err)
	}
}

func TestEngineCheckRejectsEmptyConditions(t *testing.T) {
	e, digest, sigs, contexts, registry := buildHappyCase(t)
	contexts[0].Requirements[0].Conditions = nil
	if err := e.Check(digest, sigs, contexts, 50, registry); channel.CodeOf(err) != channel.CodeAuthNoConditions {
		t.Fatalf("err = %v, want NoConditions", err)
	}
}

func TestEngineCheckRejectsUnexpectedContext(t *testing.T) {
	e, digest, sigs, contexts, registry := buildHappyCase(t)
	contexts[0].Kind = ContextOther
	if err := e.Check(digest, sigs, contexts, 50, registry); channel.CodeOf(err) != channel.CodeAuthUnexpectedContext {
		t.Fatalf("err = %v, want UnexpectedContext", err)
	}
}

func TestEngineCheckRejectsNonProviderEd25519Ownership(t *testing.T) {
	e, digest, sigs, contexts, registry := buildHappyCase(t)
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	plainKey, err := crypto.NewEd25519SignerKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	contexts[0].Requirements = append(contexts[0].Requirements, Requirement{Key: plainKey, Conditions: contexts[0].Requirements[0].Conditions})
	if err := e.Check(digest, sigs, contexts, 50, registry); channel.CodeOf(err) != channel.CodeAuthUnsupportedSigner {
		t.Fatalf("err = %v, want UnsupportedSigner", err)
	}
}

func TestProviderRegistryEnforcesMinimum(t *testing.T) {
	kv := storage.NewMemKV()
	reg := NewProviderRegistry(kv, []byte("prov/"))
	addr, _ := ids.ShortFromHex("0102030405060708090a0b0c0d0e0f1011121314")

	if err := reg.Register(addr); err != nil {
		t.Fatal(err)
	}
	if !reg.IsProvider(addr) {
		t.Fatal("expected provider to be registered")
	}
	if err := reg.Deregister(addr); err != ErrProviderMinimumBreached {
		t.Fatalf("err = %v, want ErrProviderMinimumBreached", err)
	}

	addr2, _ := ids.ShortFromHex("7c63def9cc404b2ab37ed8385e7d587bf5ccdaad")
	if err := reg.Register(addr2); err != nil {
		t.Fatal(err)
	}
	if err := reg.Deregister(addr); err != nil {
		t.Fatalf("deregister with 2 providers present: %v", err)
	}
	if reg.IsProvider(addr) {
		t.Fatal("expected addr to be deregistered")
	}
}
