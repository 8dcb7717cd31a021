package store

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/ava-labs/privacy-channel/internal/channel"
	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/storage"
)

func genKey(t *testing.T) crypto.SignerKey {
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
	return key
}

func testLifecycle(t *testing.T, s Store) {
	t.Helper()
	key := genKey(t)

	if bal, err := s.Balance(key); err != nil || bal != -1 {
		t.Fatalf("fresh balance = %d, %v, want -1, nil", bal, err)
	}

	if err := s.Create(key, 100); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(key, 100); channel.CodeOf(err) != channel.CodeUTXOAlreadyExists {
		t.Fatalf("duplicate create err = %v, want UTXOAlreadyExists", err)
	}

	if bal, err := s.Balance(key); err != nil || bal != 100 {
		t.Fatalf("balance after create = %d, %v, want 100, nil", bal, err)
	}

	amount, err := s.Spend(key)
	if err != nil || amount != 100 {
		t.Fatalf("spend = %d, %v, want 100, nil", amount, err)
	}

	if bal, err := s.Balance(key); err != nil || bal != 0 {
		t.Fatalf("balance after spend = %d, %v, want 0, nil", bal, err)
	}

	if _, err := s.Spend(key); channel.CodeOf(err) != channel.CodeUTXOAlreadySpent {
		t.Fatalf("double spend err = %v, want UTXOAlreadySpent", err)
	}

	other := genKey(t)
	if _, err := s.Spend(other); channel.CodeOf(err) != channel.CodeUTXONotFound {
		t.Fatalf("spend unknown err = %v, want UTXONotFound", err)
	}

	if err := s.Create(other, 0); channel.CodeOf(err) != channel.CodeInvalidCreateAmount {
		t.Fatalf("zero-amount create err = %v, want InvalidCreateAmount", err)
	}
}

func TestSimpleStoreLifecycle(t *testing.T) {
	testLifecycle(t, NewSimpleStore(storage.NewMemKV(), []byte("ch1/")))
}

func TestDrawerStoreLifecycle(t *testing.T) {
	testLifecycle(t, NewDrawerStore(storage.NewMemKV(), []byte("ch1/")))
}

func TestDrawerStoreRollsOverDrawers(t *testing.T) {
	kv := storage.NewMemKV()
	s := NewDrawerStore(kv, []byte("ch1/"))

	keys := make([]crypto.SignerKey, drawerSlots+5)
	for i := range keys {
		keys[i] = genKey(t)
		if err := s.Create(keys[i], int64(i+1)); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	state, err := s.loadState()
	if err != nil {
		t.Fatal(err)
	}
	if state.CurrentDrawer != 1 || state.NextSlot != 5 {
		t.Fatalf("state = %+v, want drawer 1 slot 5", state)
	}

	for i, k := range keys {
		bal, err := s.Balance(k)
		if err != nil || bal != int64(i+1) {
			t.Fatalf("balance(%d) = %d, %v, want %d", i, bal, err, i+1)
		}
	}
}
