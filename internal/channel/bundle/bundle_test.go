package bundle

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/ava-labs/privacy-channel/internal/channel"
	"github.com/ava-labs/privacy-channel/internal/channel/auth"
	"github.com/ava-labs/privacy-channel/internal/channel/store"
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

func noopTrigger(auth.AuthRequirements) error { return nil }

func newEngine(t *testing.T) Engine {
	t.Helper()
	s := store.NewSimpleStore(storage.NewMemKV(), []byte("ch/"))
	return NewEngine(s)
}

// S1 Mint-then-spend, collapsed to the bundle layer (auth is a noop
// trigger here; the auth.Engine integration is exercised separately).
func TestProcessMintThenSpend(t *testing.T) {
	e := newEngine(t)
	ua, ub, uc, ud := genKey(t), genKey(t), genKey(t), genKey(t)

	mint := InternalBundle{Create: []CreateOutput{{Key: ua, Amount: 1000}, {Key: ub, Amount: 500}}}
	if err := e.Process(mint, 1500, 0, noopTrigger); err != nil {
		t.Fatalf("mint: %v", err)
	}

	spend := InternalBundle{
		Spend:  []crypto.SignerKey{ua, ub},
		Create: []CreateOutput{{Key: uc, Amount: 700}, {Key: ud, Amount: 800}},
	}
	if err := e.Process(spend, 0, 0, noopTrigger); err != nil {
		t.Fatalf("spend: %v", err)
	}

	for _, tc := range []struct {
		key  crypto.SignerKey
		want int64
	}{{ua, 0}, {ub, 0}, {uc, 700}, {ud, 800}} {
		bal, err := e.Store.Balance(tc.key)
		if err != nil || bal != tc.want {
			t.Fatalf("balance = %d, %v, want %d", bal, err, tc.want)
		}
	}
}

// S5 Unbalanced bundle.
func TestProcessRejectsUnbalancedBundle(t *testing.T) {
	e := newEngine(t)
	ua, uc := genKey(t), genKey(t)
	if err := e.Process(InternalBundle{Create: []CreateOutput{{Key: ua, Amount: 500}}}, 500, 0, noopTrigger); err != nil {
		t.Fatal(err)
	}

	spend := InternalBundle{
		Spend:  []crypto.SignerKey{ua},
		Create: []CreateOutput{{Key: uc, Amount: 400}},
	}
	if err := e.Process(spend, 0, 0, noopTrigger); channel.CodeOf(err) != channel.CodeUnbalancedBundle {
		t.Fatalf("err = %v, want UnbalancedBundle", err)
	}

	// Unbalanced rejection must leave the spend untouched.
	if bal, _ := e.Store.Balance(ua); bal != 500 {
		t.Fatalf("balance after rejected bundle = %d, want 500 (unchanged)", bal)
	}
}

// B1 Create with non-positive amount.
func TestProcessRejectsNonPositiveCreateAmount(t *testing.T) {
	e := newEngine(t)
	u := genKey(t)
	if err := e.Process(InternalBundle{Create: []CreateOutput{{Key: u, Amount: 0}}}, 0, 0, noopTrigger); channel.CodeOf(err) != channel.CodeInvalidCreateAmount {
		t.Fatalf("err = %v, want InvalidCreateAmount", err)
	}
	if err := e.Process(InternalBundle{Create: []CreateOutput{{Key: u, Amount: -5}}}, 0, 0, noopTrigger); channel.CodeOf(err) != channel.CodeInvalidCreateAmount {
		t.Fatalf("err = %v, want InvalidCreateAmount", err)
	}
}

// B2 Spend of absent or already-spent UTXO.
func TestProcessRejectsSpendOfAbsentOrSpentUTXO(t *testing.T) {
	e := newEngine(t)
	u := genKey(t)
	if err := e.Process(InternalBundle{Spend: []crypto.SignerKey{u}}, 0, 0, noopTrigger); channel.CodeOf(err) != channel.CodeUTXONotFound {
		t.Fatalf("err = %v, want UTXONotFound", err)
	}

	if err := e.Process(InternalBundle{Create: []CreateOutput{{Key: u, Amount: 100}}}, 100, 0, noopTrigger); err != nil {
		t.Fatal(err)
	}
	if err := e.Process(InternalBundle{Spend: []crypto.SignerKey{u}}, 0, 100, noopTrigger); err != nil {
		t.Fatal(err)
	}
	if err := e.Process(InternalBundle{Spend: []crypto.SignerKey{u}}, 0, 0, noopTrigger); channel.CodeOf(err) != channel.CodeUTXOAlreadySpent {
		t.Fatalf("err = %v, want UTXOAlreadySpent", err)
	}
}

// B3 Duplicate spend or create within one bundle.
func TestProcessRejectsDuplicatesWithinBundle(t *testing.T) {
	e := newEngine(t)
	u := genKey(t)
	if err := e.Process(InternalBundle{Create: []CreateOutput{{Key: u, Amount: 100}}}, 100, 0, noopTrigger); err != nil {
		t.Fatal(err)
	}

	dupSpend := InternalBundle{Spend: []crypto.SignerKey{u, u}}
	if err := e.Process(dupSpend, 0, 200, noopTrigger); channel.CodeOf(err) != channel.CodeRepeatedSpendUTXO {
		t.Fatalf("err = %v, want RepeatedSpendUTXO", err)
	}

	u2 := genKey(t)
	dupCreate := InternalBundle{Create: []CreateOutput{{Key: u2, Amount: 10}, {Key: u2, Amount: 20}}}
	if err := e.Process(dupCreate, 30, 0, noopTrigger); channel.CodeOf(err) != channel.CodeRepeatedCreateUTXO {
		t.Fatalf("err = %v, want RepeatedCreateUTXO", err)
	}
}

func TestProcessKeepsUnspentIndexInSync(t *testing.T) {
	s := store.NewSimpleStore(storage.NewMemKV(), []byte("ch/"))
	idx := store.NewUnspentIndex()
	e := NewEngine(s).WithIndex(idx)

	ua, ub := genKey(t), genKey(t)
	mint := InternalBundle{Create: []CreateOutput{{Key: ua, Amount: 1000}, {Key: ub, Amount: 500}}}
	if err := e.Process(mint, 1500, 0, noopTrigger); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("index len after mint = %d, want 2", idx.Len())
	}

	uc := genKey(t)
	spend := InternalBundle{Spend: []crypto.SignerKey{ua}, Create: []CreateOutput{{Key: uc, Amount: 1000}}}
	if err := e.Process(spend, 0, 0, noopTrigger); err != nil {
		t.Fatalf("spend: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("index len after spend = %d, want 2 (ub, uc)", idx.Len())
	}
	for _, entry := range idx.List(10) {
		if entry.Key.Equal(ua) {
			t.Fatalf("spent key ua still present in index")
		}
	}
}

func TestProcessPropagatesAuthTriggerFailure(t *testing.T) {
	e := newEngine(t)
	u := genKey(t)
	failing := func(auth.AuthRequirements) error { return channel.ErrAuthMissingSignature }
	if err := e.Process(InternalBundle{Create: []CreateOutput{{Key: u, Amount: 10}}}, 10, 0, failing); channel.CodeOf(err) != channel.CodeAuthMissingSignature {
		t.Fatalf("err = %v, want MissingSignature", err)
	}
	if bal, _ := e.Store.Balance(u); bal != -1 {
		t.Fatalf("balance after auth failure = %d, want -1 (untouched)", bal)
	}
}
