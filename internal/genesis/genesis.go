package genesis

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/mitchellh/mapstructure"
	bip32 "github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/ed25519"

	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/ids"
)

// InitialMint is one account credited during bootstrap.
type InitialMint struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

// State is the bootstrap state for one network: which accounts start
// as registered providers, and what (if anything) is minted before
// the channel accepts its first external transact.
type State struct {
	NetworkID     uint32        `json:"networkID"`
	ProviderAddrs []string      `json:"providerAddrs"`
	InitialMints  []InitialMint `json:"initialMints,omitempty"`

	// Overrides holds untyped per-network extensions (e.g. a staging
	// network's extra demo accounts) that Decode folds into typed
	// fields the same way viper decodes free-form config.
	Overrides map[string]interface{} `json:"overrides,omitempty"`
}

// Decode folds s.Overrides into extra, the way the genesis file's
// free-form per-network override map gets unpacked into a typed
// struct (spec EXPANSION B.11).
func Decode(s State, extra interface{}) error {
	if s.Overrides == nil {
		return nil
	}
	return mapstructure.Decode(s.Overrides, extra)
}

// Write atomically persists s as genesis.json at path, using
// renameio so a crash mid-write never leaves a truncated file behind.
func Write(path string, s State) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("genesis: marshal: %w", err)
	}
	t, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("genesis: create temp file: %w", err)
	}
	defer t.Cleanup()
	if _, err := t.Write(b); err != nil {
		return fmt.Errorf("genesis: write: %w", err)
	}
	return t.CloseAtomicallyReplace()
}

// Read loads a genesis.json previously written by Write.
func Read(path string) (State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("genesis: read: %w", err)
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("genesis: unmarshal: %w", err)
	}
	return s, nil
}

// DeriveDemoProviders derives count deterministic Ed25519 provider
// keys from seed via BIP32 child derivation, for local/testnet
// bring-up where real provider key custody doesn't matter.
func DeriveDemoProviders(seed []byte, count int) ([]crypto.SignerKey, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("genesis: derive master key: %w", err)
	}

	keys := make([]crypto.SignerKey, 0, count)
	for i := 0; i < count; i++ {
		child, err := master.NewChildKey(uint32(i))
		if err != nil {
			return nil, fmt.Errorf("genesis: derive child %d: %w", i, err)
		}
		// bip32's private key material is hashed with SHA-256 into a
		// deterministic ed25519 seed; this is demo-only key
		// derivation, never used for production provider custody.
		seed32 := sha256.Sum256(child.Key)
		pub := ed25519.NewKeyFromSeed(seed32[:]).Public().(ed25519.PublicKey)
		key, err := crypto.NewProviderSignerKey(pub)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ProviderAddress derives the ShortID a provider key registers under,
// mirroring auth.providerAddress (duplicated here rather than
// imported, since genesis predates any running Engine/registry).
func ProviderAddress(key crypto.SignerKey) ids.ShortID {
	sum := sha256.Sum256(key.Key)
	var sid ids.ShortID
	copy(sid[:], sum[:ids.ShortIDLen])
	return sid
}
