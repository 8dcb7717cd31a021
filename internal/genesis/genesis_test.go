package genesis

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNetworkNameRoundTrip(t *testing.T) {
	require.Equal(t, MainnetName, NetworkName(MainnetID))
	require.Equal(t, "network-7", NetworkName(7))

	id, err := NetworkID("testnet")
	require.NoError(t, err)
	require.Equal(t, TestnetID, id)

	id, err = NetworkID("network-7")
	require.NoError(t, err)
	require.Equal(t, uint32(7), id)

	_, err = NetworkID("not-a-network")
	require.Error(t, err)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	want := State{
		NetworkID:     LocalID,
		ProviderAddrs: []string{"0102030405060708090a0b0c0d0e0f1011121314"},
		InitialMints:  []InitialMint{{Account: "deadbeef", Amount: 1000}},
	}
	require.NoError(t, Write(path, want))

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, want.NetworkID, got.NetworkID)
	require.Equal(t, want.ProviderAddrs, got.ProviderAddrs)
	require.Equal(t, want.InitialMints, got.InitialMints)
}

func TestDeriveDemoProvidersIsDeterministic(t *testing.T) {
	seed := []byte("deterministic-demo-seed-32bytes!")
	a, err := DeriveDemoProviders(seed, 3)
	require.NoError(t, err)
	require.Len(t, a, 3)

	b, err := DeriveDemoProviders(seed, 3)
	require.NoError(t, err)
	for i := range a {
		require.True(t, a[i].Equal(b[i]))
	}

	// distinct indices derive distinct keys
	require.False(t, a[0].Equal(a[1]))

	addr := ProviderAddress(a[0])
	require.NotEqual(t, [20]byte{}, addr)
}

func TestDecodeOverrides(t *testing.T) {
	s := State{Overrides: map[string]interface{}{"extraMint": 42}}
	var extra struct {
		ExtraMint int `mapstructure:"extraMint"`
	}
	require.NoError(t, Decode(s, &extra))
	require.Equal(t, 42, extra.ExtraMint)
}
