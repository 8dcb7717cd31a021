// Package genesis generalizes genesis/genesis.go's hardcoded
// per-network bootstrap data into per-network initial ProviderRegistry
// membership and an optional initial mint.
package genesis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	MainnetID uint32 = 1
	TestnetID uint32 = 2
	LocalID   uint32 = 12345

	MainnetName = "mainnet"
	TestnetName = "testnet"
	LocalName   = "local"
)

var validNetworkName = regexp.MustCompile(`network-[0-9]+`)

var (
	networkIDToName = map[uint32]string{
		MainnetID: MainnetName,
		TestnetID: TestnetName,
		LocalID:   LocalName,
	}
	networkNameToID = map[string]uint32{
		MainnetName: MainnetID,
		TestnetName: TestnetID,
		LocalName:   LocalID,
	}
)

// NetworkName returns a human readable name for networkID, falling
// back to "network-<id>" for IDs with no registered name.
func NetworkName(networkID uint32) string {
	if name, ok := networkIDToName[networkID]; ok {
		return name
	}
	return fmt.Sprintf("network-%d", networkID)
}

// NetworkID parses a network name (or a raw numeric id, or the
// "network-<id>" form NetworkName produces) back into its id.
func NetworkID(networkName string) (uint32, error) {
	networkName = strings.ToLower(networkName)
	if id, ok := networkNameToID[networkName]; ok {
		return id, nil
	}
	if id, err := strconv.ParseUint(networkName, 10, 32); err == nil {
		return uint32(id), nil
	}
	if validNetworkName.MatchString(networkName) {
		if id, err := strconv.ParseUint(networkName[8:], 10, 32); err == nil {
			return uint32(id), nil
		}
	}
	return 0, fmt.Errorf("genesis: failed to parse %q as a network name", networkName)
}
