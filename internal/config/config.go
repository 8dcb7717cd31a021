// Package config defines the channeld process configuration, grouped
// by concern the way node/config.go groups an Avalanche node's, and
// populated from flags/env/file by spf13/pflag+viper+cobra the way
// main/params.go's init() populates node.Config from the CLI.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full set of channeld runtime settings.
type Config struct {
	// Identity
	ContractID string `json:"contractID" mapstructure:"contract-id"`
	Holding    string `json:"holding" mapstructure:"holding"`
	AssetAddr  string `json:"assetAddr" mapstructure:"asset-address"`
	AdminAddr  string `json:"adminAddr" mapstructure:"admin-address"`
	NetworkID  uint32 `json:"networkID" mapstructure:"network-id"`
	GenesisPath string `json:"genesisPath" mapstructure:"genesis-path"`

	// Storage
	DBEngine string `json:"dbEngine" mapstructure:"db-engine"`
	DBDir    string `json:"dbDir" mapstructure:"db-dir"`
	Layout   string `json:"layout" mapstructure:"utxo-layout"` // "simple" or "drawer"

	// Auth. ProviderThreshold is only validated; the auth engine uses
	// its fixed auth.ProviderThreshold instead.
	ProviderThreshold int `json:"providerThreshold" mapstructure:"provider-threshold"`

	// HTTP transport
	HTTPHost     string `json:"httpHost" mapstructure:"http-host"`
	HTTPPort     uint16 `json:"httpPort" mapstructure:"http-port"`
	CORSEnabled  bool   `json:"corsEnabled" mapstructure:"cors-enabled"`
	ProxyProto   bool   `json:"proxyProtoEnabled" mapstructure:"proxy-protocol-enabled"`

	// Observability
	LogLevel           string `json:"logLevel" mapstructure:"log-level"`
	LogDir             string `json:"logDir" mapstructure:"log-dir"`
	LogDisplayHighlight string `json:"logDisplayHighlight" mapstructure:"log-display-highlight"`
	MetricsEnabled     bool   `json:"metricsEnabled" mapstructure:"metrics-enabled"`
	OTelEndpoint       string `json:"otelEndpoint" mapstructure:"otel-endpoint"`
	EmitBundleEvents   bool   `json:"emitBundleEvents" mapstructure:"emit-bundle-events"`

	// Rate limiting
	TransactRatePerSecond int           `json:"transactRatePerSecond" mapstructure:"transact-rate-per-second"`
	TransactBackoff       time.Duration `json:"transactBackoff" mapstructure:"transact-backoff"`
}

var (
	errMissingContractID = fmt.Errorf("config: contract-id is required")
	errInvalidLayout      = fmt.Errorf("config: utxo-layout must be \"simple\" or \"drawer\"")
	errInvalidThreshold    = fmt.Errorf("config: provider-threshold must be positive")
)

// Default returns the zero-config baseline: in-memory storage, simple
// layout, local-only HTTP bind. Mirrors main/params.go's defaults
// being good enough for a local/testnet node with no flags at all.
func Default() Config {
	return Config{
		NetworkID:             1,
		DBEngine:              "memory",
		Layout:                "simple",
		ProviderThreshold:     1,
		HTTPHost:              "127.0.0.1",
		HTTPPort:              9650,
		LogLevel:              "info",
		LogDisplayHighlight:   "auto",
		MetricsEnabled:        true,
		TransactRatePerSecond: 10,
		TransactBackoff:       50 * time.Millisecond,
	}
}

// BindFlags registers every Config field as a pflag flag on fs, using
// Default() as the fallback. Mirrors main/params.go's one-flag-per-
// setting style, grouped by the same section comments.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String("contract-id", d.ContractID, "Hex-encoded channel contract id")
	fs.String("holding", d.Holding, "Hex-encoded holding account address for external asset custody")
	fs.String("asset-address", d.AssetAddr, "Address of the bridged external asset contract")
	fs.String("admin-address", d.AdminAddr, "Hex-encoded admin account address")
	fs.Uint32("network-id", d.NetworkID, "Network id this channel instance serves")
	fs.String("genesis-path", d.GenesisPath, "Path to a genesis.json (from 'channeld genesis') seeding initial providers and mints")

	fs.String("db-engine", d.DBEngine, "Storage engine: pebble, leveldb, or memory")
	fs.String("db-dir", d.DBDir, "Storage directory (ignored for db-engine=memory)")
	fs.String("utxo-layout", d.Layout, "UTXO storage layout: simple or drawer")

	fs.Int("provider-threshold", d.ProviderThreshold, "Provider signature threshold; validated as positive but not applied: authorization always requires one provider signature")

	fs.String("http-host", d.HTTPHost, "Address of the HTTP server")
	fs.Uint16("http-port", d.HTTPPort, "Port of the HTTP server")
	fs.Bool("cors-enabled", d.CORSEnabled, "Allow cross-origin requests from browser clients")
	fs.Bool("proxy-protocol-enabled", d.ProxyProto, "Expect PROXY protocol headers on incoming connections")

	fs.String("log-level", d.LogLevel, "Log level: debug, info, warn, error")
	fs.String("log-dir", d.LogDir, "Logging directory (empty means stderr only)")
	fs.String("log-display-highlight", d.LogDisplayHighlight, "Console highlight mode: auto, plain, colors")
	fs.Bool("metrics-enabled", d.MetricsEnabled, "Expose a Prometheus /metrics endpoint")
	fs.String("otel-endpoint", d.OTelEndpoint, "OTLP gRPC endpoint for trace export (empty disables tracing)")
	fs.Bool("emit-bundle-events", d.EmitBundleEvents, "Publish bundle-applied events to the websocket feed")

	fs.Int("transact-rate-per-second", d.TransactRatePerSecond, "Maximum transact submissions per account per second")
	fs.Duration("transact-backoff", d.TransactBackoff, "Backoff applied to throttled transact submissions")
}

// Load builds a Config from v, which the caller has already wired to
// flags/env/file via viper.BindPFlags, matching main/params.go's
// single-pass flag-to-Config transcription.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the cross-field invariants Load can't express via
// struct tags alone.
func (c Config) Validate() error {
	if c.ContractID == "" {
		return errMissingContractID
	}
	if c.Layout != "simple" && c.Layout != "drawer" {
		return errInvalidLayout
	}
	if c.ProviderThreshold <= 0 {
		return errInvalidThreshold
	}
	return nil
}
