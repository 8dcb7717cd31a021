package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ava-labs/privacy-channel/internal/api"
	"github.com/ava-labs/privacy-channel/internal/channel/auth"
	"github.com/ava-labs/privacy-channel/internal/channel/bundle"
	"github.com/ava-labs/privacy-channel/internal/channel/operator"
	"github.com/ava-labs/privacy-channel/internal/channel/store"
	"github.com/ava-labs/privacy-channel/internal/config"
	"github.com/ava-labs/privacy-channel/internal/externalasset"
	"github.com/ava-labs/privacy-channel/internal/genesis"
	"github.com/ava-labs/privacy-channel/internal/ids"
	"github.com/ava-labs/privacy-channel/internal/logging"
	"github.com/ava-labs/privacy-channel/internal/metrics"
	"github.com/ava-labs/privacy-channel/internal/ratelimit"
	"github.com/ava-labs/privacy-channel/internal/storage"
	"github.com/ava-labs/privacy-channel/internal/telemetry"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the channel node's HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			v.SetEnvPrefix("channeld")
			v.AutomaticEnv()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runNode(cmd.Context(), cfg)
		},
	}
	config.BindFlags(cmd.Flags())
	return cmd
}

func runNode(ctx context.Context, cfg config.Config) error {
	logCfg := logging.DefaultConfig()
	level, err := logging.ToLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("channeld: %w", err)
	}
	logCfg.Level = level
	logCfg.Directory = cfg.LogDir
	highlight, err := logging.ToHighlight(cfg.LogDisplayHighlight, os.Stderr.Fd())
	if err != nil {
		return fmt.Errorf("channeld: %w", err)
	}
	logCfg.Highlight = highlight

	log, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("channeld: build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting channeld",
		zap.String("contract-id", cfg.ContractID),
		zap.Uint32("network-id", cfg.NetworkID),
		zap.String("db-engine", cfg.DBEngine),
		zap.String("utxo-layout", cfg.Layout),
	)

	contractID, err := ids.ShortFromHex(cfg.ContractID)
	if err != nil {
		return fmt.Errorf("channeld: contract-id: %w", err)
	}
	holding, err := ids.ShortFromHex(cfg.Holding)
	if err != nil {
		return fmt.Errorf("channeld: holding: %w", err)
	}

	kv, err := storage.Open(storage.Engine(cfg.DBEngine), cfg.DBDir)
	if err != nil {
		return fmt.Errorf("channeld: open storage: %w", err)
	}
	defer kv.Close() //nolint:errcheck

	var utxoStore store.Store
	switch cfg.Layout {
	case "drawer":
		utxoStore = store.NewDrawerStore(kv, []byte("utxo/"))
	default:
		utxoStore = store.NewSimpleStore(kv, []byte("utxo/"))
	}

	registry := auth.NewProviderRegistry(kv, []byte("provider/"))
	bundleEngine := bundle.NewEngine(utxoStore).WithIndex(store.NewUnspentIndex())
	authEngine := auth.NewEngine()
	asset := externalasset.NewInMemoryAsset()

	op := operator.New(contractID, holding, bundleEngine, authEngine, registry, asset, kv, []byte("supply"))

	if cfg.AdminAddr != "" {
		adminAddr, err := ids.ShortFromHex(cfg.AdminAddr)
		if err != nil {
			return fmt.Errorf("channeld: admin-address: %w", err)
		}
		op.AdminAddr = adminAddr
	}
	if cfg.AssetAddr != "" {
		assetAddr, err := ids.ShortFromHex(cfg.AssetAddr)
		if err != nil {
			return fmt.Errorf("channeld: asset-address: %w", err)
		}
		op.AssetAddr = assetAddr
	}

	if cfg.GenesisPath != "" {
		state, err := genesis.Read(cfg.GenesisPath)
		if err != nil {
			return fmt.Errorf("channeld: read genesis: %w", err)
		}
		for _, addr := range state.ProviderAddrs {
			sid, err := ids.ShortFromHex(addr)
			if err != nil {
				return fmt.Errorf("channeld: genesis provider address: %w", err)
			}
			if err := registry.Register(sid); err != nil && err != auth.ErrProviderAlreadyRegistered {
				return fmt.Errorf("channeld: seed provider: %w", err)
			}
		}
		for _, mint := range state.InitialMints {
			acct, err := ids.ShortFromHex(mint.Account)
			if err != nil {
				return fmt.Errorf("channeld: genesis mint account: %w", err)
			}
			if err := asset.Mint(ctx, acct, mint.Amount); err != nil {
				return fmt.Errorf("channeld: genesis mint: %w", err)
			}
		}
		log.Info("seeded genesis",
			zap.String("path", cfg.GenesisPath),
			zap.Int("providers", len(state.ProviderAddrs)),
			zap.Int("initial-mints", len(state.InitialMints)),
		)
	}

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	if cfg.MetricsEnabled {
		if _, err := metrics.New("channeld", registerer); err != nil {
			return fmt.Errorf("channeld: register metrics: %w", err)
		}
	}

	tp, err := telemetry.New(ctx, telemetry.Config{
		ServiceName: "channeld",
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    true,
	})
	if err != nil {
		return fmt.Errorf("channeld: build tracer: %w", err)
	}
	defer tp.Shutdown(context.Background()) //nolint:errcheck

	traced := tp.Trace(op)

	var hub *api.Hub
	if cfg.EmitBundleEvents {
		hub = api.NewHub()
	}
	limiter := ratelimit.NewPerAccount(func() ratelimit.Throttler {
		return ratelimit.NewStaticBackoffThrottler(cfg.TransactRatePerSecond, cfg.TransactBackoff)
	})
	svc := api.NewTracedService(op, traced, hub).WithRateLimit(limiter)

	srv, err := api.New(api.Options{
		Addr:          fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort),
		CORSEnabled:   cfg.CORSEnabled,
		ProxyProtocol: cfg.ProxyProto,
	}, svc, hub)
	if err != nil {
		return fmt.Errorf("channeld: build server: %w", err)
	}

	if cfg.MetricsEnabled {
		go serveMetrics(log)
	}

	serveCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("listening", zap.String("addr", cfg.HTTPHost), zap.Uint16("port", cfg.HTTPPort))
	return srv.ListenAndServe(serveCtx)
}

func serveMetrics(log *zap.Logger) {
	addr := "127.0.0.1:9651"
	log.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
		log.Warn("metrics server stopped", zap.Error(err))
	}
}
