package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/polyquant/config"
	"github.com/alejandrodnm/polyquant/internal/adapters/notify"
	"github.com/alejandrodnm/polyquant/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyquant/internal/adapters/storage"
	"github.com/alejandrodnm/polyquant/internal/engine"
	"github.com/alejandrodnm/polyquant/internal/inventory"
	"github.com/alejandrodnm/polyquant/internal/pricing"
	"github.com/alejandrodnm/polyquant/internal/quotes"
	"github.com/alejandrodnm/polyquant/internal/settlement"
	"github.com/alejandrodnm/polyquant/internal/strategy"
	"github.com/alejandrodnm/polyquant/internal/tailrisk"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one evaluation cycle and exit")
	dryRun := flag.Bool("dry-run", false, "single cycle, no storage writes")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full signal table (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("polyquant starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"dry_run", *dryRun,
		"once", *once,
	)

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)

	var store *storage.SQLiteStorage
	if !*dryRun {
		store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	notifier := notify.NewConsole(*table)

	ledger := inventory.NewLedger(inventory.Config{
		MaxPositionUSDC:      cfg.Inventory.MaxPositionUSDC,
		MaxTotalExposureUSDC: cfg.Inventory.MaxTotalExposureUSDC,
		MaxSkew:              cfg.Inventory.MaxSkew,
	})
	quoteMgr := quotes.NewManager(quotes.Config{
		MaxAge:              time.Duration(cfg.Quotes.MaxAgeSeconds) * time.Second,
		Expiry:              time.Duration(cfg.Quotes.ExpirySeconds) * time.Second,
		MaxCancelsPerMinute: cfg.Quotes.MaxCancelsPerMinute,
	})
	spreadModel := pricing.NewSpreadModel(pricing.Config{
		Model:            pricing.Model(cfg.Spread.Model),
		DefaultSpreadBPS: cfg.Spread.DefaultSpreadBPS,
		MinSpreadBPS:     cfg.Spread.MinSpreadBPS,
		MaxSpreadBPS:     cfg.Spread.MaxSpreadBPS,
		MaxPriceShiftPct: cfg.Spread.MaxPriceShiftPct,
	})

	detector := settlement.NewDetector(settlement.DetectorConfig{
		MinWindowHours:     cfg.Settlement.MinWindowHours,
		MaxWindowHours:     cfg.Settlement.MaxWindowHours,
		MinVolume24h:       cfg.Settlement.MinVolume24h,
		MaxSpreadBPS:       cfg.Settlement.MaxSpreadBPS,
		MinLiquidityScore:  cfg.Settlement.MinLiquidityScore,
		MaxVolatilityScore: cfg.Settlement.MaxVolatilityScore,
	})
	disputeFilter := settlement.NewDisputeFilter(settlement.DisputeConfig{
		MaxDisputeRisk:            cfg.Settlement.MaxDisputeRisk,
		MaxVolatilityContribution: cfg.Settlement.MaxVolatilityContribution,
	})
	carryModel := settlement.NewCarryModel(settlement.CarryConfig{
		DailyRate:   cfg.Settlement.DailyCarryRate,
		MaxCarryPct: cfg.Settlement.MaxCarryPct,
	})

	selector := tailrisk.NewSelector(tailrisk.SelectorConfig{
		MinTailProbability: cfg.TailRisk.MinTailProbability,
		MaxTailProbability: cfg.TailRisk.MaxTailProbability,
		MinPayoutRatio:     cfg.TailRisk.MinPayoutRatio,
	})
	sizer := tailrisk.NewSizer(tailrisk.SizerConfig{
		KellyMultiplier:        cfg.TailRisk.KellyMultiplier,
		CapitalUSDC:            cfg.TailRisk.CapitalUSDC,
		MaxPositionLossUSDC:    cfg.TailRisk.MaxPositionLossUSDC,
		MaxClusterExposureUSDC: cfg.TailRisk.MaxClusterExposureUSDC,
		MinStakeUSDC:           cfg.TailRisk.MinStakeUSDC,
	})
	hedger := tailrisk.NewHedgeEvaluator(tailrisk.HedgeConfig{
		MinHedgeRatio:   cfg.TailRisk.MinHedgeRatio,
		MaxHedgeCostPct: cfg.TailRisk.MaxHedgeCostPct,
	})

	var strategies []strategy.Strategy
	if cfg.Engine.MarketMaking {
		strategies = append(strategies, strategy.NewMarketMaking(strategy.MarketMakingConfig{
			Enabled:       true,
			OrderSizeUSDC: cfg.Inventory.OrderSizeUSDC,
			MaxSpreadBPS:  cfg.Spread.MaxSpreadBPS,
		}, ledger, quoteMgr, spreadModel))
	}
	if cfg.Engine.SettlementLag {
		strategies = append(strategies, strategy.NewSettlementLag(strategy.SettlementLagConfig{
			Enabled:        true,
			TradeSizeUSDC:  cfg.Settlement.TradeSizeUSDC,
			MaxWindowHours: cfg.Settlement.MaxWindowHours,
		}, detector, disputeFilter, carryModel))
	}
	if cfg.Engine.TailRisk {
		strategies = append(strategies, strategy.NewTailRisk(strategy.TailRiskConfig{
			Enabled:        true,
			EdgeMultiplier: cfg.TailRisk.EdgeMultiplier,
		}, selector, sizer, hedger))
	}
	if len(strategies) == 0 {
		slog.Error("no strategies enabled, check the engine section of the config")
		os.Exit(1)
	}

	engineCfg := engine.Config{
		ScanInterval: cfg.ScanInterval(),
		DryRun:       *dryRun || *once,
	}

	var eng *engine.Engine
	if store != nil {
		eng = engine.New(engineCfg, client, client, store, notifier, strategies, quoteMgr)
	} else {
		eng = engine.New(engineCfg, client, client, nil, notifier, strategies, quoteMgr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := eng.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("polyquant stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
}
