package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot. Se construye una vez en el
// arranque y se pasa por referencia a cada componente — no hay estado global.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	API        APIConfig        `yaml:"api"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
	Inventory  InventoryConfig  `yaml:"inventory"`
	Quotes     QuotesConfig     `yaml:"quotes"`
	Spread     SpreadConfig     `yaml:"spread"`
	Settlement SettlementConfig `yaml:"settlement"`
	TailRisk   TailRiskConfig   `yaml:"tail_risk"`
}

// EngineConfig controla el loop de evaluación y qué estrategias corren.
type EngineConfig struct {
	IntervalSeconds int  `yaml:"interval_seconds"`
	MarketMaking    bool `yaml:"market_making"`
	SettlementLag   bool `yaml:"settlement_lag"`
	TailRisk        bool `yaml:"tail_risk"`
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
}

// StorageConfig controla dónde se persisten las señales.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato, nivel y destino del logging.
type LogConfig struct {
	Level      string `yaml:"level"`        // debug | info | warn | error
	Format     string `yaml:"format"`       // text | json
	File       string `yaml:"file"`         // vacío = solo stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`  // rotación lumberjack
	MaxBackups int    `yaml:"max_backups"`
}

// InventoryConfig son los límites duros del ledger de posiciones.
type InventoryConfig struct {
	MaxPositionUSDC      float64 `yaml:"max_position_usdc"`       // cap por mercado
	MaxTotalExposureUSDC float64 `yaml:"max_total_exposure_usdc"` // cap gross
	MaxSkew              float64 `yaml:"max_skew"`                // |net/cap| máximo
	OrderSizeUSDC        float64 `yaml:"order_size_usdc"`
}

// QuotesConfig controla el ciclo de vida de las quotes.
type QuotesConfig struct {
	MaxAgeSeconds       int `yaml:"max_age_seconds"`        // quote stale a partir de aquí
	ExpirySeconds       int `yaml:"expiry_seconds"`         // vencimiento por reloj de pared
	MaxCancelsPerMinute int `yaml:"max_cancels_per_minute"` // techo de la ventana rodante
}

// SpreadConfig parametriza el modelo de pricing de spread.
type SpreadConfig struct {
	Model            string  `yaml:"model"` // fixed | volatility | inventory
	DefaultSpreadBPS float64 `yaml:"default_spread_bps"`
	MinSpreadBPS     float64 `yaml:"min_spread_bps"`
	MaxSpreadBPS     float64 `yaml:"max_spread_bps"`
	MaxPriceShiftPct float64 `yaml:"max_price_shift_pct"` // shift direccional máximo sobre mid
}

// SettlementConfig agrupa detector de ventana, filtro de disputas y carry.
type SettlementConfig struct {
	MinWindowHours            float64 `yaml:"min_window_hours"`
	MaxWindowHours            float64 `yaml:"max_window_hours"`
	MinVolume24h              float64 `yaml:"min_volume_24h"`
	MaxSpreadBPS              float64 `yaml:"max_spread_bps"`
	MinLiquidityScore         float64 `yaml:"min_liquidity_score"`
	MaxVolatilityScore        float64 `yaml:"max_volatility_score"`
	MaxDisputeRisk            float64 `yaml:"max_dispute_risk"`
	MaxVolatilityContribution float64 `yaml:"max_volatility_contribution"`
	DailyCarryRate            float64 `yaml:"daily_carry_rate"`
	MaxCarryPct               float64 `yaml:"max_carry_pct"`
	TradeSizeUSDC             float64 `yaml:"trade_size_usdc"`
}

// TailRiskConfig parametriza selección, sizing Kelly y hedging de colas.
type TailRiskConfig struct {
	MinTailProbability     float64 `yaml:"min_tail_probability"`
	MaxTailProbability     float64 `yaml:"max_tail_probability"`
	MinPayoutRatio         float64 `yaml:"min_payout_ratio"`
	KellyMultiplier        float64 `yaml:"kelly_multiplier"` // ej. 0.25 = quarter-Kelly
	EdgeMultiplier         float64 `yaml:"edge_multiplier"`  // ajuste sobre la prob implícita
	CapitalUSDC            float64 `yaml:"capital_usdc"`
	MaxPositionLossUSDC    float64 `yaml:"max_position_loss_usdc"`
	MaxClusterExposureUSDC float64 `yaml:"max_cluster_exposure_usdc"`
	MinStakeUSDC           float64 `yaml:"min_stake_usdc"`
	MinHedgeRatio          float64 `yaml:"min_hedge_ratio"`
	MaxHedgeCostPct        float64 `yaml:"max_hedge_cost_pct"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// ScanInterval devuelve el intervalo de evaluación como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Engine.IntervalSeconds) * time.Second
}

// Validate comprueba que los límites numéricos estén en rango antes de usarse.
// Los componentes del motor asumen valores ya validados.
func (c *Config) Validate() error {
	if c.Inventory.MaxPositionUSDC < 0 || c.Inventory.MaxTotalExposureUSDC < 0 {
		return fmt.Errorf("inventory caps must be non-negative")
	}
	if c.Inventory.MaxSkew < 0 || c.Inventory.MaxSkew > 1 {
		return fmt.Errorf("inventory.max_skew %v out of range [0,1]", c.Inventory.MaxSkew)
	}
	if c.Quotes.MaxCancelsPerMinute < 1 {
		return fmt.Errorf("quotes.max_cancels_per_minute must be >= 1")
	}
	if c.Spread.MinSpreadBPS < 0 || c.Spread.MaxSpreadBPS < c.Spread.MinSpreadBPS {
		return fmt.Errorf("spread bps bounds invalid: min=%v max=%v",
			c.Spread.MinSpreadBPS, c.Spread.MaxSpreadBPS)
	}
	switch c.Spread.Model {
	case "fixed", "volatility", "inventory":
	default:
		return fmt.Errorf("spread.model %q unknown (fixed|volatility|inventory)", c.Spread.Model)
	}
	if c.Settlement.MaxDisputeRisk < 0 || c.Settlement.MaxDisputeRisk > 1 {
		return fmt.Errorf("settlement.max_dispute_risk %v out of range [0,1]", c.Settlement.MaxDisputeRisk)
	}
	if c.Settlement.DailyCarryRate < 0 || c.Settlement.MaxCarryPct < 0 {
		return fmt.Errorf("settlement carry values must be non-negative")
	}
	if c.TailRisk.KellyMultiplier <= 0 || c.TailRisk.KellyMultiplier > 1 {
		return fmt.Errorf("tail_risk.kelly_multiplier %v out of range (0,1]", c.TailRisk.KellyMultiplier)
	}
	if c.TailRisk.MinTailProbability <= 0 || c.TailRisk.MaxTailProbability >= 1 ||
		c.TailRisk.MinTailProbability > c.TailRisk.MaxTailProbability {
		return fmt.Errorf("tail probability band invalid: [%v, %v]",
			c.TailRisk.MinTailProbability, c.TailRisk.MaxTailProbability)
	}
	if c.TailRisk.MaxHedgeCostPct < 0 || c.TailRisk.MaxHedgeCostPct > 1 {
		return fmt.Errorf("tail_risk.max_hedge_cost_pct %v out of range [0,1]", c.TailRisk.MaxHedgeCostPct)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLYQUANT_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.IntervalSeconds <= 0 {
		cfg.Engine.IntervalSeconds = 30
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyquant.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 3
	}

	if cfg.Inventory.MaxPositionUSDC <= 0 {
		cfg.Inventory.MaxPositionUSDC = 100
	}
	if cfg.Inventory.MaxTotalExposureUSDC <= 0 {
		cfg.Inventory.MaxTotalExposureUSDC = 1000
	}
	if cfg.Inventory.MaxSkew <= 0 {
		cfg.Inventory.MaxSkew = 0.5
	}
	if cfg.Inventory.OrderSizeUSDC <= 0 {
		cfg.Inventory.OrderSizeUSDC = 50
	}

	if cfg.Quotes.MaxAgeSeconds <= 0 {
		cfg.Quotes.MaxAgeSeconds = 60
	}
	if cfg.Quotes.ExpirySeconds <= 0 {
		cfg.Quotes.ExpirySeconds = 300
	}
	if cfg.Quotes.MaxCancelsPerMinute <= 0 {
		cfg.Quotes.MaxCancelsPerMinute = 20
	}

	if cfg.Spread.Model == "" {
		cfg.Spread.Model = "inventory"
	}
	if cfg.Spread.DefaultSpreadBPS <= 0 {
		cfg.Spread.DefaultSpreadBPS = 50
	}
	if cfg.Spread.MinSpreadBPS <= 0 {
		cfg.Spread.MinSpreadBPS = 10
	}
	if cfg.Spread.MaxSpreadBPS <= 0 {
		cfg.Spread.MaxSpreadBPS = 200
	}
	if cfg.Spread.MaxPriceShiftPct <= 0 {
		cfg.Spread.MaxPriceShiftPct = 0.02
	}

	if cfg.Settlement.MinWindowHours <= 0 {
		cfg.Settlement.MinWindowHours = 1
	}
	if cfg.Settlement.MaxWindowHours <= 0 {
		cfg.Settlement.MaxWindowHours = 72
	}
	if cfg.Settlement.MinVolume24h <= 0 {
		cfg.Settlement.MinVolume24h = 1000
	}
	if cfg.Settlement.MaxSpreadBPS <= 0 {
		cfg.Settlement.MaxSpreadBPS = 500
	}
	if cfg.Settlement.MinLiquidityScore <= 0 {
		cfg.Settlement.MinLiquidityScore = 0.4
	}
	if cfg.Settlement.MaxVolatilityScore <= 0 {
		cfg.Settlement.MaxVolatilityScore = 0.8
	}
	if cfg.Settlement.MaxDisputeRisk <= 0 {
		cfg.Settlement.MaxDisputeRisk = 0.3
	}
	if cfg.Settlement.MaxVolatilityContribution <= 0 {
		cfg.Settlement.MaxVolatilityContribution = 0.5
	}
	if cfg.Settlement.DailyCarryRate <= 0 {
		cfg.Settlement.DailyCarryRate = 0.0002 // ~7.3% anual
	}
	if cfg.Settlement.MaxCarryPct <= 0 {
		cfg.Settlement.MaxCarryPct = 0.02
	}
	if cfg.Settlement.TradeSizeUSDC <= 0 {
		cfg.Settlement.TradeSizeUSDC = 100
	}

	if cfg.TailRisk.MinTailProbability <= 0 {
		cfg.TailRisk.MinTailProbability = 0.01
	}
	if cfg.TailRisk.MaxTailProbability <= 0 {
		cfg.TailRisk.MaxTailProbability = 0.15
	}
	if cfg.TailRisk.MinPayoutRatio <= 0 {
		cfg.TailRisk.MinPayoutRatio = 5
	}
	if cfg.TailRisk.KellyMultiplier <= 0 {
		cfg.TailRisk.KellyMultiplier = 0.25
	}
	if cfg.TailRisk.EdgeMultiplier <= 0 {
		cfg.TailRisk.EdgeMultiplier = 1.5
	}
	if cfg.TailRisk.CapitalUSDC <= 0 {
		cfg.TailRisk.CapitalUSDC = 1000
	}
	if cfg.TailRisk.MaxPositionLossUSDC <= 0 {
		cfg.TailRisk.MaxPositionLossUSDC = 150
	}
	if cfg.TailRisk.MaxClusterExposureUSDC <= 0 {
		cfg.TailRisk.MaxClusterExposureUSDC = 300
	}
	if cfg.TailRisk.MinStakeUSDC <= 0 {
		cfg.TailRisk.MinStakeUSDC = 10
	}
	if cfg.TailRisk.MinHedgeRatio <= 0 {
		cfg.TailRisk.MinHedgeRatio = 0.5
	}
	if cfg.TailRisk.MaxHedgeCostPct <= 0 {
		cfg.TailRisk.MaxHedgeCostPct = 0.1
	}
}
