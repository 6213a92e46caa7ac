package domain

import "time"

// SignalType clasifica la acción que propone una señal.
type SignalType string

const (
	SignalTypeQuote     SignalType = "QUOTE"    // market making: postear bid/ask
	SignalTypeBuyBoth   SignalType = "BUY_BOTH" // settlement lag: comprar YES+NO bajo par
	SignalTypeTailBuy   SignalType = "TAIL_BUY" // tail risk: comprar el lado barato
	SignalTypeTailHedge SignalType = "TAIL_HEDGE"
)

// Tags de riesgo fijos por estrategia. Viajan con cada señal para que el
// consumidor sepa qué límites se aplicaron al generarla.
var (
	MarketMakingRiskTags  = []string{"post_only", "inventory_capped", "cancel_rate_limited"}
	SettlementLagRiskTags = []string{"resolution_window", "dispute_filtered", "carry_bounded"}
	TailRiskRiskTags      = []string{"kelly_capped", "cluster_capped", "worst_case_bounded"}
)

// Signal es el output del motor: una propuesta de trade ya validada contra
// todos los límites de riesgo. El consumidor (capa de ejecución) la trata
// como snapshot de solo lectura.
type Signal struct {
	Strategy       string
	MarketID       string
	Question       string
	Type           SignalType
	ExpectedProfit float64 // USDC
	TradeSize      float64 // USDC
	YesPrice       float64
	NoPrice        float64
	Bid            float64 // solo market making
	Ask            float64 // solo market making
	Confidence     float64 // [0,1]
	Reason         string
	RiskTags       []string
	CreatedAt      time.Time

	// Campos de riesgo específicos por estrategia; cero si no aplican.
	InventorySkew float64
	SpreadBPS     float64
	QuoteID       string
	DisputeScore  float64
	CarryCost     float64
	WorstCaseLoss float64
	Cluster       string
	KellyFraction float64
	Hedge         *HedgePosition
}
