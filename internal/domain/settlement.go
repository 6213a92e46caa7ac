package domain

// MarketState clasifica la aptitud de un mercado para trading de ventana
// de resolución. El primer check que falla determina Reason (short-circuit,
// no hay score combinado).
type MarketState struct {
	InWindow          bool
	HoursToResolution float64
	VolatilityScore   float64 // [0,1], book más profundo ⇒ menos volatilidad
	LiquidityScore    float64 // [0,1]
	SpreadBPS         float64
	Volume24h         float64
	IsSuitable        bool
	Reason            string
}

// DisputeLevel es el nivel categórico de riesgo de disputa.
type DisputeLevel string

const (
	DisputeLevelLow     DisputeLevel = "low"
	DisputeLevelMedium  DisputeLevel = "medium"
	DisputeLevelHigh    DisputeLevel = "high"
	DisputeLevelExtreme DisputeLevel = "extreme"
)

// DisputeRiskAssessment es el resultado del filtro de riesgo de disputa.
type DisputeRiskAssessment struct {
	RiskScore       float64 // [0,1]
	Level           DisputeLevel
	MatchedKeywords []string
	KeywordRisk     float64 // contribución de keywords
	VolatilityRisk  float64 // contribución de volatilidad
	UncertaintyRisk float64 // contribución de incertidumbre de resolución
	IsAcceptable    bool
}

// CarryCostCalculation es el coste de oportunidad del capital bloqueado
// hasta la resolución del mercado.
type CarryCostCalculation struct {
	HoursToResolution float64
	DaysToResolution  float64
	CapitalUSDC       float64
	DailyRate         float64
	TotalCost         float64
	CostPctOfCapital  float64
	IsAcceptable      bool
}
