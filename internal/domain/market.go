package domain

import "time"

// Market representa un mercado de predicción binario en Polymarket.
type Market struct {
	MarketID   string
	Question   string    // enriquecido desde Gamma
	Slug       string    // enriquecido desde Gamma
	TokenIDYes string
	TokenIDNo  string
	YesPrice   float64   // último precio del token YES en el CLOB
	NoPrice    float64   // último precio del token NO en el CLOB
	EndDate    time.Time // fecha de resolución, enriquecido desde Gamma
	Volume24h  float64   // volumen últimas 24h en USDC
	Liquidity  float64   // liquidez agregada reportada por Gamma
	Active     bool
	Closed     bool
}

// HasResolutionDate devuelve true si el mercado tiene fecha de resolución conocida.
func (m Market) HasResolutionDate() bool {
	return !m.EndDate.IsZero()
}

// HoursToResolution devuelve las horas hasta que el mercado se resuelve,
// medidas desde now. Devuelve 0 si EndDate no está definido o ya pasó.
func (m Market) HoursToResolution(now time.Time) float64 {
	if m.EndDate.IsZero() {
		return 0
	}
	h := m.EndDate.Sub(now).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// HasValidPrices devuelve true si ambos precios están en el rango (0,1) exclusivo.
// Precios fuera de rango indican datos corruptos o un mercado ya resuelto.
func (m Market) HasValidPrices() bool {
	return m.YesPrice > 0 && m.YesPrice < 1 && m.NoPrice > 0 && m.NoPrice < 1
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen caracteres.
// Si la pregunta está vacía usa los primeros caracteres del marketID como fallback.
func TruncateQuestion(question, marketID string, maxLen int) string {
	q := question
	if q == "" {
		if len(marketID) > 20 {
			q = marketID[:20] + "..."
		} else {
			q = marketID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
