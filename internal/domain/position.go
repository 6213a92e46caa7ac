package domain

import "time"

// Side es la dirección de una posición o trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite devuelve el lado contrario.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Position es una posición abierta en un mercado. El ledger mantiene como
// máximo una por mercado; el invariante es Size > 0 mientras exista — una
// posición cuyo neto cruza cero se borra, nunca se guarda en negativo.
type Position struct {
	MarketID      string
	Side          Side
	Size          float64 // notional USDC, siempre > 0
	EntryPrice    float64 // promedio ponderado por tamaño
	LastPrice     float64
	UnrealizedPnL float64
	OpenedAt      time.Time
}

// InventoryMetrics es el snapshot derivado del inventario, nunca se almacena.
type InventoryMetrics struct {
	LongExposure   float64
	ShortExposure  float64
	NetExposure    float64
	GrossExposure  float64
	InventorySkew  float64 // net / max_total_exposure, recortado a [-1, 1]
	UtilizationPct float64 // gross / max_total_exposure, recortado a [0, 1]
	PositionCount  int
}
