package settlement

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// maxSpreadSentinelBPS se devuelve cuando falta un lado del book: el mercado
// se trata como si tuviera el peor spread posible en vez de saltarse.
const maxSpreadSentinelBPS = 10000.0

// DetectorConfig acota qué cuenta como mercado apto para la ventana de resolución.
type DetectorConfig struct {
	MinWindowHours     float64
	MaxWindowHours     float64
	MinVolume24h       float64
	MaxSpreadBPS       float64
	MinLiquidityScore  float64
	MaxVolatilityScore float64
}

// Detector clasifica la aptitud de un mercado para operar la ventana de
// resolución a partir de su fecha, la profundidad del book y el spread.
type Detector struct {
	cfg DetectorConfig
	now func() time.Time
}

// NewDetector crea un detector con los límites dados.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg, now: time.Now}
}

// SetNow inyecta el reloj para tests deterministas.
func (d *Detector) SetNow(now func() time.Time) {
	d.now = now
}

// Detect evalúa el mercado contra los checks de aptitud en orden fijo:
// ventana de resolución, volumen, spread, liquidez, volatilidad. El primer
// check que falla fija Reason, no hay score combinado.
func (d *Detector) Detect(m domain.Market, book domain.OrderBook) domain.MarketState {
	state := domain.MarketState{Volume24h: m.Volume24h}

	if !m.HasResolutionDate() {
		state.Reason = "no resolution date"
		return state
	}

	state.HoursToResolution = m.HoursToResolution(d.now())
	state.InWindow = state.HoursToResolution >= d.cfg.MinWindowHours &&
		state.HoursToResolution <= d.cfg.MaxWindowHours

	depth := book.TotalDepthUSDC()
	state.VolatilityScore = VolatilityScore(depth)
	state.LiquidityScore = LiquidityScore(depth)
	state.SpreadBPS = SpreadBPS(book)

	switch {
	case !state.InWindow:
		state.Reason = fmt.Sprintf("outside resolution window: %.1fh not in [%.1f, %.1f]",
			state.HoursToResolution, d.cfg.MinWindowHours, d.cfg.MaxWindowHours)
	case m.Volume24h < d.cfg.MinVolume24h:
		state.Reason = fmt.Sprintf("volume $%.0f below minimum $%.0f",
			m.Volume24h, d.cfg.MinVolume24h)
	case state.SpreadBPS > d.cfg.MaxSpreadBPS:
		state.Reason = fmt.Sprintf("spread %.0f bps above maximum %.0f",
			state.SpreadBPS, d.cfg.MaxSpreadBPS)
	case state.LiquidityScore < d.cfg.MinLiquidityScore:
		state.Reason = fmt.Sprintf("liquidity score %.1f below minimum %.1f",
			state.LiquidityScore, d.cfg.MinLiquidityScore)
	case state.VolatilityScore > d.cfg.MaxVolatilityScore:
		state.Reason = fmt.Sprintf("volatility score %.1f above maximum %.1f",
			state.VolatilityScore, d.cfg.MaxVolatilityScore)
	default:
		state.IsSuitable = true
		state.Reason = "suitable for settlement-window trading"
	}
	return state
}

// VolatilityScore mapea la profundidad total del book a un proxy de
// volatilidad: un book profundo absorbe flujo y se mueve menos. Función
// escalonada, no continua.
func VolatilityScore(depthUSDC float64) float64 {
	switch {
	case depthUSDC >= 10000:
		return 0.1
	case depthUSDC >= 5000:
		return 0.3
	case depthUSDC >= 1000:
		return 0.5
	case depthUSDC >= 500:
		return 0.7
	default:
		return 0.9
	}
}

// LiquidityScore mapea la profundidad total del book a [0,1].
func LiquidityScore(depthUSDC float64) float64 {
	switch {
	case depthUSDC >= 10000:
		return 1.0
	case depthUSDC >= 5000:
		return 0.8
	case depthUSDC >= 1000:
		return 0.6
	case depthUSDC >= 500:
		return 0.4
	case depthUSDC >= 100:
		return 0.2
	default:
		return 0.1
	}
}

// SpreadBPS calcula |best_ask - best_bid| / mid en basis points. Si falta
// un lado del book devuelve el spread centinela máximo.
func SpreadBPS(book domain.OrderBook) float64 {
	bid := book.BestBid()
	ask := book.BestAsk()
	if bid == 0 || ask == 0 {
		return maxSpreadSentinelBPS
	}
	mid := (bid + ask) / 2
	if mid == 0 {
		return maxSpreadSentinelBPS
	}
	bps := (ask - bid) / mid * 10000
	if bps < 0 {
		bps = -bps
	}
	return bps
}
