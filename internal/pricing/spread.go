package pricing

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

const (
	// bpsScale es la escala interna del modelo: 50 bps sobre mid 0.50 produce
	// el par canónico 0.4875/0.5125. La misma escala se usa para el spread
	// realizado, así los límites [min,max] de config son coherentes.
	bpsScale = 1000.0

	// minPrice/maxPrice mantienen los precios válidos para outcomes binarios.
	minPrice = 0.001
	maxPrice = 0.999

	// tick es la separación mínima garantizada entre bid/mid y mid/ask.
	tick = 0.0001
)

// Model es el modelo de pricing del spread: fixed | volatility | inventory.
type Model string

const (
	ModelFixed      Model = "fixed"
	ModelVolatility Model = "volatility"
	ModelInventory  Model = "inventory"
)

// Config parametriza el cálculo del spread.
type Config struct {
	Model            Model
	DefaultSpreadBPS float64
	MinSpreadBPS     float64
	MaxSpreadBPS     float64
	MaxPriceShiftPct float64 // shift direccional máximo como fracción del mid
}

// SpreadModel calcula un par bid/ask desde mid, volatilidad y skew de
// inventario. Es puro: no guarda estado entre llamadas.
type SpreadModel struct {
	cfg Config
}

// NewSpreadModel crea el modelo con la configuración dada.
func NewSpreadModel(cfg Config) *SpreadModel {
	return &SpreadModel{cfg: cfg}
}

// Calculate produce la quote para un mid dado.
//
// El half-spread base sale del modelo configurado; el skew aplica un shift
// direccional de hasta MaxPriceShiftPct del mid que favorece deshacer el
// inventario actual (skew positivo empuja ambos precios hacia abajo: el ask
// baja para vender inventario, el bid baja para comprar menos). Los precios
// se recortan a (0,1) con bid < mid < ask, y la aceptabilidad se juzga sobre
// el spread realizado recalculado desde los precios finales — si el clamping
// lo sacó de [min,max], el cálculo se rechaza con razón, no se acepta en
// silencio.
func (s *SpreadModel) Calculate(mid, volatility, skew float64) domain.SpreadCalculation {
	calc := domain.SpreadCalculation{MidPrice: mid, SkewFactor: skew}

	if mid <= 0 || mid >= 1 {
		calc.Reason = fmt.Sprintf("mid price %.4f outside (0,1)", mid)
		return calc
	}

	spreadBPS := s.baseSpreadBPS(volatility, skew)
	half := mid * (spreadBPS / bpsScale) / 2

	shift := -skew * s.cfg.MaxPriceShiftPct * mid

	bid := mid - half + shift
	ask := mid + half + shift

	// recorte a precios binarios válidos, manteniendo bid < mid < ask
	bid = math.Max(bid, minPrice)
	ask = math.Min(ask, maxPrice)
	bid = math.Min(bid, mid-tick)
	ask = math.Max(ask, mid+tick)

	calc.Bid = bid
	calc.Ask = ask
	calc.SpreadBPS = (ask - bid) / mid * bpsScale

	if calc.SpreadBPS < s.cfg.MinSpreadBPS {
		calc.Reason = fmt.Sprintf("realized spread %.1f bps below minimum %.1f",
			calc.SpreadBPS, s.cfg.MinSpreadBPS)
		return calc
	}
	if calc.SpreadBPS > s.cfg.MaxSpreadBPS {
		calc.Reason = fmt.Sprintf("realized spread %.1f bps above maximum %.1f",
			calc.SpreadBPS, s.cfg.MaxSpreadBPS)
		return calc
	}

	calc.IsAcceptable = true
	calc.Reason = "spread within bounds"
	return calc
}

// baseSpreadBPS devuelve el spread nominal en bps según el modelo.
func (s *SpreadModel) baseSpreadBPS(volatility, skew float64) float64 {
	base := s.cfg.DefaultSpreadBPS

	switch s.cfg.Model {
	case ModelFixed:
		return base
	case ModelVolatility:
		return s.clampBPS(base * (1 + 2*volatility))
	case ModelInventory:
		adjusted := s.clampBPS(base * (1 + 2*volatility))
		return s.clampBPS(adjusted * (1 + 0.5*math.Abs(skew)))
	default:
		return base
	}
}

func (s *SpreadModel) clampBPS(bps float64) float64 {
	if bps < s.cfg.MinSpreadBPS {
		return s.cfg.MinSpreadBPS
	}
	if bps > s.cfg.MaxSpreadBPS {
		return s.cfg.MaxSpreadBPS
	}
	return bps
}
