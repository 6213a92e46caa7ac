package inventory

import (
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// Config son los límites duros del inventario.
type Config struct {
	MaxPositionUSDC      float64 // tamaño máximo por mercado
	MaxTotalExposureUSDC float64 // exposición gross máxima
	MaxSkew              float64 // |skew| máximo permitido al abrir
}

// Ledger mantiene como máximo una posición abierta por mercado y deriva las
// métricas de inventario bajo demanda. No usa locks: el motor es su único
// dueño y toda mutación ocurre en la goroutine del ciclo de evaluación.
type Ledger struct {
	cfg       Config
	positions map[string]*domain.Position
	now       func() time.Time
}

// NewLedger crea un ledger vacío con los límites dados.
func NewLedger(cfg Config) *Ledger {
	return &Ledger{
		cfg:       cfg,
		positions: make(map[string]*domain.Position),
		now:       time.Now,
	}
}

// SetNow inyecta el reloj, para tests deterministas.
func (l *Ledger) SetNow(now func() time.Time) {
	l.now = now
}

// UpdatePosition aplica un trade al ledger y devuelve la posición resultante,
// o nil si el trade cerró (o volteó) la posición.
//
// Mismo lado: crece y recalcula el entry price como promedio ponderado.
// Lado contrario: reduce; si el neto queda en <= 0 la posición se borra —
// nunca se mantiene una posición con tamaño negativo.
func (l *Ledger) UpdatePosition(marketID string, side domain.Side, size, price float64) *domain.Position {
	if size <= 0 {
		return l.positions[marketID]
	}

	pos, exists := l.positions[marketID]
	if !exists {
		pos = &domain.Position{
			MarketID:   marketID,
			Side:       side,
			Size:       size,
			EntryPrice: price,
			LastPrice:  price,
			OpenedAt:   l.now(),
		}
		pos.UnrealizedPnL = (price - pos.EntryPrice) * pos.Size
		l.positions[marketID] = pos
		return pos
	}

	if side == pos.Side {
		newSize := pos.Size + size
		pos.EntryPrice = (pos.EntryPrice*pos.Size + price*size) / newSize
		pos.Size = newSize
	} else {
		pos.Size -= size
		if pos.Size <= 0 {
			// cerrada o volteada: se borra, no se guarda el remanente
			delete(l.positions, marketID)
			return nil
		}
	}

	pos.LastPrice = price
	pos.UnrealizedPnL = (price - pos.EntryPrice) * pos.Size
	return pos
}

// Position devuelve la posición abierta en un mercado, o nil.
func (l *Ledger) Position(marketID string) *domain.Position {
	return l.positions[marketID]
}

// Metrics recalcula las métricas de inventario desde cero. El skew se recorta
// siempre a [-1,1]; un cap de exposición cero produce skew 0, no una división
// por cero.
func (l *Ledger) Metrics() domain.InventoryMetrics {
	var long, short float64
	for _, p := range l.positions {
		if p.Side == domain.SideBuy {
			long += p.Size
		} else {
			short += p.Size
		}
	}

	m := domain.InventoryMetrics{
		LongExposure:  long,
		ShortExposure: short,
		NetExposure:   long - short,
		GrossExposure: long + short,
		PositionCount: len(l.positions),
	}

	if l.cfg.MaxTotalExposureUSDC > 0 {
		m.InventorySkew = clamp(m.NetExposure/l.cfg.MaxTotalExposureUSDC, -1, 1)
		m.UtilizationPct = math.Min(m.GrossExposure/l.cfg.MaxTotalExposureUSDC, 1)
	}
	return m
}

// CanOpenPosition comprueba los tres límites contra un snapshot fresco:
// cap por mercado, cap gross proyectado y skew proyectado. Devuelve false
// con la razón del primer límite violado.
func (l *Ledger) CanOpenPosition(marketID string, size float64, side domain.Side) (bool, string) {
	if size > l.cfg.MaxPositionUSDC {
		return false, fmt.Sprintf("position size $%.2f exceeds limit $%.2f",
			size, l.cfg.MaxPositionUSDC)
	}

	m := l.Metrics()

	projectedGross := m.GrossExposure + size
	if projectedGross > l.cfg.MaxTotalExposureUSDC {
		return false, fmt.Sprintf("projected gross exposure $%.2f exceeds limit $%.2f",
			projectedGross, l.cfg.MaxTotalExposureUSDC)
	}

	projectedNet := m.NetExposure
	if side == domain.SideBuy {
		projectedNet += size
	} else {
		projectedNet -= size
	}
	if l.cfg.MaxTotalExposureUSDC > 0 {
		projectedSkew := projectedNet / l.cfg.MaxTotalExposureUSDC
		if math.Abs(projectedSkew) > l.cfg.MaxSkew {
			return false, fmt.Sprintf("projected skew %.3f exceeds limit %.3f",
				projectedSkew, l.cfg.MaxSkew)
		}
	}

	return true, ""
}

// Positions devuelve un snapshot de las posiciones abiertas.
func (l *Ledger) Positions() []domain.Position {
	out := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
