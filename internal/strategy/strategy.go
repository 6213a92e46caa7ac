package strategy

import (
	"context"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// Strategy define el contrato para evaluar mercados y emitir señales.
// Cada estrategia encapsula su propia cadena de detectores y límites de
// riesgo; Evaluate corta en el primer rechazo y devuelve false sin señal.
type Strategy interface {
	// Name devuelve el identificador único de la estrategia.
	Name() string

	// Evaluate evalúa un mercado con sus orderbooks y devuelve la señal
	// generada. El segundo valor es false si algún filtro rechazó el mercado.
	Evaluate(ctx context.Context, market domain.Market, yesBook, noBook domain.OrderBook) (domain.Signal, bool)
}

// Registry mantiene las estrategias disponibles indexadas por nombre.
type Registry map[string]Strategy

// NewRegistry crea un registry vacío.
func NewRegistry() Registry {
	return make(Registry)
}

// Register añade una estrategia al registry.
func (r Registry) Register(s Strategy) {
	r[s.Name()] = s
}

// Get devuelve la estrategia por nombre.
func (r Registry) Get(name string) (Strategy, bool) {
	s, ok := r[name]
	return s, ok
}

// clamp01 recorta un score al rango [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
