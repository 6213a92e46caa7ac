package ports

import (
	"context"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// MarketProvider obtiene los mercados activos desde el CLOB.
type MarketProvider interface {
	// FetchMarkets devuelve todos los mercados binarios activos.
	// Pagina automáticamente hasta obtener todos los resultados.
	FetchMarkets(ctx context.Context) ([]domain.Market, error)
}
