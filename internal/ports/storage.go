package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// SignalStorage persiste las señales emitidas en cada ciclo de evaluación.
type SignalStorage interface {
	// SaveSignals persiste las señales de un ciclo.
	SaveSignals(ctx context.Context, signals []domain.Signal) error

	// GetHistory devuelve las señales registradas en el rango de tiempo dado.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.Signal, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
