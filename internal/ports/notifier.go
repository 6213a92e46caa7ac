package ports

import (
	"context"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// Notifier presenta las señales generadas al usuario.
type Notifier interface {
	// Notify muestra las señales ordenadas por beneficio esperado.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, signals []domain.Signal) error
}
