package domain

import "time"

// QuoteStatus representa el ciclo de vida de una quote maker.
type QuoteStatus string

const (
	QuoteStatusPending   QuoteStatus = "PENDING"
	QuoteStatusPosted    QuoteStatus = "POSTED"
	QuoteStatusFilled    QuoteStatus = "FILLED"
	QuoteStatusCancelled QuoteStatus = "CANCELLED"
	QuoteStatusExpired   QuoteStatus = "EXPIRED"
)

// Quote es un par bid/ask que el bot mantiene en un mercado.
// PostOnly es siempre true: el bot nunca cruza el spread.
type Quote struct {
	ID           string
	MarketID     string
	Bid          float64
	Ask          float64
	Size         float64 // USDC por lado
	Status       QuoteStatus
	CreatedAt    time.Time
	ExpiresAt    time.Time
	PostOnly     bool
	FilledSize   float64
	CancelReason string
}

// Age devuelve la edad de la quote respecto a now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.CreatedAt)
}

// IsExpired devuelve true si la quote venció según el reloj de pared.
// La expiración se evalúa lazy en cada consulta, nunca con timers.
func (q Quote) IsExpired(now time.Time) bool {
	return !q.ExpiresAt.IsZero() && !now.Before(q.ExpiresAt)
}

// IsActive devuelve true si la quote está posteada y no vencida.
func (q Quote) IsActive(now time.Time) bool {
	return q.Status == QuoteStatusPosted && !q.IsExpired(now)
}
