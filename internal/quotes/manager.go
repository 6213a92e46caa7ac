package quotes

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/google/uuid"
)

// cancelWindow es la ventana rodante del rate limit de cancelaciones.
const cancelWindow = time.Minute

// Config controla el ciclo de vida de las quotes.
type Config struct {
	MaxAge              time.Duration // quote stale a partir de esta edad
	Expiry              time.Duration // vencimiento por reloj de pared
	MaxCancelsPerMinute int
}

// Manager es el dueño exclusivo de las quotes, indexadas por id. La expiración
// se evalúa lazy contra el reloj de pared en cada consulta, nunca con timers;
// el rate limit de cancelaciones es una lista de timestamps que se poda en
// cada llamada.
type Manager struct {
	cfg           Config
	quotes        map[string]*domain.Quote
	cancellations []time.Time
	now           func() time.Time
}

// NewManager crea un manager vacío.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:    cfg,
		quotes: make(map[string]*domain.Quote),
		now:    time.Now,
	}
}

// SetNow inyecta el reloj, para tests deterministas.
func (m *Manager) SetNow(now func() time.Time) {
	m.now = now
}

// CreateQuote crea una quote en estado PENDING. PostOnly es siempre true:
// no existe forma de construir una quote que cruce el spread.
func (m *Manager) CreateQuote(marketID string, bid, ask, size float64) *domain.Quote {
	now := m.now()
	q := &domain.Quote{
		ID:        uuid.New().String(),
		MarketID:  marketID,
		Bid:       bid,
		Ask:       ask,
		Size:      size,
		Status:    domain.QuoteStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.Expiry),
		PostOnly:  true,
	}
	m.quotes[q.ID] = q
	return q
}

// PostQuote transiciona PENDING → POSTED. Rechaza cualquier quote que no sea
// post-only aunque hoy no haya forma de construir una: el invariante se
// verifica igualmente en el punto de entrada.
func (m *Manager) PostQuote(id string) error {
	q, ok := m.quotes[id]
	if !ok {
		return fmt.Errorf("quotes.PostQuote: unknown quote %s", id)
	}
	if !q.PostOnly {
		return fmt.Errorf("quotes.PostQuote: quote %s is not post-only", id)
	}
	if q.Status != domain.QuoteStatusPending {
		return fmt.Errorf("quotes.PostQuote: quote %s is %s, not PENDING", id, q.Status)
	}
	q.Status = domain.QuoteStatusPosted
	return nil
}

// CancelQuote cancela una quote respetando el techo de cancelaciones por
// minuto. Devuelve false sin mutar la quote si el límite está agotado o la
// quote no es cancelable.
func (m *Manager) CancelQuote(id, reason string) bool {
	q, ok := m.quotes[id]
	if !ok {
		return false
	}
	if q.Status != domain.QuoteStatusPending && q.Status != domain.QuoteStatusPosted {
		return false
	}

	now := m.now()
	m.pruneCancellations(now)
	if len(m.cancellations) >= m.cfg.MaxCancelsPerMinute {
		slog.Warn("quote cancel refused: rate limit reached",
			"quote_id", id,
			"cancels_last_minute", len(m.cancellations),
			"limit", m.cfg.MaxCancelsPerMinute,
		)
		return false
	}

	q.Status = domain.QuoteStatusCancelled
	q.CancelReason = reason
	m.cancellations = append(m.cancellations, now)
	return true
}

// FillQuote acumula tamaño ejecutado; cuando el acumulado alcanza el tamaño
// de la quote, transiciona a FILLED.
func (m *Manager) FillQuote(id string, filledSize float64) error {
	q, ok := m.quotes[id]
	if !ok {
		return fmt.Errorf("quotes.FillQuote: unknown quote %s", id)
	}
	if q.Status != domain.QuoteStatusPosted {
		return fmt.Errorf("quotes.FillQuote: quote %s is %s, not POSTED", id, q.Status)
	}
	if filledSize <= 0 {
		return fmt.Errorf("quotes.FillQuote: filled size %v must be positive", filledSize)
	}

	q.FilledSize += filledSize
	if q.FilledSize >= q.Size {
		q.Status = domain.QuoteStatusFilled
	}
	return nil
}

// RefreshStaleQuotes cancela las quotes posteadas cuya edad supera MaxAge,
// pasando por el mismo camino rate-limited que cualquier otra cancelación.
// Una ráfaga de refresh puede por tanto quedar throttled a mitad — eso es
// intencional, el techo de cancelaciones manda.
//
// Antes de cancelar materializa el vencimiento lazy (POSTED/PENDING vencidas
// pasan a EXPIRED sin contar contra el rate limit) y elimina las quotes que
// ya estaban en estado terminal, para que el mapa no crezca sin límite en un
// motor de larga vida. Una quote terminal sigue consultable hasta el refresh
// siguiente.
func (m *Manager) RefreshStaleQuotes() []string {
	now := m.now()
	m.expireAndPrune(now)

	var cancelled []string
	for id, q := range m.quotes {
		if q.Status != domain.QuoteStatusPosted {
			continue
		}
		if q.Age(now) <= m.cfg.MaxAge {
			continue
		}
		if m.CancelQuote(id, "stale") {
			cancelled = append(cancelled, id)
		}
	}
	return cancelled
}

// ActiveQuotes devuelve las quotes posteadas y no vencidas por reloj de pared.
func (m *Manager) ActiveQuotes() []domain.Quote {
	now := m.now()
	var out []domain.Quote
	for _, q := range m.quotes {
		if q.IsActive(now) {
			out = append(out, *q)
		}
	}
	return out
}

// Quote devuelve una copia de la quote, o false si no existe.
func (m *Manager) Quote(id string) (domain.Quote, bool) {
	q, ok := m.quotes[id]
	if !ok {
		return domain.Quote{}, false
	}
	return *q, true
}

// QuotesForMarket devuelve las quotes de un mercado (back-reference de
// solo lectura, el manager sigue siendo el dueño).
func (m *Manager) QuotesForMarket(marketID string) []domain.Quote {
	var out []domain.Quote
	for _, q := range m.quotes {
		if q.MarketID == marketID {
			out = append(out, *q)
		}
	}
	return out
}

// Metrics devuelve contadores por estado y el uso actual de la ventana de
// cancelaciones. Snapshot de solo lectura para dashboards.
func (m *Manager) Metrics() map[string]int {
	now := m.now()
	m.pruneCancellations(now)

	counts := map[string]int{
		"total":               len(m.quotes),
		"active":              0,
		"cancels_last_minute": len(m.cancellations),
	}
	for _, q := range m.quotes {
		counts[string(q.Status)]++
		if q.IsActive(now) {
			counts["active"]++
		}
	}
	return counts
}

// expireAndPrune marca como EXPIRED las quotes vencidas por reloj de pared y
// borra del mapa las que entraron ya en estado terminal.
func (m *Manager) expireAndPrune(now time.Time) {
	for id, q := range m.quotes {
		switch q.Status {
		case domain.QuoteStatusFilled, domain.QuoteStatusCancelled, domain.QuoteStatusExpired:
			delete(m.quotes, id)
		default:
			if q.IsExpired(now) {
				q.Status = domain.QuoteStatusExpired
			}
		}
	}
}

// pruneCancellations descarta timestamps fuera de la ventana rodante de 60s.
func (m *Manager) pruneCancellations(now time.Time) {
	cutoff := now.Add(-cancelWindow)
	kept := m.cancellations[:0]
	for _, t := range m.cancellations {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.cancellations = kept
}
