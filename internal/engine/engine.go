package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/ports"
	"github.com/alejandrodnm/polyquant/internal/quotes"
	"github.com/alejandrodnm/polyquant/internal/strategy"
)

// Config contiene la configuración del motor de evaluación.
type Config struct {
	ScanInterval time.Duration
	DryRun       bool
}

// Engine es el orquestador principal. Ejecuta todas las estrategias sobre
// cada mercado en una sola goroutine: los ledgers (posiciones, quotes,
// clusters) no llevan locks porque toda lectura-cálculo-mutación ocurre en
// el mismo turno, sin suspensión intermedia. Los únicos puntos de I/O son
// los fetch de mercados y books al inicio del ciclo.
type Engine struct {
	cfg        Config
	markets    ports.MarketProvider
	books      ports.BookProvider
	storage    ports.SignalStorage
	notifier   ports.Notifier
	strategies []strategy.Strategy
	quotes     *quotes.Manager
	tail       *strategy.TailRisk // para refrescar el universo de hedges
}

// New crea un Engine con todas las dependencias inyectadas.
func New(
	cfg Config,
	markets ports.MarketProvider,
	books ports.BookProvider,
	storage ports.SignalStorage,
	notifier ports.Notifier,
	strategies []strategy.Strategy,
	qm *quotes.Manager,
) *Engine {
	e := &Engine{
		cfg:        cfg,
		markets:    markets,
		books:      books,
		storage:    storage,
		notifier:   notifier,
		strategies: strategies,
		quotes:     qm,
	}
	for _, s := range strategies {
		if t, ok := s.(*strategy.TailRisk); ok {
			e.tail = t
		}
	}
	return e
}

// Run ejecuta el loop de evaluación hasta que el contexto se cancele.
// Si cfg.DryRun está activo, solo ejecuta un ciclo.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"interval", e.cfg.ScanInterval,
		"strategies", len(e.strategies),
		"dry_run", e.cfg.DryRun,
	)

	if err := e.runCycle(ctx); err != nil {
		slog.Error("evaluation cycle failed", "err", err)
		if e.cfg.DryRun {
			return err
		}
	}

	if e.cfg.DryRun {
		return nil
	}

	ticker := time.NewTicker(e.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped")
			return nil
		case <-ticker.C:
			if err := e.runCycle(ctx); err != nil {
				slog.Error("evaluation cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo de evaluación y devuelve las señales.
func (e *Engine) RunOnce(ctx context.Context) ([]domain.Signal, error) {
	return e.cycle(ctx)
}

// runCycle ejecuta un ciclo completo y notifica/persiste los resultados.
func (e *Engine) runCycle(ctx context.Context) error {
	start := time.Now()

	signals, err := e.cycle(ctx)
	if err != nil {
		return err
	}

	if err := e.notifier.Notify(ctx, signals); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if e.storage != nil {
		if err := e.storage.SaveSignals(ctx, signals); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}

	slog.Info("evaluation cycle complete",
		"signals", len(signals),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle hace fetch → evaluate → rank y devuelve las señales del ciclo.
// Las mutaciones de ledger de cada Evaluate quedan commiteadas aunque el
// contexto se cancele a mitad del ciclo: no hay rollback.
func (e *Engine) cycle(ctx context.Context) ([]domain.Signal, error) {
	markets, err := e.markets.FetchMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.cycle: fetch markets: %w", err)
	}

	tokenIDs := extractTokenIDs(markets)
	books, err := e.books.FetchOrderBooks(ctx, tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("engine.cycle: fetch books: %w", err)
	}

	if e.tail != nil {
		e.tail.SetHedgeUniverse(markets)
	}

	var signals []domain.Signal
	for _, market := range markets {
		yesBook, noBook, ok := booksForMarket(market, books)
		if !ok {
			slog.Debug("missing books for market", "market_id", market.MarketID)
			continue
		}

		for _, strat := range e.strategies {
			signal, ok := strat.Evaluate(ctx, market, yesBook, noBook)
			if !ok {
				continue
			}
			slog.Debug("signal emitted",
				"strategy", signal.Strategy,
				"market", domain.TruncateQuestion(market.Question, market.MarketID, 40),
				"expected_profit", fmt.Sprintf("%.4f", signal.ExpectedProfit),
				"confidence", fmt.Sprintf("%.2f", signal.Confidence),
			)
			signals = append(signals, signal)
		}
	}

	// las quotes stale se cancelan por el mismo camino rate-limited
	if e.quotes != nil {
		if cancelled := e.quotes.RefreshStaleQuotes(); len(cancelled) > 0 {
			slog.Debug("stale quotes refreshed", "cancelled", len(cancelled))
		}
	}

	return rankByProfit(signals), nil
}

// extractTokenIDs extrae todos los token_ids de los mercados.
func extractTokenIDs(markets []domain.Market) []string {
	ids := make([]string, 0, len(markets)*2)
	for _, m := range markets {
		if m.TokenIDYes != "" {
			ids = append(ids, m.TokenIDYes)
		}
		if m.TokenIDNo != "" {
			ids = append(ids, m.TokenIDNo)
		}
	}
	return ids
}

// booksForMarket busca los orderbooks YES y NO para un mercado.
func booksForMarket(m domain.Market, books map[string]domain.OrderBook) (yes, no domain.OrderBook, ok bool) {
	yes, okYes := books[m.TokenIDYes]
	no, okNo := books[m.TokenIDNo]
	return yes, no, okYes && okNo
}

// rankByProfit ordena las señales por beneficio esperado descendente.
func rankByProfit(signals []domain.Signal) []domain.Signal {
	sort.Slice(signals, func(i, j int) bool {
		return signals[i].ExpectedProfit > signals[j].ExpectedProfit
	})
	return signals
}
