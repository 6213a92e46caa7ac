package storage

// sqlite.go — historial de señales eficiente y sin ruido.
//
// Estrategia:
//   - `cycles`: resumen ligero por ciclo (señales por estrategia, mejor
//     beneficio esperado). Siempre 1 fila.
//   - `signals`: UNA fila por (estrategia, mercado) con UPSERT.
//   - Cache en memoria: evita writes si la señal no cambió de forma
//     relevante (> 5% en beneficio esperado o cambio de tipo).
//   - Prune automático al arrancar: cycles > 30d, señales no vistas en 14d.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por ciclo de evaluación
CREATE TABLE IF NOT EXISTS cycles (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    evaluated_at   DATETIME NOT NULL,
    total          INTEGER  NOT NULL DEFAULT 0,
    market_making  INTEGER  NOT NULL DEFAULT 0,
    settlement_lag INTEGER  NOT NULL DEFAULT 0,
    tail_risk      INTEGER  NOT NULL DEFAULT 0,
    best_profit    REAL     NOT NULL DEFAULT 0
);

-- Una fila por (estrategia, mercado), sin duplicados
CREATE TABLE IF NOT EXISTS signals (
    strategy        TEXT NOT NULL,
    market_id       TEXT NOT NULL,
    question        TEXT,
    signal_type     TEXT NOT NULL,
    expected_profit REAL NOT NULL DEFAULT 0,
    trade_size      REAL NOT NULL DEFAULT 0,
    yes_price       REAL NOT NULL DEFAULT 0,
    no_price        REAL NOT NULL DEFAULT 0,
    confidence      REAL NOT NULL DEFAULT 0,
    reason          TEXT,
    risk_tags       TEXT,
    dispute_score   REAL NOT NULL DEFAULT 0,
    carry_cost      REAL NOT NULL DEFAULT 0,
    worst_case_loss REAL NOT NULL DEFAULT 0,
    cluster         TEXT,
    first_seen      DATETIME NOT NULL,
    last_seen       DATETIME NOT NULL,
    peak_profit     REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (strategy, market_id)
);

CREATE INDEX IF NOT EXISTS idx_cycles_at     ON cycles(evaluated_at DESC);
CREATE INDEX IF NOT EXISTS idx_signals_last  ON signals(last_seen DESC);
CREATE INDEX IF NOT EXISTS idx_signals_strat ON signals(strategy);
`

const (
	retentionCycles  = 30 * 24 * time.Hour // ciclos: 30 días
	retentionSignals = 14 * 24 * time.Hour // señales: 14 días (la mayoría de mercados resuelven antes)
	profitChangePct  = 0.05                // 5% de cambio en beneficio → reescribir
)

// cachedState es el snapshot del último estado guardado de una señal.
type cachedState struct {
	signalType string
	profit     float64
}

// SQLiteStorage implementa ports.SignalStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db    *sql.DB
	cache map[string]cachedState // strategy|marketID → estado guardado
	mu    sync.Mutex
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:    db,
		cache: make(map[string]cachedState),
	}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSignals persiste el resumen del ciclo y hace upsert de las señales que
// cambiaron respecto al ciclo anterior (usando caché en memoria).
func (s *SQLiteStorage) SaveSignals(ctx context.Context, signals []domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	counts := map[string]int{}
	bestProfit := 0.0
	for _, sig := range signals {
		counts[sig.Strategy]++
		if sig.ExpectedProfit > bestProfit {
			bestProfit = sig.ExpectedProfit
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (evaluated_at, total, market_making, settlement_lag, tail_risk, best_profit)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		now, len(signals), counts["market_making"], counts["settlement_lag"], counts["tail_risk"], bestProfit,
	); err != nil {
		return fmt.Errorf("storage.SaveSignals: insert cycle: %w", err)
	}

	for _, sig := range signals {
		key := sig.Strategy + "|" + sig.MarketID
		if cached, ok := s.cache[key]; ok && !changed(cached, sig) {
			// solo refrescar last_seen, sin reescribir la fila completa
			if _, err := s.db.ExecContext(ctx,
				`UPDATE signals SET last_seen = ? WHERE strategy = ? AND market_id = ?`,
				now, sig.Strategy, sig.MarketID,
			); err != nil {
				return fmt.Errorf("storage.SaveSignals: touch signal: %w", err)
			}
			continue
		}

		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO signals (strategy, market_id, question, signal_type, expected_profit,
			                      trade_size, yes_price, no_price, confidence, reason, risk_tags,
			                      dispute_score, carry_cost, worst_case_loss, cluster,
			                      first_seen, last_seen, peak_profit)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(strategy, market_id) DO UPDATE SET
			     signal_type     = excluded.signal_type,
			     expected_profit = excluded.expected_profit,
			     trade_size      = excluded.trade_size,
			     yes_price       = excluded.yes_price,
			     no_price        = excluded.no_price,
			     confidence      = excluded.confidence,
			     reason          = excluded.reason,
			     risk_tags       = excluded.risk_tags,
			     dispute_score   = excluded.dispute_score,
			     carry_cost      = excluded.carry_cost,
			     worst_case_loss = excluded.worst_case_loss,
			     cluster         = excluded.cluster,
			     last_seen       = excluded.last_seen,
			     peak_profit     = MAX(signals.peak_profit, excluded.expected_profit)`,
			sig.Strategy, sig.MarketID, sig.Question, string(sig.Type), sig.ExpectedProfit,
			sig.TradeSize, sig.YesPrice, sig.NoPrice, sig.Confidence, sig.Reason,
			strings.Join(sig.RiskTags, ","), sig.DisputeScore, sig.CarryCost,
			sig.WorstCaseLoss, sig.Cluster, now, now, sig.ExpectedProfit,
		); err != nil {
			return fmt.Errorf("storage.SaveSignals: upsert signal: %w", err)
		}

		s.cache[key] = cachedState{signalType: string(sig.Type), profit: sig.ExpectedProfit}
	}

	return nil
}

// GetHistory devuelve las señales vistas en el rango de tiempo dado.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.Signal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strategy, market_id, question, signal_type, expected_profit, trade_size,
		        yes_price, no_price, confidence, reason, risk_tags,
		        dispute_score, carry_cost, worst_case_loss, cluster, last_seen
		 FROM signals
		 WHERE last_seen BETWEEN ? AND ?
		 ORDER BY expected_profit DESC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Signal
	for rows.Next() {
		var sig domain.Signal
		var sigType, tags string
		var question, reason, cluster sql.NullString
		if err := rows.Scan(
			&sig.Strategy, &sig.MarketID, &question, &sigType, &sig.ExpectedProfit,
			&sig.TradeSize, &sig.YesPrice, &sig.NoPrice, &sig.Confidence, &reason, &tags,
			&sig.DisputeScore, &sig.CarryCost, &sig.WorstCaseLoss, &cluster, &sig.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan: %w", err)
		}
		sig.Question = question.String
		sig.Reason = reason.String
		sig.Cluster = cluster.String
		sig.Type = domain.SignalType(sigType)
		if tags != "" {
			sig.RiskTags = strings.Split(tags, ",")
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// changed devuelve true si la señal difiere de forma relevante del snapshot
// guardado: cambio de tipo o > 5% en beneficio esperado.
func changed(cached cachedState, sig domain.Signal) bool {
	if cached.signalType != string(sig.Type) {
		return true
	}
	if cached.profit == 0 {
		return sig.ExpectedProfit != 0
	}
	return math.Abs(sig.ExpectedProfit-cached.profit)/math.Abs(cached.profit) > profitChangePct
}

// pruneOld borra ciclos y señales fuera de la ventana de retención.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cycles WHERE evaluated_at < ?`, now.Add(-retentionCycles),
	); err != nil {
		return
	}
	_, _ = s.db.ExecContext(ctx,
		`DELETE FROM signals WHERE last_seen < ?`, now.Add(-retentionSignals),
	)
}
