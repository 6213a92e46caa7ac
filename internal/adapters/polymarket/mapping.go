package polymarket

import (
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// mapCLOBMarkets convierte los DTOs del CLOB a domain.Market, descartando
// por item los mercados con datos inválidos (token ids ausentes, precios
// fuera de rango). Un mercado malformado nunca aborta el batch: se loguea
// un warning y se sigue con el resto.
func mapCLOBMarkets(raw []clobMarket) []domain.Market {
	markets := make([]domain.Market, 0, len(raw))
	for _, r := range raw {
		m, ok := mapCLOBMarket(r)
		if !ok {
			slog.Warn("skipping malformed market", "condition_id", r.ConditionID)
			continue
		}
		markets = append(markets, m)
	}
	return markets
}

// mapCLOBMarket convierte un clobMarket DTO a domain.Market.
// Devuelve false si faltan los token ids o los precios son inválidos.
func mapCLOBMarket(r clobMarket) (domain.Market, bool) {
	m := domain.Market{
		MarketID: r.ConditionID,
		Question: r.Question,
		Active:   r.Active,
		Closed:   r.Closed,
	}

	for _, t := range r.Tokens {
		switch t.Outcome {
		case "Yes":
			m.TokenIDYes = t.TokenID
			m.YesPrice = t.Price
		case "No":
			m.TokenIDNo = t.TokenID
			m.NoPrice = t.Price
		}
	}

	if m.MarketID == "" || m.TokenIDYes == "" || m.TokenIDNo == "" {
		return domain.Market{}, false
	}
	if !m.HasValidPrices() {
		return domain.Market{}, false
	}

	if r.EndDateISO != "" {
		m.EndDate = parseEndDate(r.EndDateISO)
	}
	return m, true
}

// enrichFromGamma aplica la metadata de Gamma sobre un mercado existente.
func enrichFromGamma(m *domain.Market, gm gammaMarket) {
	if gm.Question != "" && m.Question == "" {
		m.Question = gm.Question
	}
	m.Slug = gm.Slug

	if v, err := gm.Volume24h.Float64(); err == nil {
		m.Volume24h = v
	}
	if v, err := gm.Liquidity.Float64(); err == nil {
		m.Liquidity = v
	}

	if gm.EndDateISO != "" && m.EndDate.IsZero() {
		m.EndDate = parseEndDate(gm.EndDateISO)
	}
}

// parseEndDate intenta los formatos de fecha que usa Polymarket.
func parseEndDate(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// mapOrderBooks convierte la respuesta batch de /books a un map tokenID→OrderBook.
func mapOrderBooks(raw []orderBookResponse) map[string]domain.OrderBook {
	result := make(map[string]domain.OrderBook, len(raw))
	for _, r := range raw {
		result[r.AssetID] = domain.OrderBook{
			TokenID: r.AssetID,
			Bids:    mapBookLevels(r.Bids, false),
			Asks:    mapBookLevels(r.Asks, true),
		}
	}
	return result
}

// mapBookLevels convierte y ordena los niveles del book.
// Bids de mayor a menor precio, asks de menor a mayor.
func mapBookLevels(raw []bookLevelRaw, ascending bool) []domain.BookLevel {
	levels := make([]domain.BookLevel, 0, len(raw))
	for _, r := range raw {
		price, err := strconv.ParseFloat(r.Price, 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseFloat(r.Size, 64)
		if err != nil {
			continue
		}
		levels = append(levels, domain.BookLevel{Price: price, Size: size})
	}

	sort.Slice(levels, func(i, j int) bool {
		if ascending {
			return levels[i].Price < levels[j].Price
		}
		return levels[i].Price > levels[j].Price
	})
	return levels
}
