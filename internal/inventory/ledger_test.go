package inventory

import (
	"testing"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger() *Ledger {
	l := NewLedger(Config{
		MaxPositionUSDC:      100,
		MaxTotalExposureUSDC: 1000,
		MaxSkew:              0.5,
	})
	l.SetNow(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) })
	return l
}

func TestUpdatePosition_OpensNew(t *testing.T) {
	l := newTestLedger()

	pos := l.UpdatePosition("m1", domain.SideBuy, 200, 0.50)

	require.NotNil(t, pos)
	assert.Equal(t, domain.SideBuy, pos.Side)
	assert.Equal(t, 200.0, pos.Size)
	assert.Equal(t, 0.50, pos.EntryPrice)
	assert.Equal(t, 0.0, pos.UnrealizedPnL)
}

func TestUpdatePosition_SameSideAveragesEntry(t *testing.T) {
	l := newTestLedger()
	l.UpdatePosition("m1", domain.SideBuy, 100, 0.40)

	pos := l.UpdatePosition("m1", domain.SideBuy, 100, 0.60)

	require.NotNil(t, pos)
	assert.Equal(t, 200.0, pos.Size)
	// promedio ponderado: (0.40*100 + 0.60*100) / 200 = 0.50
	assert.InDelta(t, 0.50, pos.EntryPrice, 1e-9)
	assert.InDelta(t, (0.60-0.50)*200, pos.UnrealizedPnL, 1e-9)
}

func TestUpdatePosition_OppositeSideReduces(t *testing.T) {
	l := newTestLedger()
	l.UpdatePosition("m1", domain.SideBuy, 200, 0.50)

	pos := l.UpdatePosition("m1", domain.SideSell, 50, 0.55)

	require.NotNil(t, pos)
	assert.Equal(t, 150.0, pos.Size)
	assert.Equal(t, domain.SideBuy, pos.Side)
}

func TestUpdatePosition_OversellDeletesPosition(t *testing.T) {
	l := newTestLedger()
	l.UpdatePosition("m1", domain.SideBuy, 200, 0.50)

	// venta mayor que la posición: se borra, nunca queda tamaño negativo
	pos := l.UpdatePosition("m1", domain.SideSell, 300, 0.50)

	assert.Nil(t, pos)
	assert.Nil(t, l.Position("m1"))
	m := l.Metrics()
	assert.Equal(t, 0, m.PositionCount)
	assert.Equal(t, 0.0, m.GrossExposure)
}

func TestUpdatePosition_IgnoresNonPositiveSize(t *testing.T) {
	l := newTestLedger()
	l.UpdatePosition("m1", domain.SideBuy, 100, 0.50)

	pos := l.UpdatePosition("m1", domain.SideBuy, 0, 0.99)

	require.NotNil(t, pos)
	assert.Equal(t, 100.0, pos.Size)
	assert.Equal(t, 0.50, pos.EntryPrice)
}

func TestMetrics_SkewAndUtilization(t *testing.T) {
	l := newTestLedger()
	l.UpdatePosition("m1", domain.SideBuy, 300, 0.50)
	l.UpdatePosition("m2", domain.SideSell, 100, 0.40)

	m := l.Metrics()

	assert.Equal(t, 300.0, m.LongExposure)
	assert.Equal(t, 100.0, m.ShortExposure)
	assert.Equal(t, 200.0, m.NetExposure)
	assert.Equal(t, 400.0, m.GrossExposure)
	assert.InDelta(t, 0.2, m.InventorySkew, 1e-9)
	assert.InDelta(t, 0.4, m.UtilizationPct, 1e-9)
	assert.Equal(t, 2, m.PositionCount)
}

func TestMetrics_SkewClampedToUnitRange(t *testing.T) {
	l := NewLedger(Config{MaxPositionUSDC: 5000, MaxTotalExposureUSDC: 100, MaxSkew: 1})
	l.UpdatePosition("m1", domain.SideBuy, 500, 0.50)

	m := l.Metrics()

	assert.Equal(t, 1.0, m.InventorySkew)
	assert.Equal(t, 1.0, m.UtilizationPct)
}

func TestMetrics_ZeroCapProducesZeroSkew(t *testing.T) {
	l := NewLedger(Config{MaxPositionUSDC: 100, MaxTotalExposureUSDC: 0, MaxSkew: 0.5})
	l.UpdatePosition("m1", domain.SideBuy, 50, 0.50)

	m := l.Metrics()

	assert.Equal(t, 0.0, m.InventorySkew)
	assert.Equal(t, 0.0, m.UtilizationPct)
}

func TestCanOpenPosition_PerMarketCap(t *testing.T) {
	l := newTestLedger()

	ok, reason := l.CanOpenPosition("m1", 200, domain.SideBuy)

	assert.False(t, ok)
	assert.Contains(t, reason, "exceeds limit")
	assert.Contains(t, reason, "$100.00")
}

func TestCanOpenPosition_GrossExposureCap(t *testing.T) {
	l := newTestLedger()
	for i := 0; i < 10; i++ {
		l.UpdatePosition(string(rune('a'+i)), domain.SideBuy, 95, 0.50)
	}
	// gross 950, proyectado 1040 > 1000
	ok, reason := l.CanOpenPosition("m-new", 90, domain.SideSell)

	assert.False(t, ok)
	assert.Contains(t, reason, "gross exposure")
}

func TestCanOpenPosition_SkewCap(t *testing.T) {
	l := newTestLedger()
	for i := 0; i < 5; i++ {
		l.UpdatePosition(string(rune('a'+i)), domain.SideBuy, 95, 0.50)
	}
	// net 475, proyectado (475+90)/1000 = 0.565 > 0.5
	ok, reason := l.CanOpenPosition("m-new", 90, domain.SideBuy)

	assert.False(t, ok)
	assert.Contains(t, reason, "skew")

	// el mismo tamaño en el lado contrario reduce el skew y pasa
	ok, reason = l.CanOpenPosition("m-new", 90, domain.SideSell)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestCanOpenPosition_WithinAllLimits(t *testing.T) {
	l := newTestLedger()

	ok, reason := l.CanOpenPosition("m1", 100, domain.SideBuy)

	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestPositions_ReturnsSnapshot(t *testing.T) {
	l := newTestLedger()
	l.UpdatePosition("m1", domain.SideBuy, 50, 0.50)
	l.UpdatePosition("m2", domain.SideSell, 30, 0.60)

	snap := l.Positions()

	assert.Len(t, snap, 2)
	// mutar el snapshot no toca el ledger
	snap[0].Size = 9999
	assert.NotEqual(t, 9999.0, l.Position(snap[0].MarketID).Size)
}
