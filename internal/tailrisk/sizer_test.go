package tailrisk

import (
	"testing"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSizer() *Sizer {
	return NewSizer(SizerConfig{
		CapitalUSDC:            10000,
		KellyMultiplier:        0.25,
		MaxPositionLossUSDC:    150,
		MaxClusterExposureUSDC: 300,
		MinStakeUSDC:           10,
	})
}

func testCandidate(cluster string) domain.TailRiskCandidate {
	return domain.TailRiskCandidate{
		MarketID:        "m-" + cluster,
		Category:        domain.CategoryGeopolitical,
		TailProbability: 0.05,
		PotentialPayout: 19,
		WorstCaseLoss:   1,
		Cluster:         cluster,
	}
}

func TestKellyFraction_NeverNegative(t *testing.T) {
	// apuesta claramente perdedora: f puro sería negativo
	assert.Equal(t, 0.0, KellyFraction(0.01, 2))
	assert.Equal(t, 0.0, KellyFraction(0.3, 1))
	assert.Equal(t, 0.0, KellyFraction(0.5, 0))
	assert.Equal(t, 0.0, KellyFraction(0.5, -3))
}

func TestKellyFraction_PositiveEdge(t *testing.T) {
	// p=0.5, b=19: f = (9.5 - 0.5) / 19
	assert.InDelta(t, 9.0/19.0, KellyFraction(0.5, 19), 1e-9)
}

func TestSize_KellyThenWorstCaseCap(t *testing.T) {
	s := testSizer()

	// Kelly crudo con p=0.5: 10000 * 0.4737 * 0.25 ≈ 1184 → truncado a 150
	ps := s.Size(testCandidate("geopolitical_us"), 0.5)

	require.True(t, ps.IsAcceptable, ps.Reason)
	assert.Equal(t, 150.0, ps.StakeUSDC)
	assert.Equal(t, 150.0, ps.WorstCaseLoss)
	assert.InDelta(t, 0.25*9.0/19.0, ps.KellyFraction, 1e-9)
	assert.Equal(t, 150.0, s.ClusterExposure("geopolitical_us"))
}

func TestSize_NoEdgeRejected(t *testing.T) {
	s := testSizer()

	ps := s.Size(testCandidate("geopolitical_us"), 0.01)

	assert.False(t, ps.IsAcceptable)
	assert.Contains(t, ps.Reason, "no positive edge")
	assert.Equal(t, 0.0, s.ClusterExposure("geopolitical_us"))
}

func TestSize_ClusterCapTruncatesThenRejects(t *testing.T) {
	s := testSizer()
	cluster := "geopolitical_us"

	// dos posiciones de $150 llenan el cap de $300
	first := s.Size(testCandidate(cluster), 0.5)
	second := s.Size(testCandidate(cluster), 0.5)
	require.True(t, first.IsAcceptable)
	require.True(t, second.IsAcceptable)
	assert.Equal(t, 300.0, s.ClusterExposure(cluster))
	assert.Equal(t, 1.0, s.ClusterUtilization(cluster))

	// la tercera no cabe: cluster a capacidad
	third := s.Size(testCandidate(cluster), 0.5)
	assert.False(t, third.IsAcceptable)
	assert.Contains(t, third.Reason, "at capacity")

	// otro cluster no se ve afectado
	other := s.Size(testCandidate("economic_china"), 0.5)
	assert.True(t, other.IsAcceptable)
}

func TestSize_TruncatesToRemainingClusterCapacity(t *testing.T) {
	s := testSizer()
	cluster := "geopolitical_us"
	s.AddPosition(cluster, 250, 250)

	ps := s.Size(testCandidate(cluster), 0.5)

	require.True(t, ps.IsAcceptable)
	assert.Equal(t, 50.0, ps.StakeUSDC)
	assert.Equal(t, 300.0, s.ClusterExposure(cluster))
}

func TestSize_BelowMinimumStakeRejected(t *testing.T) {
	s := testSizer()
	cluster := "geopolitical_us"
	s.AddPosition(cluster, 295, 295)

	// capacidad restante $5 < mínimo $10
	ps := s.Size(testCandidate(cluster), 0.5)

	assert.False(t, ps.IsAcceptable)
	assert.Contains(t, ps.Reason, "below minimum")
	assert.Equal(t, 295.0, s.ClusterExposure(cluster))
}

func TestRemovePosition_ReleasesAndfloorsAtZero(t *testing.T) {
	s := testSizer()
	cluster := "geopolitical_us"
	s.AddPosition(cluster, 100, 100)
	s.AddPosition(cluster, 100, 100)

	s.RemovePosition(cluster, 150, 150)
	assert.Equal(t, 50.0, s.ClusterExposure(cluster))

	// el segundo remove vacía el cluster y lo borra de los ledgers
	s.RemovePosition(cluster, 500, 500)
	assert.Equal(t, 0.0, s.ClusterExposure(cluster))
	assert.Empty(t, s.ClusterMetrics())
}

func TestClusterMetrics_CountsPositions(t *testing.T) {
	s := testSizer()
	s.AddPosition("geopolitical_us", 100, 100)
	s.AddPosition("geopolitical_us", 50, 50)
	s.AddPosition("economic_china", 80, 80)

	metrics := s.ClusterMetrics()
	require.Len(t, metrics, 2)

	byCluster := map[string]domain.ClusterMetrics{}
	for _, m := range metrics {
		byCluster[m.Cluster] = m
	}

	us := byCluster["geopolitical_us"]
	assert.Equal(t, 150.0, us.ExposureUSDC)
	assert.Equal(t, 2, us.PositionCount)
	assert.InDelta(t, 0.5, us.UtilizationPct, 1e-9)

	cn := byCluster["economic_china"]
	assert.Equal(t, 1, cn.PositionCount)
}
