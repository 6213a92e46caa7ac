package tailrisk

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// SizerConfig acota el sizing por Kelly.
type SizerConfig struct {
	CapitalUSDC            float64
	KellyMultiplier        float64 // fracción conservadora del Kelly completo, p.ej. 0.25
	MaxPositionLossUSDC    float64
	MaxClusterExposureUSDC float64
	MinStakeUSDC           float64
}

// Sizer dimensiona apuestas de tail risk con el criterio de Kelly, acotado
// por la pérdida en el peor caso y los caps de exposición por cluster. Es el
// dueño de los ledgers de exposición y pérdida por cluster; el caller debe
// emparejar AddPosition (hecho al aceptar el sizing) con RemovePosition al
// cerrar la posición, el sizer no sigue el ciclo de vida de la posición.
type Sizer struct {
	cfg             SizerConfig
	clusterExposure map[string]float64
	clusterLoss     map[string]float64
	clusterCount    map[string]int
}

// NewSizer crea un sizer con los ledgers de cluster vacíos.
func NewSizer(cfg SizerConfig) *Sizer {
	return &Sizer{
		cfg:             cfg,
		clusterExposure: make(map[string]float64),
		clusterLoss:     make(map[string]float64),
		clusterCount:    make(map[string]int),
	}
}

// KellyFraction calcula f = (p*b - q) / b para probabilidad de ganar p y
// múltiplo de payout b. Los valores negativos se recortan a 0: la fórmula
// solo dimensiona apuestas de EV positivo, nunca pone cortos.
func KellyFraction(p, b float64) float64 {
	if b <= 0 {
		return 0
	}
	q := 1 - p
	f := (p*b - q) / b
	if f < 0 {
		return 0
	}
	return f
}

// Size calcula el stake para un candidato. Orden de los límites: Kelly con
// el multiplicador conservador, cap de pérdida por posición (trunca),
// capacidad restante del cluster (trunca, rechaza en cero), stake mínimo
// viable (rechaza). Un sizing aceptado muta el ledger del cluster al momento.
func (s *Sizer) Size(c domain.TailRiskCandidate, estimatedProb float64) domain.PositionSize {
	ps := domain.PositionSize{PayoutRatio: c.PotentialPayout}

	f := KellyFraction(estimatedProb, c.PotentialPayout) * s.cfg.KellyMultiplier
	ps.KellyFraction = f

	stake := s.cfg.CapitalUSDC * f
	if stake <= 0 {
		ps.Reason = "kelly fraction is zero: no positive edge"
		return ps
	}

	// en una apuesta binaria la pérdida en el peor caso es el propio stake
	if stake > s.cfg.MaxPositionLossUSDC {
		stake = s.cfg.MaxPositionLossUSDC
	}

	remaining := s.cfg.MaxClusterExposureUSDC - s.clusterExposure[c.Cluster]
	if remaining <= 0 {
		ps.Reason = fmt.Sprintf("cluster %s at capacity ($%.2f)", c.Cluster, s.cfg.MaxClusterExposureUSDC)
		return ps
	}
	if stake > remaining {
		stake = remaining
	}

	if stake < s.cfg.MinStakeUSDC {
		ps.Reason = fmt.Sprintf("stake $%.2f below minimum viable $%.2f", stake, s.cfg.MinStakeUSDC)
		return ps
	}

	ps.StakeUSDC = stake
	ps.WorstCaseLoss = stake
	ps.IsAcceptable = true
	ps.Reason = "sized within limits"

	s.AddPosition(c.Cluster, stake, stake)
	return ps
}

// AddPosition registra exposición y pérdida en el peor caso contra un cluster.
func (s *Sizer) AddPosition(cluster string, exposure, worstCaseLoss float64) {
	s.clusterExposure[cluster] += exposure
	s.clusterLoss[cluster] += worstCaseLoss
	s.clusterCount[cluster]++
}

// RemovePosition libera exposición al cerrar una posición. Los valores no
// bajan de cero y los clusters vacíos se eliminan de los ledgers.
func (s *Sizer) RemovePosition(cluster string, exposure, worstCaseLoss float64) {
	s.clusterExposure[cluster] = math.Max(0, s.clusterExposure[cluster]-exposure)
	s.clusterLoss[cluster] = math.Max(0, s.clusterLoss[cluster]-worstCaseLoss)
	if s.clusterCount[cluster] > 0 {
		s.clusterCount[cluster]--
	}
	if s.clusterCount[cluster] == 0 {
		delete(s.clusterExposure, cluster)
		delete(s.clusterLoss, cluster)
		delete(s.clusterCount, cluster)
	}
}

// ClusterExposure devuelve la exposición actual registrada contra un cluster.
func (s *Sizer) ClusterExposure(cluster string) float64 {
	return s.clusterExposure[cluster]
}

// ClusterUtilization devuelve exposición sobre el cap del cluster, en [0,1].
func (s *Sizer) ClusterUtilization(cluster string) float64 {
	if s.cfg.MaxClusterExposureUSDC <= 0 {
		return 0
	}
	return math.Min(s.clusterExposure[cluster]/s.cfg.MaxClusterExposureUSDC, 1)
}

// ClusterMetrics devuelve un snapshot de todos los ledgers de cluster.
// PositionCount cuenta posiciones abiertas reales por cluster.
func (s *Sizer) ClusterMetrics() []domain.ClusterMetrics {
	out := make([]domain.ClusterMetrics, 0, len(s.clusterExposure))
	for cluster, exposure := range s.clusterExposure {
		m := domain.ClusterMetrics{
			Cluster:       cluster,
			ExposureUSDC:  exposure,
			WorstCaseLoss: s.clusterLoss[cluster],
			PositionCount: s.clusterCount[cluster],
		}
		if s.cfg.MaxClusterExposureUSDC > 0 {
			m.UtilizationPct = math.Min(exposure/s.cfg.MaxClusterExposureUSDC, 1)
		}
		out = append(out, m)
	}
	return out
}
