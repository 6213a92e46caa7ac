package settlement

import "github.com/alejandrodnm/polyquant/internal/domain"

// minProfitMultiple: un trade debe superar al menos dos veces su carry cost
// para que merezca la pena bloquear el capital.
const minProfitMultiple = 2.0

// CarryConfig parametriza el coste de oportunidad del capital bloqueado.
type CarryConfig struct {
	DailyRate   float64 // coste de oportunidad diario como fracción del capital
	MaxCarryPct float64 // techo de aceptación sobre coste/capital
}

// CarryModel calcula el carry cost del capital bloqueado hasta la
// resolución. Todos los métodos son funciones puras de la misma fórmula.
type CarryModel struct {
	cfg CarryConfig
}

// NewCarryModel crea el modelo con las tasas dadas.
func NewCarryModel(cfg CarryConfig) *CarryModel {
	return &CarryModel{cfg: cfg}
}

// Calculate calcula el coste de mantener `capital` durante
// `hoursToResolution`: cost = capital * daily_rate * days. Capital cero
// devuelve porcentaje cero, no un error de división.
func (c *CarryModel) Calculate(capital, hoursToResolution float64) domain.CarryCostCalculation {
	days := hoursToResolution / 24

	calc := domain.CarryCostCalculation{
		HoursToResolution: hoursToResolution,
		DaysToResolution:  days,
		CapitalUSDC:       capital,
		DailyRate:         c.cfg.DailyRate,
		TotalCost:         capital * c.cfg.DailyRate * days,
	}

	if capital > 0 {
		calc.CostPctOfCapital = calc.TotalCost / capital
	}
	calc.IsAcceptable = calc.CostPctOfCapital <= c.cfg.MaxCarryPct
	return calc
}

// MinRequiredProfit devuelve el umbral de beneficio que implica un carry cost.
func (c *CarryModel) MinRequiredProfit(carryCost float64) float64 {
	return carryCost * minProfitMultiple
}

// MaxHoldDays despeja la duración de la fórmula de carry: el máximo de días
// que una posición de `capital` puede mantenerse antes de que el carry se
// coma `expectedProfit`.
func (c *CarryModel) MaxHoldDays(expectedProfit, capital float64) float64 {
	if capital <= 0 || c.cfg.DailyRate <= 0 {
		return 0
	}
	return expectedProfit / (capital * c.cfg.DailyRate)
}
