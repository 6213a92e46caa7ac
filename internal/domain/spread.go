package domain

// SpreadCalculation es el resultado del modelo de pricing de spread.
// Si el clamping de precios empujó el spread realizado fuera de los límites,
// IsAcceptable es false y Reason explica por qué — nunca se acepta en silencio.
type SpreadCalculation struct {
	MidPrice     float64
	Bid          float64
	Ask          float64
	SpreadBPS    float64 // spread realizado, recalculado desde los precios finales
	SkewFactor   float64 // skew de inventario usado en el shift direccional
	IsAcceptable bool
	Reason       string
}
