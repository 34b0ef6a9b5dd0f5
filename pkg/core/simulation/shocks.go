package simulation

import "math"

// Correlation is clamped into [-maxCorrelation, maxCorrelation] so the
// Cholesky factor sqrt(1-rho^2) stays away from zero.
const maxCorrelation = 0.99

// salesToCapFloor keeps multiplicatively shocked capital efficiency from
// collapsing to zero or below.
const salesToCapFloor = 0.1

func clampCorrelation(rho float64) float64 {
	if rho > maxCorrelation {
		return maxCorrelation
	}
	if rho < -maxCorrelation {
		return -maxCorrelation
	}
	return rho
}

// ShockGenerator turns the uniform stream of one run's RNG into the normal
// and multiplicative shocks the trial loop needs. It owns no state of its
// own; determinism comes entirely from the RNG it wraps.
type ShockGenerator struct {
	rng *RNG
}

func NewShockGenerator(rng *RNG) *ShockGenerator {
	return &ShockGenerator{rng: rng}
}

// Normal draws a standard normal via Box-Muller. The first uniform is
// redrawn while it is exactly zero, since log(0) diverges.
func (g *ShockGenerator) Normal() float64 {
	u1 := g.rng.Float64()
	for u1 == 0 {
		u1 = g.rng.Float64()
	}
	u2 := g.rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// CorrelatedPair draws two normals with correlation rho (clamped to
// +/-0.99) using the 2x2 Cholesky factor:
// z1 stays as drawn, z2' = rho*z1 + sqrt(1-rho^2)*z2.
func (g *ShockGenerator) CorrelatedPair(rho float64) (float64, float64) {
	rho = clampCorrelation(rho)
	z1 := g.Normal()
	z2 := g.Normal()
	return z1, rho*z1 + math.Sqrt(1-rho*rho)*z2
}

// Multiplicative scales value by (1 + pctVol*z), floored at 0.1
func (g *ShockGenerator) Multiplicative(value, pctVol float64) float64 {
	shocked := value * (1 + pctVol*g.Normal())
	if shocked < salesToCapFloor {
		return salesToCapFloor
	}
	return shocked
}
