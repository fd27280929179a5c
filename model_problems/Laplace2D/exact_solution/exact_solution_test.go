package exact_solution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fdGrad(es ExactSolution, x, y float64) [2]float64 {
	const d = 1.e-6
	return [2]float64{
		(es.U(x+d, y) - es.U(x-d, y)) / (2 * d),
		(es.U(x, y+d) - es.U(x, y-d)) / (2 * d),
	}
}

func fdDivFlux(es ExactSolution, x, y float64) float64 {
	const d = 1.e-4
	fxp := es.Flux(x+d, y, SignPositive)
	fxm := es.Flux(x-d, y, SignPositive)
	fyp := es.Flux(x, y+d, SignPositive)
	fym := es.Flux(x, y-d, SignPositive)
	return (fxp[0]-fxm[0])/(2*d) + (fyp[1]-fym[1])/(2*d)
}

func TestParseBenchmark(t *testing.T) {
	b, ok := ParseBenchmark("ESinSin")
	assert.True(t, ok)
	assert.Equal(t, ESinSin, b)
	for _, name := range []string{"esinsin", "SinSin", " ESinSin", "ESINSIN"} {
		_, ok = ParseBenchmark(name)
		assert.False(t, ok, name)
	}
	b, ok = ParseBenchmark("ESteklovNonConst")
	assert.True(t, ok)
	assert.Equal(t, "ESteklovNonConst", b.String())
	_, ok = ParseBenchmark("ECosCos")
	assert.False(t, ok)
	_, err := NewExactSolution(Benchmark(7), 1, 1)
	assert.Error(t, err)
}

func TestSmoothSolutions(t *testing.T) {
	points := [][2]float64{{0.3, 0.4}, {0.71, 0.12}, {0.9, 0.85}}
	for _, b := range []Benchmark{ESinSin, EArcTan} {
		es, err := NewExactSolution(b, 5, 1)
		require.NoError(t, err)
		assert.Equal(t, b, es.Benchmark())
		for _, p := range points {
			fd, g := fdGrad(es, p[0], p[1]), es.GradU(p[0], p[1])
			assert.InDeltaSlice(t, fd[:], g[:], 1.e-5)
			// div(flux) = f with flux = -K grad u
			assert.InDelta(t, es.Source(p[0], p[1]), fdDivFlux(es, p[0], p[1]), 1.e-3*(1+math.Abs(es.Source(p[0], p[1]))))
		}
	}
}

func TestFluxSign(t *testing.T) {
	es := SinSin{}
	fp := es.Flux(0.2, 0.3, SignPositive)
	fn := es.Flux(0.2, 0.3, SignNegative)
	g := es.GradU(0.2, 0.3)
	assert.Equal(t, -g[0], fp[0])
	assert.Equal(t, g[1], fn[1])
}

func TestSteklovNonConst(t *testing.T) {
	_, err := NewSteklovNonConst(0, 1)
	assert.Error(t, err)
	sk, err := NewSteklovNonConst(5, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.53544, sk.Lambda, 1.e-5)
	assert.Equal(t, 5., sk.Permeability(0.5, 0.5))
	assert.Equal(t, 1., sk.Permeability(-0.5, 0.5))
	assert.Equal(t, 5., sk.Permeability(-0.5, -0.5))
	assert.Equal(t, 1., sk.Permeability(0.5, -0.5))
	assert.Equal(t, 0., sk.U(0, 0))

	const eps = 1.e-9
	for _, r := range []float64{0.1, 0.5, 0.9} {
		// Potential continuity across the four axes
		assert.InDelta(t, sk.U(r, eps), sk.U(r, -eps), 1.e-7)
		assert.InDelta(t, sk.U(eps, r), sk.U(-eps, r), 1.e-7)
		assert.InDelta(t, sk.U(-r, eps), sk.U(-r, -eps), 1.e-7)
		assert.InDelta(t, sk.U(eps, -r), sk.U(-eps, -r), 1.e-7)
		// Normal flux continuity
		assert.InDelta(t, sk.Flux(r, eps, SignPositive)[1], sk.Flux(r, -eps, SignPositive)[1], 1.e-6)
		assert.InDelta(t, sk.Flux(eps, r, SignPositive)[0], sk.Flux(-eps, r, SignPositive)[0], 1.e-6)
		assert.InDelta(t, sk.Flux(-r, eps, SignPositive)[1], sk.Flux(-r, -eps, SignPositive)[1], 1.e-6)
		assert.InDelta(t, sk.Flux(eps, -r, SignPositive)[0], sk.Flux(-eps, -r, SignPositive)[0], 1.e-6)
	}
	for _, p := range [][2]float64{{0.3, 0.4}, {-0.6, 0.2}, {-0.3, -0.7}, {0.5, -0.45}} {
		fd, g := fdGrad(sk, p[0], p[1]), sk.GradU(p[0], p[1])
		assert.InDeltaSlice(t, fd[:], g[:], 1.e-5)
		assert.InDelta(t, 0., fdDivFlux(sk, p[0], p[1]), 1.e-3)
	}
	q, theta := Quadrant(-1, -1e-3)
	assert.Equal(t, 2, q)
	assert.Greater(t, theta, math.Pi)
}
