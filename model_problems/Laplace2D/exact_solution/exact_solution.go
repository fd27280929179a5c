package exact_solution

import (
	"fmt"
	"math"
)

type Benchmark uint8

const (
	ESinSin Benchmark = iota
	EArcTan
	ESteklovNonConst
)

var BenchmarkNames = map[string]Benchmark{
	"ESinSin":          ESinSin,
	"EArcTan":          EArcTan,
	"ESteklovNonConst": ESteklovNonConst,
}

var BenchmarkPrintNames = []string{"ESinSin", "EArcTan", "ESteklovNonConst"}

func (b Benchmark) String() string {
	if int(b) < len(BenchmarkPrintNames) {
		return BenchmarkPrintNames[b]
	}
	return fmt.Sprintf("Benchmark(%d)", int(b))
}

// ParseBenchmark accepts the exact benchmark names only
func ParseBenchmark(label string) (b Benchmark, ok bool) {
	b, ok = BenchmarkNames[label]
	return
}

// SignConvention selects which sign of the physical flux -K grad u an evaluator reports
type SignConvention int

const (
	SignNegative SignConvention = -1
	SignPositive SignConvention = 1
)

type ExactSolution interface {
	Benchmark() Benchmark
	U(x, y float64) float64
	GradU(x, y float64) [2]float64
	// Source is f in -div(K grad u) = f
	Source(x, y float64) float64
	// Permeability at an interior point of the domain
	Permeability(x, y float64) float64
	// Flux returns -sign * K * grad u
	Flux(x, y float64, sign SignConvention) [2]float64
}

func flux(es ExactSolution, x, y float64, sign SignConvention) [2]float64 {
	var (
		g = es.GradU(x, y)
		c = -float64(sign) * es.Permeability(x, y)
	)
	return [2]float64{c * g[0], c * g[1]}
}

// NewExactSolution returns the exact solution for the benchmark, permQ1 and permQ2 are used by ESteklovNonConst only
func NewExactSolution(b Benchmark, permQ1, permQ2 float64) (es ExactSolution, err error) {
	switch b {
	case ESinSin:
		es = SinSin{}
	case EArcTan:
		es = NewArcTan()
	case ESteklovNonConst:
		es, err = NewSteklovNonConst(permQ1, permQ2)
	default:
		err = fmt.Errorf("unknown benchmark %d", int(b))
	}
	return
}

// SinSin is u = sin(pi x) sin(pi y) on the unit square with K = 1
type SinSin struct{}

func (SinSin) Benchmark() Benchmark { return ESinSin }

func (SinSin) U(x, y float64) float64 {
	return math.Sin(math.Pi*x) * math.Sin(math.Pi*y)
}

func (SinSin) GradU(x, y float64) [2]float64 {
	return [2]float64{
		math.Pi * math.Cos(math.Pi*x) * math.Sin(math.Pi*y),
		math.Pi * math.Sin(math.Pi*x) * math.Cos(math.Pi*y),
	}
}

func (s SinSin) Source(x, y float64) float64 {
	return 2 * math.Pi * math.Pi * s.U(x, y)
}

func (SinSin) Permeability(x, y float64) float64 { return 1 }

func (s SinSin) Flux(x, y float64, sign SignConvention) [2]float64 {
	return flux(s, x, y, sign)
}

/*
ArcTan is a circular wave front u = atan(Alpha (r - R0)), r measured from Center, with K = 1
*/
type ArcTan struct {
	Alpha, R0 float64
	Center    [2]float64
}

func NewArcTan() ArcTan {
	return ArcTan{Alpha: 20, R0: 0.7, Center: [2]float64{-0.05, -0.05}}
}

func (ArcTan) Benchmark() Benchmark { return EArcTan }

func (at ArcTan) polar(x, y float64) (dx, dy, r float64) {
	dx, dy = x-at.Center[0], y-at.Center[1]
	r = math.Hypot(dx, dy)
	return
}

func (at ArcTan) U(x, y float64) float64 {
	_, _, r := at.polar(x, y)
	return math.Atan(at.Alpha * (r - at.R0))
}

func (at ArcTan) GradU(x, y float64) [2]float64 {
	dx, dy, r := at.polar(x, y)
	s := at.Alpha * (r - at.R0)
	du := at.Alpha / (1 + s*s) / r
	return [2]float64{du * dx, du * dy}
}

func (at ArcTan) Source(x, y float64) float64 {
	_, _, r := at.polar(x, y)
	var (
		s   = at.Alpha * (r - at.R0)
		den = 1 + s*s
		a2  = at.Alpha * at.Alpha
	)
	// -laplacian(u) = -(u'' + u'/r)
	return 2*s*a2/(den*den) - at.Alpha/(r*den)
}

func (ArcTan) Permeability(x, y float64) float64 { return 1 }

func (at ArcTan) Flux(x, y float64, sign SignConvention) [2]float64 {
	return flux(at, x, y, sign)
}

/*
SteklovNonConst is the singular solution of a checkerboard permeability on [-1,1]^2: K = PermQ1 in the first and third
quadrants and PermQ2 in the second and fourth. u = r^Lambda g(theta), continuous with continuous normal flux across the
axes, and f = 0.
*/
type SteklovNonConst struct {
	PermQ1, PermQ2 float64
	Lambda         float64
	t              float64
}

func NewSteklovNonConst(permQ1, permQ2 float64) (sk SteklovNonConst, err error) {
	if permQ1 <= 0 || permQ2 <= 0 {
		err = fmt.Errorf("permeabilities must be positive, have %g and %g", permQ1, permQ2)
		return
	}
	sk = SteklovNonConst{PermQ1: permQ1, PermQ2: permQ2}
	sk.t = math.Sqrt(permQ2 / permQ1)
	sk.Lambda = 4 / math.Pi * math.Atan(sk.t)
	return
}

func (SteklovNonConst) Benchmark() Benchmark { return ESteklovNonConst }

// Quadrant of a point, 0 for Q1 through 3 for Q4, and theta in [0, 2pi)
func Quadrant(x, y float64) (q int, theta float64) {
	theta = math.Atan2(y, x)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	q = int(theta / (math.Pi / 2))
	if q > 3 {
		q = 3
	}
	return
}

// angular returns g(theta) and g'(theta)
func (sk SteklovNonConst) angular(q int, theta float64) (g, dg float64) {
	var (
		l = sk.Lambda
	)
	switch q {
	case 0:
		a := l * (theta - math.Pi/4)
		g, dg = math.Cos(a), -l*math.Sin(a)
	case 1:
		a := l * (theta - 3*math.Pi/4)
		g, dg = -math.Sin(a)/sk.t, -l*math.Cos(a)/sk.t
	case 2:
		a := l * (theta - 5*math.Pi/4)
		g, dg = -math.Cos(a), l*math.Sin(a)
	default:
		a := l * (theta - 7*math.Pi/4)
		g, dg = math.Sin(a)/sk.t, l*math.Cos(a)/sk.t
	}
	return
}

func (sk SteklovNonConst) U(x, y float64) float64 {
	r := math.Hypot(x, y)
	if r == 0 {
		return 0
	}
	q, theta := Quadrant(x, y)
	g, _ := sk.angular(q, theta)
	return math.Pow(r, sk.Lambda) * g
}

func (sk SteklovNonConst) GradU(x, y float64) [2]float64 {
	r := math.Hypot(x, y)
	if r == 0 {
		return [2]float64{math.Inf(1), math.Inf(1)}
	}
	var (
		q, theta = Quadrant(x, y)
		g, dg    = sk.angular(q, theta)
		rl1      = math.Pow(r, sk.Lambda-1)
		c, s     = x / r, y / r
		ur, ut   = sk.Lambda * rl1 * g, rl1 * dg
	)
	return [2]float64{ur*c - ut*s, ur*s + ut*c}
}

func (SteklovNonConst) Source(x, y float64) float64 { return 0 }

func (sk SteklovNonConst) Permeability(x, y float64) float64 {
	if q, _ := Quadrant(x, y); q%2 == 0 {
		return sk.PermQ1
	}
	return sk.PermQ2
}

func (sk SteklovNonConst) Flux(x, y float64, sign SignConvention) [2]float64 {
	return flux(sk, x, y, sign)
}
