package FEM2D

import (
	"math"
)

// AffineMap takes the reference triangle onto a physical triangle, x = X0 + J (r,s)
type AffineMap struct {
	X0   [2]float64
	J    [2][2]float64
	Jinv [2][2]float64
	Det  float64
}

func NewAffineMap(X [3][2]float64) (am AffineMap) {
	am.X0 = X[0]
	am.J = [2][2]float64{
		{X[1][0] - X[0][0], X[2][0] - X[0][0]},
		{X[1][1] - X[0][1], X[2][1] - X[0][1]},
	}
	am.Det = am.J[0][0]*am.J[1][1] - am.J[0][1]*am.J[1][0]
	oodet := 1. / am.Det
	am.Jinv = [2][2]float64{
		{am.J[1][1] * oodet, -am.J[0][1] * oodet},
		{-am.J[1][0] * oodet, am.J[0][0] * oodet},
	}
	return
}

func (am AffineMap) Map(r, s float64) (x, y float64) {
	x = am.X0[0] + am.J[0][0]*r + am.J[0][1]*s
	y = am.X0[1] + am.J[1][0]*r + am.J[1][1]*s
	return
}

// GradToPhysical transforms a reference gradient (d/dr, d/ds) to (d/dx, d/dy) using J^-T
func (am AffineMap) GradToPhysical(dr, ds float64) (dx, dy float64) {
	dx = am.Jinv[0][0]*dr + am.Jinv[1][0]*ds
	dy = am.Jinv[0][1]*dr + am.Jinv[1][1]*ds
	return
}

func (am AffineMap) Area() float64 { return 0.5 * math.Abs(am.Det) }

// RefEdgePoint returns the reference coordinates at parameter t along local edge e, running from vertex e to vertex e+1
func RefEdgePoint(e int, t float64) (r, s float64) {
	verts := [3][2]float64{{0, 0}, {1, 0}, {0, 1}}
	v0, v1 := verts[e], verts[(e+1)%3]
	r = v0[0] + t*(v1[0]-v0[0])
	s = v0[1] + t*(v1[1]-v0[1])
	return
}

// Diameter is the longest edge of the triangle
func Diameter(X [3][2]float64) (h float64) {
	for e := 0; e < 3; e++ {
		p0, p1 := X[e], X[(e+1)%3]
		h = math.Max(h, math.Hypot(p1[0]-p0[0], p1[1]-p0[1]))
	}
	return
}

func Centroid(X [3][2]float64) (xc [2]float64) {
	for i := 0; i < 3; i++ {
		xc[0] += X[i][0] / 3
		xc[1] += X[i][1] / 3
	}
	return
}
