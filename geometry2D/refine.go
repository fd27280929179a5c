package geometry2D

import (
	"github.com/OliariVictor/FEMcomparison/types"
)

// UniformRefine splits every triangle into four through its edge midpoints, count times. The input is not changed.
func UniformRefine(tm *TriMesh, count int) (out *TriMesh) {
	out = tm.clone()
	for n := 0; n < count; n++ {
		out = out.refineOnce()
	}
	return
}

func (tm *TriMesh) clone() (c *TriMesh) {
	c = &TriMesh{
		Points:  append([]Point(nil), tm.Points...),
		Tris:    append([]Tri(nil), tm.Tris...),
		BCEdges: append([]BCEdge(nil), tm.BCEdges...),
	}
	return
}

func (tm *TriMesh) refineOnce() (r *TriMesh) {
	var (
		mids = make(map[types.EdgeKey]int, 3*len(tm.Tris)/2)
	)
	r = &TriMesh{
		Points: append(make([]Point, 0, 4*len(tm.Points)), tm.Points...),
	}
	midPoint := func(v0, v1 int) int {
		key := types.NewEdgeKey([2]int{v0, v1})
		if ind, ok := mids[key]; ok {
			return ind
		}
		p0, p1 := tm.Points[v0].X, tm.Points[v1].X
		ind := r.AddPoint(0.5*(p0[0]+p1[0]), 0.5*(p0[1]+p1[1]))
		mids[key] = ind
		return ind
	}
	for _, tri := range tm.Tris {
		var (
			a, b, c = tri.Verts[0], tri.Verts[1], tri.Verts[2]
			mab     = midPoint(a, b)
			mbc     = midPoint(b, c)
			mca     = midPoint(c, a)
		)
		r.AddTri(tri.MatID, a, mab, mca)
		r.AddTri(tri.MatID, mab, b, mbc)
		r.AddTri(tri.MatID, mca, mbc, c)
		r.AddTri(tri.MatID, mab, mbc, mca)
	}
	for _, bc := range tm.BCEdges {
		m := midPoint(bc.Verts[0], bc.Verts[1])
		r.AddBCEdge(bc.BCID, bc.Verts[0], m)
		r.AddBCEdge(bc.BCID, m, bc.Verts[1])
	}
	return
}
