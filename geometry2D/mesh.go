package geometry2D

import (
	"fmt"
	"math"

	"github.com/OliariVictor/FEMcomparison/types"
	"github.com/OliariVictor/FEMcomparison/utils"
)

type Point struct {
	X [2]float64
}

// Tri is a counter clockwise triangle, local edge e joins Verts[e] and Verts[(e+1)%3]
type Tri struct {
	Verts [3]int
	MatID int
}

// BCEdge is a boundary segment, its vertices are ordered as in the owning triangle so the outward normal is on the right
type BCEdge struct {
	Verts [2]int
	BCID  int
}

type Edge struct {
	Key       types.EdgeKey
	Tris      []int // Associated triangles, one for boundary edges
	LocalEdge []int // Local edge number of the edge within each associated triangle
	BCID      int   // Boundary id, zero for interior edges
}

func (e *Edge) IsBoundary() bool { return len(e.Tris) == 1 }

// Length of the edge with the mesh coordinates
func (e *Edge) Length(tm *TriMesh) float64 {
	v := e.Key.GetVertices(false)
	p0, p1 := tm.Points[v[0]].X, tm.Points[v[1]].X
	return math.Hypot(p1[0]-p0[0], p1[1]-p0[1])
}

type TriMesh struct {
	Points  []Point
	Tris    []Tri
	BCEdges []BCEdge
	// Connectivity, filled by BuildConnectivity
	Edges     []Edge
	TriEdges  [][3]int
	edgeIndex map[types.EdgeKey]int
}

func (tm *TriMesh) AddPoint(x, y float64) (ind int) {
	tm.Points = append(tm.Points, Point{X: [2]float64{x, y}})
	return len(tm.Points) - 1
}

func (tm *TriMesh) AddTri(matID int, verts ...int) {
	tm.Tris = append(tm.Tris, Tri{Verts: [3]int{verts[0], verts[1], verts[2]}, MatID: matID})
}

func (tm *TriMesh) AddBCEdge(bcID int, v0, v1 int) {
	tm.BCEdges = append(tm.BCEdges, BCEdge{Verts: [2]int{v0, v1}, BCID: bcID})
}

func (tm *TriMesh) NumTris() int { return len(tm.Tris) }

// Coordinates of the three vertices of triangle k
func (tm *TriMesh) Coordinates(k int) (X [3][2]float64) {
	for i, v := range tm.Tris[k].Verts {
		X[i] = tm.Points[v].X
	}
	return
}

func (tm *TriMesh) Area(k int) float64 {
	X := tm.Coordinates(k)
	return 0.5 * ((X[1][0]-X[0][0])*(X[2][1]-X[0][1]) - (X[2][0]-X[0][0])*(X[1][1]-X[0][1]))
}

// LocalEdgeVerts returns the vertices of local edge e of triangle k, in the triangle's order
func (tm *TriMesh) LocalEdgeVerts(k, e int) [2]int {
	v := tm.Tris[k].Verts
	return [2]int{v[e], v[(e+1)%3]}
}

func (tm *TriMesh) InteriorMaterialIDs() (ms types.MaterialSet) {
	ms = types.NewMaterialSet()
	for _, tri := range tm.Tris {
		ms.Insert(tri.MatID)
	}
	return
}

func (tm *TriMesh) BoundaryIDs() (ms types.MaterialSet) {
	ms = types.NewMaterialSet()
	for _, bc := range tm.BCEdges {
		ms.Insert(bc.BCID)
	}
	return
}

func (tm *TriMesh) MaxEdgeLength() (h float64) {
	for k := range tm.Tris {
		X := tm.Coordinates(k)
		for e := 0; e < 3; e++ {
			p0, p1 := X[e], X[(e+1)%3]
			h = math.Max(h, math.Hypot(p1[0]-p0[0], p1[1]-p0[1]))
		}
	}
	return
}

/*
BuildConnectivity numbers the unique edges in order of first appearance while traversing the triangles,
attaches the triangles on each side and the boundary ids of the boundary segments.
*/
func (tm *TriMesh) BuildConnectivity() (err error) {
	tm.Edges = tm.Edges[:0]
	tm.TriEdges = make([][3]int, len(tm.Tris))
	tm.edgeIndex = make(map[types.EdgeKey]int, 3*len(tm.Tris)/2+len(tm.BCEdges))
	for k := range tm.Tris {
		if area := tm.Area(k); area <= 0 || utils.Near(area, 0) {
			err = fmt.Errorf("triangle %d is degenerate or not counter clockwise, area %g", k, area)
			return
		}
		for e := 0; e < 3; e++ {
			key := types.NewEdgeKey(tm.LocalEdgeVerts(k, e))
			ind, ok := tm.edgeIndex[key]
			if !ok {
				ind = len(tm.Edges)
				tm.edgeIndex[key] = ind
				tm.Edges = append(tm.Edges, Edge{Key: key})
			}
			edge := &tm.Edges[ind]
			if len(edge.Tris) == 2 {
				err = fmt.Errorf("edge %v is shared by more than two triangles", key.GetVertices(false))
				return
			}
			edge.Tris = append(edge.Tris, k)
			edge.LocalEdge = append(edge.LocalEdge, e)
			tm.TriEdges[k][e] = ind
		}
	}
	for _, bc := range tm.BCEdges {
		ind, ok := tm.edgeIndex[types.NewEdgeKey(bc.Verts)]
		if !ok || !tm.Edges[ind].IsBoundary() {
			err = fmt.Errorf("boundary segment %v is not on the mesh boundary", bc.Verts)
			return
		}
		tm.Edges[ind].BCID = bc.BCID
	}
	for i := range tm.Edges {
		if tm.Edges[i].IsBoundary() && tm.Edges[i].BCID == 0 {
			err = fmt.Errorf("boundary edge %v has no boundary id", tm.Edges[i].Key.GetVertices(false))
			return
		}
	}
	return
}

func (tm *TriMesh) EdgeIndex(key types.EdgeKey) (ind int, ok bool) {
	ind, ok = tm.edgeIndex[key]
	return
}
