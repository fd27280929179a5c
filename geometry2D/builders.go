package geometry2D

// Quadrant order used by the origin centered domain: Q1 (+,+), Q2 (-,+), Q3 (-,-), Q4 (+,-)
const NumQuadrants = 4

/*
BuildUnitSquare returns [0,1]x[0,1] as 2x2 macro squares, each split in two triangles along the
(x0,y0)-(x1,y1) diagonal, every triangle carries matID and every boundary segment bcID
*/
func BuildUnitSquare(matID, bcID int) (tm *TriMesh) {
	return buildSquareGrid(0, 1,
		func(i, j int) int { return matID },
		func(i, j int) int { return bcID })
}

/*
BuildOriginCenteredSquare returns [-1,1]x[-1,1] as four unit macro squares, one per quadrant. The
triangles of each quadrant carry matIDs[q] and the outer boundary segments of the quadrant bcIDs[q].
*/
func BuildOriginCenteredSquare(matIDs, bcIDs [NumQuadrants]int) (tm *TriMesh) {
	quadrant := func(i, j int) int {
		switch {
		case i == 1 && j == 1:
			return 0
		case i == 0 && j == 1:
			return 1
		case i == 0 && j == 0:
			return 2
		}
		return 3
	}
	return buildSquareGrid(-1, 1,
		func(i, j int) int { return matIDs[quadrant(i, j)] },
		func(i, j int) int { return bcIDs[quadrant(i, j)] })
}

func buildSquareGrid(xmin, xmax float64, matID, bcID func(i, j int) int) (tm *TriMesh) {
	const n = 2
	var (
		dx  = (xmax - xmin) / n
		ind = func(i, j int) int { return i + j*(n+1) }
	)
	tm = &TriMesh{}
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			tm.AddPoint(xmin+float64(i)*dx, xmin+float64(j)*dx)
		}
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			var (
				p00, p10 = ind(i, j), ind(i+1, j)
				p01, p11 = ind(i, j+1), ind(i+1, j+1)
				mat, bc  = matID(i, j), bcID(i, j)
			)
			tm.AddTri(mat, p00, p10, p11)
			tm.AddTri(mat, p00, p11, p01)
			if j == 0 {
				tm.AddBCEdge(bc, p00, p10)
			}
			if i == n-1 {
				tm.AddBCEdge(bc, p10, p11)
			}
			if j == n-1 {
				tm.AddBCEdge(bc, p11, p01)
			}
			if i == 0 {
				tm.AddBCEdge(bc, p01, p00)
			}
		}
	}
	return
}
