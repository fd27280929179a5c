package Laplace2D

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// PlotDirName is the output directory of a sweep, H1_<problem>_k-<k> or <mode>_<problem>_k-<k>_n-<n>
func PlotDirName(rc *RunConfig) string {
	if rc.Mode == H1 {
		return fmt.Sprintf("H1_%s_k-%d", rc.Benchmark, rc.K)
	}
	return fmt.Sprintf("%s_%s_k-%d_n-%d", rc.Mode, rc.Benchmark, rc.K, rc.N)
}

// VTKExporter writes solved fields and meshes as legacy ASCII VTK unstructured grids
type VTKExporter struct {
	Dir string
}

func (ve *VTKExporter) fieldFileName(ps *ProblemSpec, mode Mode) string {
	if mode == H1 {
		return fmt.Sprintf("%s_k-%d_ref-%d.vtk", ps.ProblemName, ps.K, ps.RefinementFactor())
	}
	return fmt.Sprintf("%s_k-%d_n-%d_ref-%d.vtk", ps.ProblemName, ps.K, ps.N, ps.RefinementFactor())
}

func (ve *VTKExporter) geometryFileName(ps *ProblemSpec) string {
	return fmt.Sprintf("%s_geometry_ref-%d.vtk", ps.ProblemName, ps.RefinementFactor())
}

// Export writes the post processing fields and the geometry of one step, returning the written paths
func (ve *VTKExporter) Export(sf *SolvedField) (files []string, err error) {
	if err = os.MkdirAll(ve.Dir, 0755); err != nil {
		return
	}
	var (
		ps    = sf.Space.Problem
		field = filepath.Join(ve.Dir, ve.fieldFileName(ps, sf.Space.Strategy.Mode()))
		geom  = filepath.Join(ve.Dir, ve.geometryFileName(ps))
	)
	if err = writeFile(field, func(w *bufio.Writer) error { return writeFieldVTK(w, sf) }); err != nil {
		return
	}
	if err = writeFile(geom, func(w *bufio.Writer) error { return writeGeometryVTK(w, ps) }); err != nil {
		return
	}
	files = []string{field, geom}
	return
}

func writeFile(path string, fn func(w *bufio.Writer) error) (err error) {
	var file *os.File
	if file, err = os.Create(path); err != nil {
		return
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(file)
	if err = fn(w); err != nil {
		return
	}
	return w.Flush()
}

func vtkFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

/*
writeFieldVTK samples every element on a lattice of resolution k+n, so higher order fields are drawn with sub
triangles. Points are not shared between elements to keep the broken fields of Hybrid and Mixed visible.
*/
func writeFieldVTK(w *bufio.Writer, sf *SolvedField) (err error) {
	var (
		ds               = sf.Space
		ps               = ds.Problem
		strat            = ds.Strategy
		res              = max(1, ps.K+ps.N)
		scNames, vcNames = strat.PostProcessFields()
		nLat             = (res + 1) * (res + 2) / 2
		points           [][2]float64
		scalars          = make([][]float64, len(scNames))
		vectors          = make([][][2]float64, len(vcNames))
		cells            [][3]int
	)
	lattice := func(i, j int) int { return j*(res+1) - j*(j-1)/2 + i }
	for g, group := range ds.Groups {
		var (
			k    = group.Element
			am   = ds.Maps[k]
			base = g * nLat
		)
		for j := 0; j <= res; j++ {
			for i := 0; i+j <= res; i++ {
				r, s := float64(i)/float64(res), float64(j)/float64(res)
				x, y := am.Map(r, s)
				fv := ds.system.evaluate(k, sf.Coeffs[g], r, s)
				sc, vc := strat.postProcess(ps, fv, x, y)
				points = append(points, [2]float64{x, y})
				for n := range sc {
					scalars[n] = append(scalars[n], sc[n])
				}
				for n := range vc {
					vectors[n] = append(vectors[n], vc[n])
				}
			}
		}
		for j := 0; j < res; j++ {
			for i := 0; i+j < res; i++ {
				cells = append(cells, [3]int{base + lattice(i, j), base + lattice(i+1, j), base + lattice(i, j+1)})
				if i+j < res-1 {
					cells = append(cells, [3]int{base + lattice(i+1, j), base + lattice(i+1, j+1), base + lattice(i, j+1)})
				}
			}
		}
	}
	title := fmt.Sprintf("%s %s k=%d n=%d h=%g", strat.Mode(), ps.ProblemName, ps.K, ps.N, ps.H)
	if err = writeGrid(w, title, points, cells); err != nil {
		return
	}
	fmt.Fprintf(w, "POINT_DATA %d\n", len(points))
	for n, name := range scNames {
		fmt.Fprintf(w, "SCALARS %s double 1\nLOOKUP_TABLE default\n", name)
		for _, v := range scalars[n] {
			fmt.Fprintf(w, "%g\n", vtkFloat(v))
		}
	}
	for n, name := range vcNames {
		fmt.Fprintf(w, "VECTORS %s double\n", name)
		for _, v := range vectors[n] {
			fmt.Fprintf(w, "%g %g 0\n", vtkFloat(v[0]), vtkFloat(v[1]))
		}
	}
	return
}

func writeGeometryVTK(w *bufio.Writer, ps *ProblemSpec) (err error) {
	var (
		tm     = ps.Mesh
		points = make([][2]float64, len(tm.Points))
		cells  = make([][3]int, tm.NumTris())
	)
	for i, p := range tm.Points {
		points[i] = p.X
	}
	for k, tri := range tm.Tris {
		cells[k] = tri.Verts
	}
	if err = writeGrid(w, fmt.Sprintf("%s geometry h=%g", ps.ProblemName, ps.H), points, cells); err != nil {
		return
	}
	fmt.Fprintf(w, "CELL_DATA %d\nSCALARS MaterialID int 1\nLOOKUP_TABLE default\n", len(cells))
	for _, tri := range tm.Tris {
		fmt.Fprintf(w, "%d\n", tri.MatID)
	}
	return
}

func writeGrid(w *bufio.Writer, title string, points [][2]float64, cells [][3]int) (err error) {
	if _, err = fmt.Fprintf(w, "# vtk DataFile Version 3.0\n%s\nASCII\nDATASET UNSTRUCTURED_GRID\n", title); err != nil {
		return
	}
	fmt.Fprintf(w, "POINTS %d double\n", len(points))
	for _, p := range points {
		fmt.Fprintf(w, "%g %g 0\n", p[0], p[1])
	}
	fmt.Fprintf(w, "CELLS %d %d\n", len(cells), 4*len(cells))
	for _, c := range cells {
		fmt.Fprintf(w, "3 %d %d %d\n", c[0], c[1], c[2])
	}
	fmt.Fprintf(w, "CELL_TYPES %d\n", len(cells))
	for range cells {
		fmt.Fprintln(w, "5")
	}
	return
}
