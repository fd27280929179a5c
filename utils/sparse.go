package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// DOK is a dictionary of keys sparse matrix used to accumulate a global system during assembly
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }
func (m DOK) NNZ() int            { return m.M.NNZ() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

// AddAt accumulates val into entry (i,j)
func (m DOK) AddAt(i, j int, val float64) { // Changes receiver
	m.checkWritable()
	if val == 0 {
		return
	}
	m.M.Set(i, j, m.M.At(i, j)+val)
}

// AddBlock scatters a dense element matrix into the rows and columns listed in dofs
func (m DOK) AddBlock(dofs []int, K mat.Matrix) (err error) { // Changes receiver
	var (
		nr, nc = K.Dims()
	)
	if nr != len(dofs) || nc != len(dofs) {
		err = fmt.Errorf("block dimensions %dx%d do not match %d dofs", nr, nc, len(dofs))
		return
	}
	for i, gi := range dofs {
		for j, gj := range dofs {
			m.AddAt(gi, gj, K.At(i, j))
		}
	}
	return
}

// DoNonZero calls fn for every stored entry, in no particular order
func (m DOK) DoNonZero(fn func(i, j int, v float64)) {
	m.M.DoNonZero(fn)
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}
