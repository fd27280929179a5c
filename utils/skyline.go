package utils

import (
	"fmt"
	"math"
)

// ZeroPivotError is returned when the LDLt factorization meets a vanishing pivot
type ZeroPivotError struct {
	Equation int
	Pivot    float64
}

func (e *ZeroPivotError) Error() string {
	return fmt.Sprintf("zero pivot %g at equation %d", e.Pivot, e.Equation)
}

/*
Skyline stores the lower triangle of a symmetric matrix by rows. Row i holds the columns
First[i]..i contiguously starting at Start[i], the profile of the matrix.
*/
type Skyline struct {
	N        int
	First    []int
	Start    []int
	Data     []float64
	factored bool
	// PivotTol is relative to the largest diagonal entry of the matrix
	PivotTol float64
}

// NewSkylineFromDOK builds the profile from the entries of a symmetric DOK, only the lower triangle is read
func NewSkylineFromDOK(A DOK) (sk *Skyline, err error) {
	var (
		nr, nc = A.Dims()
	)
	if nr != nc {
		err = fmt.Errorf("skyline needs a square matrix, have %dx%d", nr, nc)
		return
	}
	sk = &Skyline{
		N:        nr,
		First:    make([]int, nr),
		Start:    make([]int, nr+1),
		PivotTol: 1.e-14,
	}
	for i := range sk.First {
		sk.First[i] = i
	}
	A.DoNonZero(func(i, j int, v float64) {
		if j > i {
			i, j = j, i
		}
		if j < sk.First[i] {
			sk.First[i] = j
		}
	})
	for i := 0; i < nr; i++ {
		sk.Start[i+1] = sk.Start[i] + i - sk.First[i] + 1
	}
	sk.Data = make([]float64, sk.Start[nr])
	A.DoNonZero(func(i, j int, v float64) {
		if j > i {
			return
		}
		sk.Data[sk.Start[i]+j-sk.First[i]] = v
	})
	return
}

func (sk *Skyline) row(i int) []float64 {
	return sk.Data[sk.Start[i]:sk.Start[i+1]]
}

// At returns the stored (i,j) entry of the symmetric matrix, before factorization
func (sk *Skyline) At(i, j int) float64 {
	if j > i {
		i, j = j, i
	}
	if j < sk.First[i] {
		return 0
	}
	return sk.row(i)[j-sk.First[i]]
}

// FactorLDLt overwrites the profile with the unit lower factor L and the diagonal D, A = L D Lt
func (sk *Skyline) FactorLDLt() (err error) {
	if sk.factored {
		return fmt.Errorf("skyline matrix already factored")
	}
	var scale float64
	for i := 0; i < sk.N; i++ {
		scale = math.Max(scale, math.Abs(sk.At(i, i)))
	}
	if scale == 0 {
		scale = 1
	}
	for i := 0; i < sk.N; i++ {
		var (
			fi   = sk.First[i]
			rowi = sk.row(i)
		)
		// rowi[j-fi] temporarily holds t_j = l_ij * d_j
		for j := fi; j < i; j++ {
			var (
				fj   = sk.First[j]
				rowj = sk.row(j)
				k0   = max(fi, fj)
				sum  = rowi[j-fi]
			)
			for k := k0; k < j; k++ {
				sum -= rowi[k-fi] * rowj[k-fj]
			}
			rowi[j-fi] = sum
		}
		dii := rowi[i-fi]
		for j := fi; j < i; j++ {
			dj := sk.row(j)[j-sk.First[j]]
			t := rowi[j-fi]
			l := t / dj
			dii -= t * l
			rowi[j-fi] = l
		}
		if math.Abs(dii) <= sk.PivotTol*scale || math.IsNaN(dii) {
			return &ZeroPivotError{Equation: i, Pivot: dii}
		}
		rowi[i-fi] = dii
	}
	sk.factored = true
	return
}

// Solve returns x such that A x = b, using the LDLt factors
func (sk *Skyline) Solve(b []float64) (x []float64, err error) {
	if !sk.factored {
		err = fmt.Errorf("skyline matrix must be factored before solving")
		return
	}
	if len(b) != sk.N {
		err = fmt.Errorf("right hand side has length %d, system has %d equations", len(b), sk.N)
		return
	}
	x = make([]float64, sk.N)
	copy(x, b)
	// Forward, L y = b
	for i := 0; i < sk.N; i++ {
		var (
			fi   = sk.First[i]
			rowi = sk.row(i)
		)
		for j := fi; j < i; j++ {
			x[i] -= rowi[j-fi] * x[j]
		}
	}
	// Diagonal
	for i := 0; i < sk.N; i++ {
		x[i] /= sk.row(i)[i-sk.First[i]]
	}
	// Backward, Lt x = z
	for i := sk.N - 1; i >= 0; i-- {
		var (
			fi   = sk.First[i]
			rowi = sk.row(i)
		)
		for j := fi; j < i; j++ {
			x[j] -= rowi[j-fi] * x[i]
		}
	}
	return
}

// ProfileSize is the number of stored entries, a measure of the factorization cost
func (sk *Skyline) ProfileSize() int {
	return len(sk.Data)
}
