package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D"
)

var (
	csvFile string
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "errors.csv file written by a refinement sweep")
	flag.Parse()
	csvFile = *csvFilePtr
	if len(csvFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	fmt.Printf("Input file: %v\n", csvFile)
	f, err := os.Open(csvFile)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	studies, err := readCSV(f)
	if err != nil {
		panic(err)
	}
	for i, cs := range studies {
		fmt.Printf("Sweep %d, %d steps\n", i, len(cs.h))
		for j := range cs.h {
			fmt.Printf("%d, %v, %v, %v\n", cs.ndiv[j], cs.h[j], cs.errors[j], cs.orders[j])
		}
	}
}

// ConvergenceStudy holds one sweep, orders are recomputed from consecutive steps
type ConvergenceStudy struct {
	ndiv   []int
	h      []float64
	errors [][]float64
	orders [][]float64
}

func (cs *ConvergenceStudy) Add(ndiv int, h float64, errs []float64) (err error) {
	var orders []float64
	if n := len(cs.h); n > 0 {
		orders = make([]float64, Laplace2D.NumRatedNorms)
		for j := range orders {
			if orders[j], err = Laplace2D.ConvergenceOrder(j, errs[j], cs.errors[n-1][j], h, cs.h[n-1]); err != nil {
				return
			}
		}
	}
	cs.ndiv = append(cs.ndiv, ndiv)
	cs.h = append(cs.h, h)
	cs.errors = append(cs.errors, errs)
	cs.orders = append(cs.orders, orders)
	return
}

// readCSV splits the rows into sweeps, a new sweep starts at every step 0, aborted sweeps are dropped
func readCSV(r io.Reader) (studies []*ConvergenceStudy, err error) {
	var records [][]string
	if records, err = csv.NewReader(bufio.NewReader(r)).ReadAll(); err != nil {
		return
	}
	var cs *ConvergenceStudy
	for i, rec := range records {
		if i == 0 && rec[0] == "step" {
			continue
		}
		if rec[0] == Laplace2D.FailedStep {
			if cs != nil {
				studies = studies[:len(studies)-1]
				cs = nil
			}
			continue
		}
		if len(rec) < 4+Laplace2D.NumErrorNorms {
			return nil, fmt.Errorf("row %d has %d columns", i, len(rec))
		}
		var (
			step, ndiv int
			h          float64
			errs       = make([]float64, Laplace2D.NumErrorNorms)
		)
		if step, err = strconv.Atoi(rec[0]); err != nil {
			return
		}
		if ndiv, err = strconv.Atoi(rec[1]); err != nil {
			return
		}
		if h, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return
		}
		for j := range errs {
			if errs[j], err = strconv.ParseFloat(rec[4+j], 64); err != nil {
				return
			}
		}
		if step == 0 || cs == nil {
			cs = &ConvergenceStudy{}
			studies = append(studies, cs)
		}
		if err = cs.Add(ndiv, h, errs); err != nil {
			return
		}
	}
	return
}
