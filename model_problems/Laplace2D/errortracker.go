package Laplace2D

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

const (
	ErrorLogHeader = "----------COMPUTED ERRORS----------"
	// FailedStep marks the CSV row closing a sweep that aborted, its second column is the failing step
	FailedStep = "failed"
)

// ErrorRecord is the outcome of one refinement step, Orders is nil when there was no prior step
type ErrorRecord struct {
	Step       int
	NDivisions int
	H          float64
	NEquations int
	Errors     []float64
	Orders     []float64
}

/*
ErrorTracker turns error norms into convergence orders against the previous step held by History, and appends every
step to the optional text and CSV logs.
*/
type ErrorTracker struct {
	History *ErrorHistory
	Records []ErrorRecord
	Log     io.Writer
	CSV     *csv.Writer
	// WriteLogHeader and WriteCSVHeader are set for empty logs, the header is emitted before the first record
	WriteLogHeader bool
	WriteCSVHeader bool
}

func NewErrorTracker(history *ErrorHistory) *ErrorTracker {
	return &ErrorTracker{History: history}
}

// ConvergenceOrder is the log-log slope between two steps
func ConvergenceOrder(norm int, e, ePrev, h, hPrev float64) (order float64, err error) {
	switch {
	case !(e > 0):
		err = &NumericError{Norm: norm, Value: e}
		return
	case !(ePrev > 0):
		err = &NumericError{Norm: norm, Value: ePrev}
		return
	}
	order = (math.Log10(e) - math.Log10(ePrev)) / (math.Log10(h) - math.Log10(hPrev))
	return
}

/*
Record rates the first NumRatedNorms norms when a prior step exists, stores the step as the new prior and logs it.
A non positive rated norm is a NumericError, returned after the norms have been recorded and persisted.
*/
func (et *ErrorTracker) Record(step, ndiv int, h float64, neq int, errs []float64) (rec ErrorRecord, err error) {
	if len(errs) != NumErrorNorms {
		err = fmt.Errorf("expected %d error norms, have %d", NumErrorNorms, len(errs))
		return
	}
	rec = ErrorRecord{
		Step:       step,
		NDivisions: ndiv,
		H:          h,
		NEquations: neq,
		Errors:     append([]float64(nil), errs...),
	}
	var numErr error
	for j := 0; j < NumRatedNorms; j++ {
		if !(errs[j] > 0) {
			numErr = &NumericError{Norm: j, Value: errs[j]}
			break
		}
	}
	if numErr == nil && et.History.HasPrior() {
		rec.Orders = make([]float64, NumRatedNorms)
		for j := range rec.Orders {
			if rec.Orders[j], numErr = ConvergenceOrder(j, errs[j], et.History.PrevErrors[j], h, et.History.PrevH); numErr != nil {
				rec.Orders = nil
				break
			}
		}
	}
	copy(et.History.PrevErrors, errs)
	et.History.PrevH = h
	et.Records = append(et.Records, rec)
	if err = et.writeLogs(rec); err != nil {
		return
	}
	err = numErr
	return
}

func (et *ErrorTracker) writeLogs(rec ErrorRecord) (err error) {
	if et.Log != nil {
		if err = et.writeLogHeader(); err != nil {
			return
		}
		if _, err = fmt.Fprintf(et.Log, "ndiv = %d\n", rec.NDivisions); err != nil {
			return
		}
		for j, o := range rec.Orders {
			if _, err = fmt.Fprintf(et.Log, "rate %d: %g\n", j, o); err != nil {
				return
			}
		}
		if _, err = fmt.Fprintf(et.Log, "h = %g\nDOF = %d\nerrors = %v\n", rec.H, rec.NEquations, rec.Errors); err != nil {
			return
		}
	}
	if et.CSV != nil {
		if err = et.writeCSVHeader(); err != nil {
			return
		}
		row := []string{
			strconv.Itoa(rec.Step),
			strconv.Itoa(rec.NDivisions),
			formatFloat(rec.H),
			strconv.Itoa(rec.NEquations),
		}
		for _, e := range rec.Errors {
			row = append(row, formatFloat(e))
		}
		for j := 0; j < NumRatedNorms; j++ {
			if rec.Orders == nil {
				row = append(row, "")
				continue
			}
			row = append(row, formatFloat(rec.Orders[j]))
		}
		if err = et.CSV.Write(row); err != nil {
			return
		}
		et.CSV.Flush()
		err = et.CSV.Error()
	}
	return
}

/*
RecordFailure closes an aborted sweep in both logs, so that its partial rows are not read as a completed study.
The CSV row keeps the column count of the records.
*/
func (et *ErrorTracker) RecordFailure(step int, cause error) (err error) {
	if et.Log != nil {
		if err = et.writeLogHeader(); err != nil {
			return
		}
		if _, err = fmt.Fprintf(et.Log, "sweep failed at step %d: %v\n", step, cause); err != nil {
			return
		}
	}
	if et.CSV != nil {
		if err = et.writeCSVHeader(); err != nil {
			return
		}
		row := make([]string, 4+NumErrorNorms+NumRatedNorms)
		row[0], row[1] = FailedStep, strconv.Itoa(step)
		if err = et.CSV.Write(row); err != nil {
			return
		}
		et.CSV.Flush()
		err = et.CSV.Error()
	}
	return
}

func (et *ErrorTracker) writeLogHeader() (err error) {
	if !et.WriteLogHeader {
		return
	}
	if _, err = fmt.Fprintln(et.Log, ErrorLogHeader); err != nil {
		return
	}
	et.WriteLogHeader = false
	return
}

func (et *ErrorTracker) writeCSVHeader() (err error) {
	if !et.WriteCSVHeader {
		return
	}
	header := []string{"step", "ndiv", "h", "dof"}
	for j := 0; j < NumErrorNorms; j++ {
		header = append(header, "e"+strconv.Itoa(j))
	}
	for j := 0; j < NumRatedNorms; j++ {
		header = append(header, "rate"+strconv.Itoa(j))
	}
	if err = et.CSV.Write(header); err != nil {
		return
	}
	et.WriteCSVHeader = false
	return
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
