package Laplace2D

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D/exact_solution"
)

type memorySink struct {
	records []ErrorRecord
}

func (ms *memorySink) AppendRecord(rec ErrorRecord) error {
	ms.records = append(ms.records, rec)
	return nil
}

func TestConvergenceOrder(t *testing.T) {
	order, err := ConvergenceOrder(0, 1.e-3, 1.e-2, 0.01, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 1., order, 1.e-14)
	order, err = ConvergenceOrder(1, 0.25, 1, 0.5, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2., order, 1.e-14)

	var ne *NumericError
	_, err = ConvergenceOrder(2, 0, 1.e-2, 0.01, 0.1)
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 2, ne.Norm)
	_, err = ConvergenceOrder(0, 1.e-3, math.NaN(), 0.01, 0.1)
	assert.True(t, errors.As(err, &ne))
}

func TestErrorTracker(t *testing.T) {
	var (
		history = NewErrorHistory()
		et      = NewErrorTracker(&history)
		logBuf  bytes.Buffer
		csvBuf  bytes.Buffer
	)
	et.Log = &logBuf
	et.CSV = csv.NewWriter(&csvBuf)
	et.WriteLogHeader, et.WriteCSVHeader = true, true

	rec, err := et.Record(0, 2, 0.1, 10, []float64{1.e-2, 1.e-1, 2.e-1, 5})
	require.NoError(t, err)
	assert.Nil(t, rec.Orders)
	assert.True(t, history.HasPrior())
	assert.Equal(t, 0.1, history.PrevH)

	// The fourth norm has no order, even when it stagnates
	rec, err = et.Record(1, 3, 0.01, 40, []float64{1.e-3, 1.e-3, 2.e-3, 5})
	require.NoError(t, err)
	require.Len(t, rec.Orders, NumRatedNorms)
	assert.Equal(t, 3, NumRatedNorms)
	assert.InDelta(t, 1., rec.Orders[0], 1.e-14)
	assert.InDelta(t, 2., rec.Orders[1], 1.e-14)
	assert.InDelta(t, 2., rec.Orders[2], 1.e-14)
	assert.Len(t, et.Records, 2)

	_, err = et.Record(2, 4, 0.005, 80, []float64{1, 2})
	assert.Error(t, err)
	assert.Len(t, et.Records, 2)
	require.NoError(t, et.RecordFailure(2, errors.New("diverged")))

	log := logBuf.String()
	assert.Equal(t, 1, strings.Count(log, ErrorLogHeader))
	assert.True(t, strings.HasPrefix(log, ErrorLogHeader))
	assert.Contains(t, log, "ndiv = 2\nh = 0.1\nDOF = 10\nerrors = [0.01 0.1 0.2 5]\n")
	assert.Contains(t, log, "ndiv = 3\nrate 0: ")
	assert.Contains(t, log, "h = 0.01\nDOF = 40\n")
	assert.True(t, strings.HasSuffix(log, "sweep failed at step 2: diverged\n"))

	rows, err := csv.NewReader(&csvBuf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{FailedStep, "2", "", "", "", "", "", "", "", "", ""}, rows[3])
	assert.Equal(t, []string{"step", "ndiv", "h", "dof", "e0", "e1", "e2", "e3", "rate0", "rate1", "rate2"}, rows[0])
	assert.Equal(t, []string{"0", "2", "0.1", "10", "0.01", "0.1", "0.2", "5", "", "", ""}, rows[1])
	assert.Equal(t, "1", rows[2][8])
}

func TestErrorTrackerAppendsWithoutHeader(t *testing.T) {
	var (
		history = NewErrorHistory()
		et      = NewErrorTracker(&history)
		logBuf  bytes.Buffer
	)
	// A log that already holds a sweep gets no second title line
	et.Log = &logBuf
	_, err := et.Record(0, 2, 0.1, 10, []float64{1.e-2, 1.e-1, 2.e-1, 5})
	require.NoError(t, err)
	assert.NotContains(t, logBuf.String(), ErrorLogHeader)
	assert.True(t, strings.HasPrefix(logBuf.String(), "ndiv = 2\n"))
}

func TestErrorTrackerNumericError(t *testing.T) {
	history := NewErrorHistory()
	et := NewErrorTracker(&history)
	rec, err := et.Record(0, 2, 0.1, 10, []float64{0, 1, 1, 1})
	var ne *NumericError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 0, ne.Norm)
	// Recorded and persisted regardless
	assert.Len(t, et.Records, 1)
	assert.Equal(t, []float64{0, 1, 1, 1}, rec.Errors)
	assert.Equal(t, 0.1, history.PrevH)
	assert.Equal(t, 0., history.PrevErrors[0])
}

func TestSweepSinSinH1(t *testing.T) {
	rc, err := NewRunConfig(H1, exact_solution.ESinSin, 2, 0)
	require.NoError(t, err)
	rc.RefinementLevels = 2

	var (
		sink   = &memorySink{}
		logBuf bytes.Buffer
	)
	core, logs := observer.New(zap.InfoLevel)
	o, err := NewOrchestrator(rc, WithRecordSink(sink), WithLogger(zap.New(core)), WithErrorLog(&logBuf, true))
	require.NoError(t, err)
	assert.Equal(t, Configuring, o.State())

	records, err := o.Sweep()
	require.NoError(t, err)
	assert.Equal(t, Done, o.State())
	require.Len(t, records, 2)
	assert.Nil(t, records[0].Orders)
	require.Len(t, records[1].Orders, NumRatedNorms)
	assert.Equal(t, records, sink.records)
	assert.Equal(t, []int{2, 3}, []int{records[0].NDivisions, records[1].NDivisions})
	assert.Equal(t, 0.0625, records[1].H)
	assert.Greater(t, records[1].NEquations, records[0].NEquations)
	// P2: L2 of u gains three orders, the flux and H1 norms two
	assert.Greater(t, records[1].Orders[0], 2.5)
	assert.Greater(t, records[1].Orders[1], 1.7)
	assert.Greater(t, records[1].Orders[2], 1.7)

	assert.Equal(t, 2, logs.FilterMessage("step recorded").Len())
	assert.Contains(t, logBuf.String(), "rate 2: ")

	_, err = o.Sweep()
	assert.Error(t, err)
}

func TestSweepRates(t *testing.T) {
	type tc struct {
		mode   Mode
		k, n   int
		minOrd [NumRatedNorms]float64
	}
	cases := []tc{
		{H1, 1, 0, [NumRatedNorms]float64{1.7, 0.85, 0.85}},
		{Hybrid, 1, 1, [NumRatedNorms]float64{1.7, 1.5, 1.5}},
		{Mixed, 1, 0, [NumRatedNorms]float64{1.5, 1.5, 1.5}},
		{Mixed, 0, 1, [NumRatedNorms]float64{0.8, 0.8, 0.8}},
	}
	for _, c := range cases {
		rc, err := NewRunConfig(c.mode, exact_solution.ESinSin, c.k, c.n)
		require.NoError(t, err)
		rc.Exp, rc.RefinementLevels = 1, 3
		o, err := NewOrchestrator(rc)
		require.NoError(t, err)
		records, err := o.Sweep()
		require.NoErrorf(t, err, "%s k=%d n=%d", c.mode, c.k, c.n)
		last := records[len(records)-1]
		for j, m := range c.minOrd {
			assert.Greaterf(t, last.Orders[j], m, "%s k=%d n=%d norm %d", c.mode, c.k, c.n, j)
		}
		for j := range last.Errors {
			assert.Less(t, last.Errors[j], records[0].Errors[j])
		}
	}
}

func TestSweepSteklov(t *testing.T) {
	for _, mode := range []Mode{H1, Hybrid, Mixed} {
		rc, err := NewRunConfig(mode, exact_solution.ESteklovNonConst, 1, 1)
		require.NoError(t, err)
		rc.Exp, rc.RefinementLevels = 1, 2
		o, err := NewOrchestrator(rc, WithExporter(&VTKExporter{Dir: t.TempDir()}))
		require.NoError(t, err)
		records, err := o.Sweep()
		require.NoErrorf(t, err, "%s", mode)
		for _, rec := range records {
			for _, e := range rec.Errors {
				assert.False(t, math.IsNaN(e) || math.IsInf(e, 0))
				assert.Greater(t, e, 0.)
			}
		}
		// The singular solution limits the rate of the flux
		assert.Less(t, records[1].Orders[1], 1.5)
	}
}

type failingSink struct {
	memorySink
	failAt int
}

func (fs *failingSink) AppendRecord(rec ErrorRecord) error {
	if rec.Step == fs.failAt {
		return errors.New("disk full")
	}
	return fs.memorySink.AppendRecord(rec)
}

func TestSweepFailureIsMarked(t *testing.T) {
	rc, err := NewRunConfig(H1, exact_solution.ESinSin, 1, 0)
	require.NoError(t, err)
	rc.Exp, rc.RefinementLevels = 0, 3
	var (
		sink           = &failingSink{failAt: 1}
		logBuf, csvBuf bytes.Buffer
	)
	o, err := NewOrchestrator(rc, WithRecordSink(sink), WithErrorLog(&logBuf, true), WithCSVLog(&csvBuf, true))
	require.NoError(t, err)
	_, err = o.Sweep()
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Step)
	assert.Equal(t, ErrorRecorded, se.Stage)
	assert.Len(t, sink.records, 1)

	assert.Contains(t, logBuf.String(), "sweep failed at step 1: ")
	assert.Contains(t, logBuf.String(), "disk full")
	rows, err := csv.NewReader(&csvBuf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "1", rows[2][0])
	assert.Equal(t, []string{FailedStep, "1"}, rows[3][:2])
}

func TestSweepStageError(t *testing.T) {
	rc, err := NewRunConfig(Hybrid, exact_solution.ESinSin, 1, 1)
	require.NoError(t, err)
	rc.HybridLevel = 2
	o, err := NewOrchestrator(rc)
	require.NoError(t, err)
	_, err = o.Sweep()
	var (
		se *StageError
		ce *ConfigurationError
	)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, SpaceBuilt, se.Stage)
	assert.Equal(t, 0, se.Step)
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, MeshReady, o.State())

	_, err = NewOrchestrator(nil)
	assert.True(t, errors.As(err, &ce))
}
