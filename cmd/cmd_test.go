package cmd

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D"
	"github.com/OliariVictor/FEMcomparison/results"
)

func intPtr(i int) *int { return &i }

func TestRunSweep(t *testing.T) {
	color.NoColor = true
	var (
		dir = t.TempDir()
		db  = filepath.Join(dir, "results.db")
		ro  = &RunOptions{
			Problem:          "ESinSin",
			Approx:           "Hybrid",
			K:                intPtr(1),
			N:                intPtr(1),
			Exp:              intPtr(1),
			RefinementLevels: intPtr(2),
			PlotDir:          dir,
			VTK:              true,
			Database:         db,
		}
	)
	records, err := RunSweep(ro, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, records, 2)

	out := filepath.Join(dir, "Hybrid_ESinSin_k-1_n-1")
	errLog, err := os.ReadFile(filepath.Join(out, ErrorLogFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(errLog), Laplace2D.ErrorLogHeader))

	// A second sweep appends rows without repeating the header
	_, err = RunSweep(ro, zaptest.NewLogger(t))
	require.NoError(t, err)
	f, err := os.Open(filepath.Join(out, CSVLogFile))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "step", rows[0][0])
	assert.Equal(t, "0", rows[3][0])
	errLog, err = os.ReadFile(filepath.Join(out, ErrorLogFile))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(errLog), Laplace2D.ErrorLogHeader))
	assert.Equal(t, 4, strings.Count(string(errLog), "ndiv = "))

	_, err = os.Stat(filepath.Join(out, "ESinSin_k-1_n-1_ref-8.vtk"))
	assert.NoError(t, err)

	store, err := results.Open(db)
	require.NoError(t, err)
	defer store.Close()
	sums, err := store.Compare("ESinSin")
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, records[1], sums[0].Final)

	var buf bytes.Buffer
	PrintSummaries(&buf, sums)
	assert.Contains(t, buf.String(), "Hybrid ESinSin k=1 n=1")
	assert.Contains(t, buf.String(), "rate0")
	buf.Reset()
	PrintRecords(&buf, records)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1 "))
}

func TestRunSweepInputFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(input, []byte("Problem: ESinSin\nApprox: Mixed\nOrder: 0\nEnrichment: 0\nExp: 0\nRefinementLevels: 1\n"), 0644))
	ro := &RunOptions{InputFile: input, Problem: "ESinSin", Approx: "H1", PlotDir: dir}
	records, err := RunSweep(ro, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, records, 1)
	_, err = os.Stat(filepath.Join(dir, "Mixed_ESinSin_k-0_n-0", CSVLogFile))
	assert.NoError(t, err)

	// Flags win over the file
	ro.N = intPtr(-1)
	_, err = RunSweep(ro, zaptest.NewLogger(t))
	var ce *Laplace2D.ConfigurationError
	assert.True(t, errors.As(err, &ce))
}

func TestRunSweepFailure(t *testing.T) {
	var (
		dir = t.TempDir()
		db  = filepath.Join(dir, "results.db")
		ro  = &RunOptions{
			Problem:     "ESinSin",
			Approx:      "Hybrid",
			K:           intPtr(1),
			N:           intPtr(1),
			HybridLevel: 2,
			PlotDir:     dir,
			Database:    db,
		}
	)
	_, err := RunSweep(ro, zaptest.NewLogger(t))
	var se *Laplace2D.StageError
	require.True(t, errors.As(err, &se))

	out := filepath.Join(dir, "Hybrid_ESinSin_k-1_n-1")
	errLog, err := os.ReadFile(filepath.Join(out, ErrorLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(errLog), "sweep failed at step 0: ")
	f, err := os.Open(filepath.Join(out, CSVLogFile))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Laplace2D.FailedStep, rows[1][0])

	store, err := results.Open(db)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs("ESinSin")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, results.StatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Failure)
	sums, err := store.Compare("ESinSin")
	require.NoError(t, err)
	assert.Empty(t, sums)
}

func TestRunRequiresOrder(t *testing.T) {
	// No order is assumed when -k is left out
	assert.Equal(t, "0", RunCmd.Flags().Lookup("k").DefValue)
	_, err := RunSweep(&RunOptions{Problem: "ESinSin", Approx: "H1", PlotDir: t.TempDir()}, zaptest.NewLogger(t))
	var ce *Laplace2D.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "k", ce.Param)
}
