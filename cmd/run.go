package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/OliariVictor/FEMcomparison/InputParameters"
	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D"
	"github.com/OliariVictor/FEMcomparison/results"
)

const (
	ErrorLogFile = "Erro.txt"
	CSVLogFile   = "errors.csv"
)

type RunOptions struct {
	InputFile        string
	Problem, Approx  string
	K, N             *int
	Exp              *int
	RefinementLevels *int
	HybridLevel      int
	Threads          int
	PlotDir          string
	VTK              bool
	Database         string
}

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a refinement sweep of one approximation and benchmark",
	Long: `
Runs a refinement sweep, appending the error norms and rates of every step to Erro.txt and errors.csv
in the plot directory, optionally writing VTK files and storing the records in a results database.

FEMcomparison run --problem ESteklovNonConst --approx Mixed -k 1 -n 1 --levels 4 --db results.db`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ro := &RunOptions{}
		flags := cmd.Flags()
		ro.InputFile, _ = flags.GetString("inputFile")
		ro.Problem, _ = flags.GetString("problem")
		ro.Approx, _ = flags.GetString("approx")
		optionalInt := func(name string) *int {
			if !flags.Changed(name) {
				return nil
			}
			v, _ := flags.GetInt(name)
			return &v
		}
		ro.K, ro.N = optionalInt("k"), optionalInt("n")
		ro.Exp, ro.RefinementLevels = optionalInt("exp"), optionalInt("levels")
		ro.HybridLevel, _ = flags.GetInt("hybridLevel")
		ro.Threads, _ = flags.GetInt("threads")
		ro.VTK, _ = flags.GetBool("vtk")
		ro.PlotDir = viper.GetString("plotDir")
		ro.Database = viper.GetString("db")
		if prof, _ := flags.GetBool("profile"); prof {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(ro.PlotDir), profile.Quiet).Stop()
		}
		var records []Laplace2D.ErrorRecord
		if records, err = RunSweep(ro, logger); err != nil {
			return
		}
		PrintRecords(cmd.OutOrStdout(), records)
		return
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	flags := RunCmd.Flags()
	flags.StringP("inputFile", "I", "", "YAML file with the run parameters, flags override its values")
	flags.StringP("problem", "p", "ESinSin", "benchmark: ESinSin, EArcTan or ESteklovNonConst")
	flags.StringP("approx", "a", "H1", "approximation: H1, Hybrid or Mixed")
	flags.IntP("k", "k", 0, "polynomial order of the fluxes or of the H1 space, required")
	flags.IntP("n", "n", 0, "order enrichment of the element interiors, required for Hybrid and Mixed")
	flags.Int("exp", Laplace2D.DefaultExp, "uniform refinements of the base mesh before the first step")
	flags.Int("levels", Laplace2D.DefaultRefinementLevels, "number of refinement steps")
	flags.Int("hybridLevel", 1, "hybridization level of the Hybrid approximation")
	flags.IntP("threads", "t", 0, "assembly workers, 0 uses all processors")
	flags.String("plotDir", ".", "parent directory of the output of a sweep")
	flags.Bool("vtk", false, "write VTK files of every step")
	flags.String("db", "", "sqlite database receiving the error records")
	flags.Bool("profile", false, "write a CPU profile to the plot directory")
	_ = viper.BindPFlag("plotDir", flags.Lookup("plotDir"))
	_ = viper.BindPFlag("db", flags.Lookup("db"))
}

// runConfig merges the input file, when given, with the flags that were set explicitly
func (ro *RunOptions) runConfig() (rc *Laplace2D.RunConfig, err error) {
	ip := &InputParameters.InputParametersFEM{Problem: ro.Problem, Approx: ro.Approx}
	if ro.InputFile != "" {
		var data []byte
		if data, err = os.ReadFile(ro.InputFile); err != nil {
			return
		}
		if err = ip.Parse(data); err != nil {
			err = fmt.Errorf("input file %s: %w", ro.InputFile, err)
			return
		}
	}
	override := func(dst **int, v *int) {
		if v != nil {
			*dst = v
		}
	}
	override(&ip.K, ro.K)
	override(&ip.N, ro.N)
	override(&ip.Exp, ro.Exp)
	override(&ip.RefinementLevels, ro.RefinementLevels)
	if ro.HybridLevel != 0 {
		ip.HybridLevel = ro.HybridLevel
	}
	if ro.Threads != 0 {
		ip.Threads = ro.Threads
	}
	return ip.RunConfig()
}

// RunSweep runs one sweep with its logs written under the plot directory
func RunSweep(ro *RunOptions, logger *zap.Logger) (records []Laplace2D.ErrorRecord, err error) {
	var rc *Laplace2D.RunConfig
	if rc, err = ro.runConfig(); err != nil {
		return
	}
	dir := filepath.Join(ro.PlotDir, Laplace2D.PlotDirName(rc))
	if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}
	var errLog, csvLog *os.File
	if errLog, err = openAppend(filepath.Join(dir, ErrorLogFile)); err != nil {
		return
	}
	defer errLog.Close()
	if csvLog, err = openAppend(filepath.Join(dir, CSVLogFile)); err != nil {
		return
	}
	defer csvLog.Close()
	opts := []Laplace2D.Option{
		Laplace2D.WithLogger(logger.With(zap.Stringer("mode", rc.Mode), zap.Stringer("problem", rc.Benchmark))),
		Laplace2D.WithErrorLog(errLog, isEmpty(errLog)),
		Laplace2D.WithCSVLog(csvLog, isEmpty(csvLog)),
	}
	if ro.VTK {
		opts = append(opts, Laplace2D.WithExporter(&Laplace2D.VTKExporter{Dir: dir}))
	}
	if ro.Database != "" {
		var store *results.Store
		if store, err = results.Open(ro.Database); err != nil {
			return
		}
		defer store.Close()
		var run *results.Run
		if run, err = store.BeginRun(rc); err != nil {
			return
		}
		defer func() {
			if ferr := run.Finish(err); ferr != nil && err == nil {
				err = ferr
			}
		}()
		logger.Info("storing records", zap.String("run", run.ID), zap.String("db", ro.Database))
		opts = append(opts, Laplace2D.WithRecordSink(run))
	}
	var o *Laplace2D.Orchestrator
	if o, err = Laplace2D.NewOrchestrator(rc, opts...); err != nil {
		return
	}
	return o.Sweep()
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func isEmpty(f *os.File) bool {
	fi, err := f.Stat()
	return err != nil || fi.Size() == 0
}

// Ensure the results store can receive sweep records
var _ Laplace2D.RecordSink = (*results.Run)(nil)
