package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OliariVictor/FEMcomparison/model_problems/Laplace2D"
	"github.com/OliariVictor/FEMcomparison/results"
)

// CompareCmd represents the compare command
var CompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the finest step of every stored run of a benchmark",
	Long: `
Lists, for every completed run stored in the results database, the errors and rates of its finest refinement step.

FEMcomparison compare --db results.db --problem ESinSin`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		problem, _ := cmd.Flags().GetString("problem")
		if problem != "" {
			bench, perr := Laplace2D.ParseBenchmark(problem)
			if perr != nil {
				return perr
			}
			problem = bench.String()
		}
		dbPath := viper.GetString("compareDB")
		if dbPath == "" {
			return fmt.Errorf("a results database is required (--db)")
		}
		var store *results.Store
		if store, err = results.Open(dbPath); err != nil {
			return
		}
		defer store.Close()
		var sums []results.Summary
		if sums, err = store.Compare(problem); err != nil {
			return
		}
		PrintSummaries(cmd.OutOrStdout(), sums)
		return
	},
}

func init() {
	rootCmd.AddCommand(CompareCmd)
	CompareCmd.Flags().StringP("problem", "p", "", "restrict to one benchmark")
	CompareCmd.Flags().String("db", "", "sqlite database holding the error records")
	_ = viper.BindPFlag("compareDB", CompareCmd.Flags().Lookup("db"))
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	rateColor   = color.New(color.FgGreen)
	runColor    = color.New(color.FgYellow)
)

func formatRates(orders []float64) string {
	if orders == nil {
		return fmt.Sprintf("%-30s", "-")
	}
	var s string
	for _, o := range orders {
		s += fmt.Sprintf("%-10.4f", o)
	}
	return s
}

func printRecordHeader(w io.Writer) {
	headerColor.Fprintf(w, "%-6s%-10s%-10s", "ndiv", "h", "dof")
	for j := 0; j < Laplace2D.NumErrorNorms; j++ {
		headerColor.Fprintf(w, "%-14s", fmt.Sprintf("e%d", j))
	}
	for j := 0; j < Laplace2D.NumRatedNorms; j++ {
		headerColor.Fprintf(w, "%-10s", fmt.Sprintf("rate%d", j))
	}
	fmt.Fprintln(w)
}

func printRecord(w io.Writer, rec Laplace2D.ErrorRecord) {
	fmt.Fprintf(w, "%-6d%-10.5g%-10d", rec.NDivisions, rec.H, rec.NEquations)
	for _, e := range rec.Errors {
		fmt.Fprintf(w, "%-14.6e", e)
	}
	rateColor.Fprint(w, formatRates(rec.Orders))
	fmt.Fprintln(w)
}

// PrintRecords writes the records of a sweep as a table
func PrintRecords(w io.Writer, records []Laplace2D.ErrorRecord) {
	printRecordHeader(w)
	for _, rec := range records {
		printRecord(w, rec)
	}
}

// PrintSummaries writes one table line per stored run
func PrintSummaries(w io.Writer, sums []results.Summary) {
	if len(sums) == 0 {
		fmt.Fprintln(w, "no runs stored")
		return
	}
	for _, s := range sums {
		runColor.Fprintf(w, "%s %s k=%d n=%d  [%s]\n", s.Mode, s.Problem, s.K, s.N, s.ID)
		printRecordHeader(w)
		printRecord(w, s.Final)
	}
}
