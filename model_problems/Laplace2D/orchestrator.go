package Laplace2D

import (
	"encoding/csv"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
)

type State uint8

const (
	Configuring State = iota
	MeshReady
	SpaceBuilt
	Solved
	ErrorRecorded
	Done
)

var StatePrintNames = []string{"Configuring", "MeshReady", "SpaceBuilt", "Solved", "ErrorRecorded", "Done"}

func (s State) String() string {
	if int(s) < len(StatePrintNames) {
		return StatePrintNames[s]
	}
	return "Unknown"
}

// RecordSink receives every error record of a sweep, such as a results store
type RecordSink interface {
	AppendRecord(rec ErrorRecord) error
}

/*
Orchestrator runs a refinement sweep. Each step rebuilds the mesh and the spaces from scratch, solves, and records the
errors. Steps are strictly sequential, the first failure aborts the sweep.
*/
type Orchestrator struct {
	RC       *RunConfig
	Strategy SpaceStrategy
	Tracker  *ErrorTracker
	Solver   *SolveStage
	Logger   *zap.Logger
	Sink     RecordSink
	Exporter *VTKExporter
	state    State
}

type Option func(o *Orchestrator)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.Logger = logger }
}

func WithRecordSink(sink RecordSink) Option {
	return func(o *Orchestrator) { o.Sink = sink }
}

func WithExporter(ve *VTKExporter) Option {
	return func(o *Orchestrator) { o.Exporter = ve }
}

// WithErrorLog appends the text error log to w, header writes the title line first
func WithErrorLog(w io.Writer, header bool) Option {
	return func(o *Orchestrator) {
		o.Tracker.Log = w
		o.Tracker.WriteLogHeader = header
	}
}

// WithCSVLog appends one row per step to w, header adds the column names first
func WithCSVLog(w io.Writer, header bool) Option {
	return func(o *Orchestrator) {
		o.Tracker.CSV = csv.NewWriter(w)
		o.Tracker.WriteCSVHeader = header
	}
}

func NewOrchestrator(rc *RunConfig, opts ...Option) (o *Orchestrator, err error) {
	if rc == nil {
		err = configErr("runConfig", nil, "missing run configuration")
		return
	}
	if err = rc.Validate(); err != nil {
		return
	}
	var strategy SpaceStrategy
	if strategy, err = NewSpaceStrategy(rc.Mode, rc.HybridLevel); err != nil {
		return
	}
	if rc.History.PrevErrors == nil {
		rc.History = NewErrorHistory()
	}
	o = &Orchestrator{
		RC:       rc,
		Strategy: strategy,
		Tracker:  NewErrorTracker(&rc.History),
		Logger:   zap.NewNop(),
		state:    Configuring,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.Solver = &SolveStage{Threads: rc.Threads, Logger: o.Logger}
	return
}

func (o *Orchestrator) State() State { return o.state }

// RunStep takes one refinement level through MeshReady, SpaceBuilt, Solved and ErrorRecorded
func (o *Orchestrator) RunStep(step int) (rec ErrorRecord, err error) {
	var (
		ndiv  = o.RC.NDivisions(step)
		h     = o.RC.MeshSize(ndiv)
		start = time.Now()
		log   = o.Logger.With(zap.Int("step", step), zap.Int("ndiv", ndiv), zap.Float64("h", h))
	)
	fail := func(stage State, e error) error {
		log.Error("step failed", zap.Stringer("stage", stage), zap.Error(e))
		return &StageError{Step: step, Stage: stage, H: h, Err: e}
	}
	ps, err := NewProblemSpec(o.RC, ndiv)
	if err != nil {
		return rec, fail(MeshReady, err)
	}
	o.state = MeshReady
	log.Debug("mesh ready", zap.Int("elements", ps.Mesh.NumTris()), zap.Int("edges", len(ps.Mesh.Edges)))

	ds, err := o.Strategy.Build(ps)
	if err != nil {
		return rec, fail(SpaceBuilt, err)
	}
	o.state = SpaceBuilt
	filter := o.Strategy.AssembleMaterials(ds)
	log.Debug("space built",
		zap.Stringer("mode", o.Strategy.Mode()),
		zap.Int("equations", ds.NEquations),
		zap.Ints("materials", filter.Sorted()))

	sf, err := o.Solver.Solve(ds, filter)
	if err != nil {
		return rec, fail(Solved, err)
	}
	o.state = Solved
	if o.Exporter != nil {
		var files []string
		if files, err = o.Exporter.Export(sf); err != nil {
			return rec, fail(Solved, err)
		}
		log.Debug("exported", zap.Strings("files", files))
	}

	errs := ErrorNorms(sf)
	rec, numErr := o.Tracker.Record(step, ndiv, h, sf.NEquations, errs)
	var ne *NumericError
	if numErr != nil && !errors.As(numErr, &ne) {
		return rec, fail(ErrorRecorded, numErr)
	}
	if o.Sink != nil {
		if err = o.Sink.AppendRecord(rec); err != nil {
			return rec, fail(ErrorRecorded, err)
		}
	}
	if numErr != nil {
		return rec, fail(ErrorRecorded, numErr)
	}
	o.state = ErrorRecorded
	log.Info("step recorded",
		zap.Int("dof", rec.NEquations),
		zap.Float64s("errors", rec.Errors),
		zap.Float64s("orders", rec.Orders),
		zap.Duration("elapsed", time.Since(start)))
	return
}

/*
Sweep runs the whole refinement schedule and ends in Done. A failed step is marked in the error logs before its
error is returned.
*/
func (o *Orchestrator) Sweep() (records []ErrorRecord, err error) {
	if o.state == Done {
		err = errors.New("sweep already completed, use a new run configuration")
		return
	}
	for step := 0; step < o.RC.RefinementLevels; step++ {
		var rec ErrorRecord
		if rec, err = o.RunStep(step); err != nil {
			if lerr := o.Tracker.RecordFailure(step, err); lerr != nil {
				o.Logger.Error("failure not logged", zap.Int("step", step), zap.Error(lerr))
			}
			return
		}
		records = append(records, rec)
	}
	o.state = Done
	return
}
