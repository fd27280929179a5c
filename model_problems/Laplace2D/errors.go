package Laplace2D

import (
	"fmt"
)

// ConfigurationError reports invalid or missing run parameters, always fatal
type ConfigurationError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("configuration: %s: %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("configuration: %s = %v: %s", e.Param, e.Value, e.Reason)
}

func configErr(param string, value any, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Param: param, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// SolverError reports an assembly or factorization failure, Equation is -1 when no equation is involved
type SolverError struct {
	Stage    string
	Equation int
	Err      error
}

func (e *SolverError) Error() string {
	if e.Equation >= 0 {
		return fmt.Sprintf("solver %s failed at equation %d: %v", e.Stage, e.Equation, e.Err)
	}
	return fmt.Sprintf("solver %s failed: %v", e.Stage, e.Err)
}

func (e *SolverError) Unwrap() error { return e.Err }

// NumericError reports a non positive error norm where a logarithm is needed
type NumericError struct {
	Norm  int
	Value float64
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("error norm %d has non positive value %g, convergence order undefined", e.Norm, e.Value)
}

// StageError locates a failure within a sweep
type StageError struct {
	Step  int
	Stage State
	H     float64
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("refinement step %d (h = %g) failed in stage %s: %v", e.Step, e.H, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
