/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every fatal run error wraps exactly one of these.
var (
	ErrConfig           = errors.New("config error")
	ErrEstimatorFailure = errors.New("estimator failure")
	ErrFusionFailure    = errors.New("fusion failure")
	ErrMaterialization  = errors.New("materialization error")
	ErrTraining         = errors.New("training failure")
)

// StageError records which stage of a run failed and on what.
type StageError struct {
	Kind  error
	Stage string
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Stage != "" {
		msg += " in " + e.Stage
	}
	if e.Name != "" {
		msg += fmt.Sprintf(" (%s)", e.Name)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStageError wraps err as a failure of kind in stage.
func NewStageError(kind error, stage, name string, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Name: name, Err: err}
}

// Configf builds a ConfigError with a formatted message.
func Configf(format string, args ...any) error {
	return &StageError{Kind: ErrConfig, Stage: "config", Err: fmt.Errorf(format, args...)}
}
