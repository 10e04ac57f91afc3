package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/josephgoksu/causalfuse/internal/ui"
	"github.com/josephgoksu/causalfuse/types"
	"github.com/spf13/viper"
)

// HandleFatalError handles unrecoverable errors that should terminate the application.
func HandleFatalError(userMsg string, technicalErr error) {
	PrintError(userMsg, technicalErr)
	os.Exit(1)
}

// PrintError prints an error message without exiting, allowing for recovery.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		// In verbose mode, print the detailed, underlying technical error.
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
	} else if ui.IsErrInteractive() {
		fmt.Fprintln(os.Stderr, ui.RenderErrorPanel("Error", userMsg))
	} else {
		// By default, print the clean, user-friendly message.
		fmt.Fprintln(os.Stderr, userMsg)
	}
}

// LogError logs an error without printing to stderr if verbose mode is off.
func LogError(msg string, err error) {
	if viper.GetBool("verbose") {
		if err != nil {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s: %v\n", msg, err)
		} else {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s\n", msg)
		}
	}
}

// userMessage summarizes err by its failure kind and keeps the underlying
// cause. The full chain is only printed in verbose mode.
func userMessage(err error) string {
	var se *types.StageError
	name := ""
	if errors.As(err, &se) && se.Name != "" {
		name = fmt.Sprintf(" (%s)", se.Name)
	}
	cause := rootCause(err)
	switch {
	case errors.Is(err, types.ErrConfig):
		return fmt.Sprintf("Invalid configuration: %v", cause)
	case errors.Is(err, types.ErrEstimatorFailure):
		return fmt.Sprintf("Structure estimation failed%s: %v", name, cause)
	case errors.Is(err, types.ErrFusionFailure):
		return fmt.Sprintf("Fusion failed%s: %v", name, cause)
	case errors.Is(err, types.ErrMaterialization):
		return fmt.Sprintf("Could not build training data%s: %v", name, cause)
	case errors.Is(err, types.ErrTraining):
		return fmt.Sprintf("Training failed%s: %v", name, cause)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// rootCause returns the message of the error wrapped by a StageError, or
// err itself.
func rootCause(err error) error {
	var se *types.StageError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err
	}
	return err
}
