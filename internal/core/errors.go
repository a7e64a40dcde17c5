package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies step failures.
type ErrorKind string

const (
	KindConfig      ErrorKind = "config"      // Step configuration rejected, nothing was run
	KindExecution   ErrorKind = "execution"   // Process could not be started
	KindInterrupted ErrorKind = "interrupted" // Build cancelled while the process was running
)

// StepError is a classified error raised while performing a step.
type StepError struct {
	Kind    ErrorKind
	Field   string
	Message string
	Cause   error
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// ConfigError reports an invalid configuration field.
func ConfigError(field, message string) *StepError {
	return &StepError{Kind: KindConfig, Field: field, Message: message}
}

// ExecutionError wraps a failure to start the external process.
func ExecutionError(message string, cause error) *StepError {
	return &StepError{Kind: KindExecution, Message: message, Cause: cause}
}

// InterruptedError wraps the cancellation cause of a running process.
func InterruptedError(cause error) *StepError {
	return &StepError{Kind: KindInterrupted, Message: "process interrupted", Cause: cause}
}

// KindOf returns the classification of err, or "" if err is not a StepError.
func KindOf(err error) ErrorKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func IsConfigError(err error) bool { return KindOf(err) == KindConfig }
func IsInterrupted(err error) bool { return KindOf(err) == KindInterrupted }
func IsExecutionError(err error) bool {
	k := KindOf(err)
	return k == KindExecution || k == KindInterrupted
}
