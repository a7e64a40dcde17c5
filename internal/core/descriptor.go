package core

import (
	"os"
	"path/filepath"
	"strconv"
)

// DisplayName is the human readable name of the build step.
func DisplayName() string {
	return "Mozmill Test"
}

// IsApplicable reports whether the step can be added to a project of the
// given kind. Every project kind can run mozmill.
func IsApplicable(projectKind string) bool {
	return true
}

// ValidationKind is the severity of a form check.
type ValidationKind string

const (
	ValidationOK      ValidationKind = "ok"
	ValidationWarning ValidationKind = "warning"
	ValidationError   ValidationKind = "error"
)

// FormValidation is the result of checking one configuration field.
type FormValidation struct {
	Kind    ValidationKind `json:"kind"`
	Message string         `json:"message,omitempty"`
}

func ok() FormValidation { return FormValidation{Kind: ValidationOK} }

func warning(msg string) FormValidation {
	return FormValidation{Kind: ValidationWarning, Message: msg}
}

func fieldError(msg string) FormValidation {
	return FormValidation{Kind: ValidationError, Message: msg}
}

// CheckTests validates the tests field.
func CheckTests(value string) FormValidation {
	if value == "" {
		return fieldError("Please specify the tests to run")
	}
	return ok()
}

// CheckPort validates the port field. An empty port is allowed.
func CheckPort(value string) FormValidation {
	if value == "" {
		return ok()
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 65535 {
		return warning("Port should be a number between 1 and 65535")
	}
	return ok()
}

// CheckWrapper warns when a relative wrapper path does not exist in the
// workspace. Absolute paths and bare command names are not checked.
func CheckWrapper(value, workspace string) FormValidation {
	if value == "" || workspace == "" || filepath.IsAbs(value) || filepath.Base(value) == value {
		return ok()
	}
	if _, err := os.Stat(filepath.Join(workspace, value)); err != nil {
		return warning("Wrapper script not found in workspace")
	}
	return ok()
}

// Check dispatches to the validator for field.
func Check(field, value, workspace string) FormValidation {
	switch field {
	case "tests":
		return CheckTests(value)
	case "port":
		return CheckPort(value)
	case "wrapper":
		return CheckWrapper(value, workspace)
	case "logfile":
		return ok()
	default:
		return fieldError("Unknown field " + strconv.Quote(field))
	}
}
