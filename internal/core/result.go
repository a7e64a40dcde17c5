package core

// Outcome is the coarse health signal a step reports upward.
type Outcome string

const (
	Success  Outcome = "SUCCESS"
	Unstable Outcome = "UNSTABLE"
	Failure  Outcome = "FAILURE"
	Aborted  Outcome = "ABORTED"

	// ConfigErrorOutcome marks a step that never ran because its
	// configuration was rejected. It is not a build result.
	ConfigErrorOutcome Outcome = "CONFIG_ERROR"
)

// MapExitCode maps a process exit code to an outcome. Only 0 is a success;
// every other code, including signals, is UNSTABLE.
func MapExitCode(code int) Outcome {
	if code == 0 {
		return Success
	}
	return Unstable
}

// severity orders build results, worst last. Outcomes that are not build
// results return -1.
func (o Outcome) severity() int {
	switch o {
	case Success:
		return 0
	case Unstable:
		return 1
	case Failure:
		return 2
	case Aborted:
		return 3
	default:
		return -1
	}
}

// IsBuildResult reports whether o can be recorded as a build result.
func (o Outcome) IsBuildResult() bool {
	return o.severity() >= 0
}

// WorseThan reports whether o is a strictly worse build result than other.
func (o Outcome) WorseThan(other Outcome) bool {
	return o.severity() > other.severity()
}

// Combine returns the worse of two build results.
func Combine(a, b Outcome) Outcome {
	if b.WorseThan(a) {
		return b
	}
	return a
}
