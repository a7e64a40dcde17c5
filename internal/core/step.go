package core

// StepConfig is the user configuration of one mozmill build step.
// It is read-only once the step has been created.
type StepConfig struct {
	Tests      string `yaml:"tests" json:"tests"`           // Test path passed verbatim after -t
	Wrapper    string `yaml:"wrapper" json:"wrapper"`       // Alternate launcher script, replaces "mozmill"
	Logfile    string `yaml:"logfile" json:"logfile"`       // Optional --logfile value
	Port       string `yaml:"port" json:"port"`             // Optional --port value
	ShowAll    bool   `yaml:"showall" json:"showall"`       // Adds --showall
	ShowErrors bool   `yaml:"showerrors" json:"showerrors"` // Adds --show-errors
}

// Validate reports a configuration error when no tests are specified.
func (c StepConfig) Validate() error {
	if c.Tests == "" {
		return ConfigError("tests", "Mozmill cannot run without any tests specified.")
	}
	return nil
}

// StepState is the lifecycle position of a step within one build.
type StepState string

const (
	StateNotRun    StepState = "not_run"
	StateRunning   StepState = "running"
	StateCompleted StepState = "completed"
)

// Step binds a StepConfig to the launcher that executes it.
type Step struct {
	Config   StepConfig
	Launcher Launcher

	state StepState
	rep   StepReport
}

// NewStep creates a step in the NotRun state.
func NewStep(cfg StepConfig, l Launcher) *Step {
	return &Step{Config: cfg, Launcher: l, state: StateNotRun}
}

// State returns the current lifecycle state.
func (s *Step) State() StepState {
	if s.state == "" {
		return StateNotRun
	}
	return s.state
}

// Report returns what happened during Perform. It is only meaningful once
// State is StateCompleted.
func (s *Step) Report() StepReport {
	return s.rep
}

// StepReport summarises a completed step.
type StepReport struct {
	Command  string  `json:"command,omitempty"`
	ExitCode int     `json:"exitCode"`
	Outcome  Outcome `json:"outcome"`
	Error    string  `json:"error,omitempty"`
}
