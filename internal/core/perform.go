package core

import (
	"context"
	"errors"
)

// Perform runs the step inside build.
//
// A missing tests value is logged to the build log and the step completes
// without launching anything; the returned bool is still true so the build
// carries on. A process that cannot be started or is interrupted returns
// false and the error, and marks the build FAILURE or ABORTED. A non-zero
// exit marks the build UNSTABLE.
func (s *Step) Perform(ctx context.Context, build *Build) (bool, error) {
	if err := s.Config.Validate(); err != nil {
		var se *StepError
		errors.As(err, &se)
		build.Errorf("%s", se.Message)
		s.complete(StepReport{Outcome: ConfigErrorOutcome, ExitCode: -1, Error: err.Error()})
		return true, nil
	}
	if s.Launcher == nil {
		s.Launcher = NewExecutor()
	}

	cmd := BuildCommand(s.Config)
	s.state = StateRunning
	build.Printf("$ %s", cmd)

	code, err := s.Launcher.Launch(ctx, Tokenize(cmd), build.Environment(), build.Workspace, build.Log)
	if err != nil {
		outcome := Failure
		if IsInterrupted(err) {
			outcome = Aborted
		}
		build.Errorf("%v", err)
		build.SetResult(outcome)
		s.complete(StepReport{Command: cmd, ExitCode: code, Outcome: outcome, Error: err.Error()})
		return false, err
	}

	outcome := MapExitCode(code)
	if outcome != Success {
		build.SetResult(outcome)
	}
	s.complete(StepReport{Command: cmd, ExitCode: code, Outcome: outcome})
	return true, nil
}

func (s *Step) complete(rep StepReport) {
	s.rep = rep
	s.state = StateCompleted
}
