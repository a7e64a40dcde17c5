package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyJob      = "job"
	KeyBuildID  = "build_id"
	KeyStep     = "step"
	KeyCommand  = "command"
	KeyExitCode = "exit_code"
	KeyOutcome  = "outcome"
	KeyDuration = "duration_ms"
	KeyPath     = "path"
	KeyError    = "error"
)

func Job(name string) slog.Attr     { return slog.String(KeyJob, name) }
func BuildID(id string) slog.Attr   { return slog.String(KeyBuildID, id) }
func Step(i int) slog.Attr          { return slog.Int(KeyStep, i) }
func Command(cmd string) slog.Attr  { return slog.String(KeyCommand, cmd) }
func ExitCode(code int) slog.Attr   { return slog.Int(KeyExitCode, code) }
func Outcome(o string) slog.Attr    { return slog.String(KeyOutcome, o) }
func DurationMS(ms int64) slog.Attr { return slog.Int64(KeyDuration, ms) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
