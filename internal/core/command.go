package core

import "strings"

// DefaultExecutable is launched when no wrapper script is configured.
const DefaultExecutable = "mozmill"

// BuildCommand renders cfg as a single command line. Arguments are joined with
// single spaces and are never quoted, so values containing whitespace will be
// split apart again by Tokenize.
func BuildCommand(cfg StepConfig) string {
	var b strings.Builder

	// Use the wrapper script instead of mozmill if set
	if cfg.Wrapper != "" {
		b.WriteString(cfg.Wrapper)
	} else {
		b.WriteString(DefaultExecutable)
	}

	if cfg.Logfile != "" {
		b.WriteString(" --logfile ")
		b.WriteString(cfg.Logfile)
	}
	if cfg.Port != "" {
		b.WriteString(" --port=")
		b.WriteString(cfg.Port)
	}

	b.WriteString(" -t ")
	b.WriteString(cfg.Tests)

	if cfg.ShowAll {
		b.WriteString(" --showall")
	}
	if cfg.ShowErrors {
		b.WriteString(" --show-errors")
	}
	return b.String()
}

// Tokenize splits a command line on runs of whitespace.
func Tokenize(cmd string) []string {
	return strings.Fields(cmd)
}

// BuildArgs returns the argument vector that is actually launched for cfg.
func BuildArgs(cfg StepConfig) []string {
	return Tokenize(BuildCommand(cfg))
}
