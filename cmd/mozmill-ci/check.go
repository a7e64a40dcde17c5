package main

import (
	"fmt"
	"strings"

	"mozmill-ci/internal/core"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Field     string `arg:"" enum:"tests,wrapper,logfile,port" help:"Field to validate (tests, wrapper, logfile, port)"`
	Value     string `arg:"" optional:"" help:"Field value"`
	Workspace string `short:"w" help:"Workspace used to resolve wrapper paths" type:"path"`
}

func (c *CheckCmd) Run() error {
	v := core.Check(c.Field, c.Value, c.Workspace)
	if v.Message == "" {
		fmt.Println(strings.ToUpper(string(v.Kind)))
	} else {
		fmt.Printf("%s: %s\n", strings.ToUpper(string(v.Kind)), v.Message)
	}
	if v.Kind == core.ValidationError {
		return &exitError{code: exitConfigError}
	}
	return nil
}
