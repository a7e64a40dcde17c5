package main

import (
	"fmt"
)

// HistoryCmd groups the history subcommands.
type HistoryCmd struct {
	Inspect HistoryInspectCmd `cmd:"" help:"List recorded step runs"`
	Verify  HistoryVerifyCmd  `cmd:"" help:"Verify the ledger hash chain"`
}

type HistoryInspectCmd struct {
	Build string `help:"Only show records of this build ID"`
}

func (h *HistoryInspectCmd) Run(root *CLI) error {
	ledger, err := root.openLedger()
	if err != nil {
		return err
	}
	records := ledger.Records()
	if h.Build != "" {
		records = ledger.ForBuild(h.Build)
	}
	for _, r := range records {
		hash := r.Hash
		if len(hash) > 16 {
			hash = hash[:16]
		}
		fmt.Printf("Index=%d Job=%s Build=%s Step=%d Outcome=%s Exit=%d Hash=%s\n",
			r.Index, r.Job, r.BuildID, r.Step, r.Outcome, r.ExitCode, hash)
	}
	return nil
}

type HistoryVerifyCmd struct{}

func (h *HistoryVerifyCmd) Run(root *CLI) error {
	ledger, err := root.openLedger()
	if err != nil {
		return err
	}
	if err := ledger.Verify(); err != nil {
		return &exitError{code: exitFailure, msg: fmt.Sprintf("Verification FAILED: %v", err)}
	}
	fmt.Printf("Ledger verification OK (%d records)\n", len(ledger.Records()))
	return nil
}
