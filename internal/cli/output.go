package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/lobster/internal/presentation/tui"
	"github.com/aretw0/lobster/pkg/domain"
)

// writeHuman prints items one per line (strings verbatim, everything else as
// indented JSON) followed by a status line on Err.
func writeHuman(stdio IO, res *domain.Result, runErr error) error {
	status := tui.NewStatus(stdio.Err)

	if runErr != nil {
		if isInterrupted(runErr) {
			status.Info("Interrupted.")
			return nil
		}
		status.Fail("%v", runErr)
		return &ReportedError{Err: runErr}
	}

	if err := printItems(stdio.Out, res.Items); err != nil {
		return err
	}

	switch domain.NewEnvelope(res).Status {
	case domain.StatusNeedsApproval:
		status.Waiting("awaiting approval")
	case domain.StatusHalted:
		status.Waiting("halted with %d item(s)", len(res.Items))
	default:
		status.OK("%d item(s)", len(res.Items))
	}
	return nil
}

func printItems(w io.Writer, items []domain.Item) error {
	for _, item := range items {
		if s, ok := item.(string); ok {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
			continue
		}
		data, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode item: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
	}
	return nil
}
