package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <thread-id>",
	Short: "Print the symptom and medication summary of a session",
	Long: `Print the deterministic summary of a saved session: every recorded
symptom with its collected details, followed by any processed medication
labels. Reads only the stored thread; no language model is involved.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	thread, err := threads.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load thread: %w", err)
	}

	fmt.Println(thread.Ledger.SessionSummary())
	fmt.Println()
	fmt.Println(thread.MedicationSummary())

	return nil
}
