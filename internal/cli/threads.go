package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var threadsUser string

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "List saved intake sessions",
	Long: `List the saved intake sessions of a user, most recently updated
first. The printed thread id can be passed to "intake chat --thread" to
resume that session.`,
	RunE: runThreads,
}

func init() {
	threadsCmd.Flags().StringVarP(&threadsUser, "user", "u", "default", "user whose sessions to list")
}

func runThreads(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	summaries, err := threads.ListActive(ctx, threadsUser)
	if err != nil {
		return fmt.Errorf("list threads: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Printf("No saved sessions for user %q.\n", threadsUser)
		return nil
	}

	fmt.Printf("Sessions for %s (%d):\n\n", threadsUser, len(summaries))
	for _, s := range summaries {
		fmt.Printf("- %s  %d messages, last active %s\n",
			s.ThreadID, s.MessageCount, s.LastUpdated.Local().Format("2006-01-02 15:04"))
	}

	return nil
}
