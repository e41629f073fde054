package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/carelog/intake-go/internal/metrics"
	"github.com/carelog/intake-go/internal/models"
)

var (
	chatUser   string
	chatThread string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or resume an intake conversation",
	Long: `Start an interactive intake conversation on the terminal.

Without --thread a new session is started and its id printed, so it can
be resumed later. Type "exit" or "quit" (or press Ctrl-D) to leave; the
session is saved after every message.

Examples:
  intake chat
  intake chat --user alice
  intake chat --thread 20260901153000-ab12cd34`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "default", "user the session belongs to")
	chatCmd.Flags().StringVarP(&chatThread, "thread", "t", "", "thread id to resume")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	o, err := getOrchestrator()
	if err != nil {
		return err
	}

	threadID := chatThread
	resuming := threadID != ""
	if threadID == "" {
		threadID = models.NewThreadID(time.Now())
	}
	fmt.Printf("Session: %s\n\n", threadID)

	// A fresh session opens with a greeting turn before the user types
	// anything.
	if !resuming {
		reply, err := o.HandleTurn(ctx, threadID, chatUser, "")
		if err != nil {
			return fmt.Errorf("greeting turn: %w", err)
		}
		fmt.Printf("Assistant: %s\n\n", reply)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		reply, err := o.HandleTurn(ctx, threadID, chatUser, line)
		if err != nil {
			return fmt.Errorf("turn failed: %w", err)
		}
		fmt.Printf("\nAssistant: %s\n\n", reply)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	fmt.Printf("\nSession saved. Resume with: intake chat --thread %s\n", threadID)

	if verbose {
		printMetrics()
	}

	return nil
}

func printMetrics() {
	snap := collector.Snapshot()
	fmt.Println("\nSession metrics:")
	lines := []struct {
		name string
		op   *metrics.OperationSnapshot
	}{
		{"turns", snap.Turn},
		{"llm extract", snap.Extract},
		{"llm generate", snap.Generate},
		{"store load", snap.StoreLoad},
		{"store save", snap.StoreSave},
		{"ocr", snap.OCR},
	}
	for _, l := range lines {
		if l.op == nil {
			continue
		}
		fmt.Printf("  %-12s %3d calls, %2d failures, avg %.0f ms\n",
			l.name, l.op.Count, l.op.Failures, l.op.AvgTimeMs)
	}
}
