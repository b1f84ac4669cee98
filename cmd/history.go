package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/budgetchat/internal/cli"
	"github.com/theirongolddev/budgetchat/internal/config"
	"github.com/theirongolddev/budgetchat/internal/store"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently archived turns",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of turns to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	plainIfPiped()

	ctx := context.Background()

	archive, err := store.OpenHistory(ctx, config.ArchivePath())
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	turns, err := archive.RecentTurns(ctx, flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("listing turns: %w", err)
	}
	count, err := archive.TurnCount(ctx)
	if err != nil {
		return fmt.Errorf("counting turns: %w", err)
	}

	fmt.Println()
	fmt.Print(cli.RenderHistory(turns))
	if count > len(turns) {
		fmt.Printf("  Showing %d of %s turns\n", len(turns), cli.FormatNumber(int64(count)))
	}
	return nil
}
