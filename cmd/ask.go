package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/theirongolddev/budgetchat/internal/cli"

	"github.com/spf13/cobra"
)

var flagAskAll bool

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message, print the reply and the resulting budget",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&flagAskAll, "all", "a", false, "Show the items of every section")
	rootCmd.AddCommand(askCmd)
}

func runAsk(_ *cobra.Command, args []string) error {
	plainIfPiped()

	s, err := startSession(context.Background(), stderrLogger(slog.LevelWarn))
	if err != nil {
		return err
	}
	defer s.Close()

	prompt, err := s.conv.Submit(strings.Join(args, " "))
	if err != nil {
		return err
	}
	s.conv.Wait()

	st := s.conv.State()
	fmt.Println()
	for _, m := range st.Messages {
		if m.ID < prompt.ID {
			continue
		}
		fmt.Print(cli.RenderMessage(m))
		fmt.Println()
	}
	fmt.Print(cli.RenderBudget(st.Document, st.Disclosure, flagAskAll))
	return nil
}
