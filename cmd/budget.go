package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/budgetchat/internal/cli"
	"github.com/theirongolddev/budgetchat/internal/config"
	"github.com/theirongolddev/budgetchat/internal/disclosure"

	"github.com/spf13/cobra"
)

var (
	flagBudgetAll  bool
	flagBudgetYAML bool
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Print the starting budget",
	Long:  "Print the budget a new conversation starts from. With --yaml the output can be edited and passed back with --seed.",
	RunE:  runBudget,
}

func init() {
	budgetCmd.Flags().BoolVarP(&flagBudgetAll, "all", "a", false, "Show the items of every section")
	budgetCmd.Flags().BoolVar(&flagBudgetYAML, "yaml", false, "Print as a seed file")
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(_ *cobra.Command, _ []string) error {
	plainIfPiped()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, err := config.LoadSeed(cfg.General.Seed)
	if err != nil {
		return err
	}

	if flagBudgetYAML {
		data, err := config.EncodeSeed(doc)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("Starting budget"))
	fmt.Println()
	fmt.Print(cli.RenderBudget(doc, disclosure.Seed(doc), flagBudgetAll))
	return nil
}
