package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var databasePath *string

var rootCmd = &cobra.Command{
	Use:   "cardwatch-cli",
	Short: "cardwatch-cli inspects and manages the restock watcher's ledger.",
}

func init() {
	databasePath = rootCmd.PersistentFlags().String("db", "data/cardwatch.db", "The watcher database to operate on.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
