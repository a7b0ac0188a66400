package commands

import (
	"log/slog"

	"cardwatch-backend/lib/serviceutil"
	"cardwatch-backend/lib/sqliteutil"
	"cardwatch-backend/services/watcher"
	"cardwatch-backend/services/watcher/db"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resetCmd)
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipes the ledger and scan cache; every product counts as never seen afterwards.",
	Run: func(cmd *cobra.Command, args []string) {
		database, err := sqliteutil.OpenDB(db.Schema, *databasePath)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()

		err = watcher.NewLedger(database).Reset(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to reset ledger", err)
		}
		err = watcher.NewScanCache(database, 0).Reset(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to reset scan cache", err)
		}
		slog.Info("ledger and scan cache reset")
	},
}
