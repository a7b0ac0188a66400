package commands

import (
	"fmt"
	"time"

	"cardwatch-backend/lib/serviceutil"
	"cardwatch-backend/lib/sqliteutil"
	"cardwatch-backend/services/watcher"
	"cardwatch-backend/services/watcher/classify"
	"cardwatch-backend/services/watcher/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listState *string

func init() {
	listState = listCmd.Flags().String("state", "", "Only show entries in this state (available, out_of_stock, unknown).")
	rootCmd.AddCommand(listCmd)
}

func stateFromString(name string) (classify.State, bool) {
	switch name {
	case "available":
		return classify.StateAvailable, true
	case "out_of_stock":
		return classify.StateOutOfStock, true
	case "unknown":
		return classify.StateUnknown, true
	}
	return classify.StateUnknown, false
}

var listCmd = &cobra.Command{
	Use:   "list [--state <state>]",
	Short: "Lists all tracked products and their last known state.",
	Run: func(cmd *cobra.Command, args []string) {
		database, err := sqliteutil.OpenDB(db.Schema, *databasePath)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()
		ledger := watcher.NewLedger(database)

		var entries []watcher.LedgerEntry
		if *listState != "" {
			state, ok := stateFromString(*listState)
			if !ok {
				serviceutil.Fatal("failed to parse state filter", fmt.Errorf("unknown state %q", *listState))
			}
			entries, err = ledger.ListByState(cmd.Context(), state)
		} else {
			entries, err = ledger.List(cmd.Context())
		}
		if err != nil {
			serviceutil.Fatal("failed to list ledger", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Key", "Site", "State", "Notified", "Last checked", "Title"})
		for _, entry := range entries {
			notified := "-"
			if entry.LastNotifiedState != nil {
				notified = entry.LastNotifiedState.String()
			}
			t.AppendRow(table.Row{
				entry.Key,
				entry.Site,
				entry.LastState.String(),
				notified,
				entry.LastCheckedAt.Format(time.ANSIC),
				entry.Title,
			})
		}
		t.Render()
	},
}
