package commands

import (
	"fmt"
	"time"

	"cardwatch-backend/lib/fetch"
	"cardwatch-backend/lib/restyutil"
	"cardwatch-backend/lib/serviceutil"
	"cardwatch-backend/lib/sqliteutil"
	"cardwatch-backend/services/watcher"
	"cardwatch-backend/services/watcher/classify"
	"cardwatch-backend/services/watcher/db"
	"cardwatch-backend/services/watcher/notify"

	"github.com/spf13/cobra"
)

var scanSite *string
var scanCatalog *bool
var scanLanguage *string

func init() {
	scanSite = scanCmd.Flags().String("site", "", "The site classifier to use (defaults to generic).")
	scanCatalog = scanCmd.Flags().Bool("catalog", false, "Treat the URL as a shopify /products.json catalog.")
	scanLanguage = scanCmd.Flags().String("language", "", "Default language for products on this site.")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan [--site <site>] [--catalog] <url>",
	Short: "Runs a single scan pass over one URL and prints the resulting events.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		database, err := sqliteutil.OpenDB(db.Schema, *databasePath)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()

		fetcher, err := fetch.NewClient(time.Second * 20)
		if err != nil {
			serviceutil.Fatal("failed to initialize fetch client", err)
		}

		scanner := watcher.NewScanner(
			fetcher,
			notify.Slog{},
			watcher.NewLedger(database),
			watcher.NewScanCache(database, 0),
			watcher.Options{
				Gate: watcher.GateOptions{NotifyOutOfStock: true},
			},
		)

		err = scanner.ScanCycle(cmd.Context(), []watcher.Source{{
			Site:     *scanSite,
			Url:      args[0],
			Language: *scanLanguage,
			Catalog:  *scanCatalog,
		}})
		if err != nil {
			serviceutil.Fatal("failed to scan", err)
		}
	},
}

var classifySite *string
var classifyDebug *string

var classifyCmd = &cobra.Command{
	Use:   "classify [--site <site>] <url>",
	Short: "Fetches and classifies one product page without touching the ledger.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fetcher, err := fetch.NewClient(time.Second * 20)
		if err != nil {
			serviceutil.Fatal("failed to initialize fetch client", err)
		}
		if *classifyDebug != "" {
			fetcher.SetDebugOutput(restyutil.NewFilesystemOutput(*classifyDebug))
		}
		res, err := fetcher.Fetch(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to fetch page", err)
		}
		doc, err := classify.ParsePage(res.Body)
		if err != nil {
			serviceutil.Fatal("failed to parse page", err)
		}

		result := classify.ForSite(*classifySite).Classify(doc)
		fmt.Printf("state: %s\nprice: %s\n", result.State, result.Price)
	},
}

func init() {
	classifySite = classifyCmd.Flags().String("site", "", "The site classifier to use (defaults to generic).")
	classifyDebug = classifyCmd.Flags().String("debug", "", "Dump raw request/response pairs to this directory.")
	rootCmd.AddCommand(classifyCmd)
}
