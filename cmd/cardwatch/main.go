package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"cardwatch-backend/lib/configutil"
	"cardwatch-backend/lib/fetch"
	"cardwatch-backend/lib/serviceutil"
	"cardwatch-backend/lib/sqliteutil"
	"cardwatch-backend/lib/telemetry"
	"cardwatch-backend/services/watcher"
	"cardwatch-backend/services/watcher/db"
	"cardwatch-backend/services/watcher/notify"
)

type Config struct {
	Database string `json:"database"`
	// wipe the ledger and scan cache on startup
	Reset                  bool                   `json:"reset"`
	OnlyAvailable          bool                   `json:"only_available"`
	NotifyOutOfStock       bool                   `json:"notify_out_of_stock"`
	FreshForHours          int                    `json:"fresh_for_hours"`
	MaxParallel            int                    `json:"max_parallel"`
	FetchTimeoutSeconds    int                    `json:"fetch_timeout_seconds"`
	Watch                  []string               `json:"watch"`
	Exclude                []string               `json:"exclude"`
	Sites                  []watcher.Source       `json:"sites"`
	Schedule               []watcher.ScheduleRule `json:"schedule"`
	DefaultIntervalSeconds int                    `json:"default_interval_seconds"`
	Telegram               notify.TelegramConfig  `json:"telegram"`
	Email                  notify.EmailConfig     `json:"email"`
}

// applies defaults and rejects configurations the watcher cannot run
// with; a daemon scanning zero sites would just loop doing nothing
func prepareConfig(config Config) (Config, error) {
	if len(config.Sites) == 0 {
		return config, errors.New("no sites configured")
	}
	for _, site := range config.Sites {
		if site.Site == "" || site.Url == "" {
			return config, fmt.Errorf("site entry needs both a site name and a url, got %+v", site)
		}
	}
	if config.Database == "" {
		config.Database = "data/cardwatch.db"
	}
	if config.FreshForHours <= 0 {
		config.FreshForHours = 12
	}
	if config.FetchTimeoutSeconds <= 0 {
		config.FetchTimeoutSeconds = 20
	}
	if config.DefaultIntervalSeconds <= 0 {
		config.DefaultIntervalSeconds = 300
	}
	return config, nil
}

func main() {
	reset := flag.Bool("reset", false, "wipe the ledger and scan cache before scanning")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(*verbose)

	// runs fine without a telemetry.json5, spans just go nowhere
	err := telemetry.SetupFromEnv(ctx, "cardwatch")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer telemetry.Shutdown(ctx)
	telemetry.InstrumentPerfStats(ctx)

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to load configuration", err)
	}
	config, err = prepareConfig(config)
	if err != nil {
		serviceutil.Fatal("invalid configuration", err)
	}

	database, err := sqliteutil.OpenDB(db.Schema, config.Database)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	defer database.Close()

	ledger := watcher.NewLedger(database)
	cache := watcher.NewScanCache(database, time.Duration(config.FreshForHours)*time.Hour)
	if *reset || config.Reset {
		err = ledger.Reset(ctx)
		if err != nil {
			serviceutil.Fatal("failed to reset ledger", err)
		}
		err = cache.Reset(ctx)
		if err != nil {
			serviceutil.Fatal("failed to reset scan cache", err)
		}
	}

	fetcher, err := fetch.NewClient(time.Duration(config.FetchTimeoutSeconds) * time.Second)
	if err != nil {
		serviceutil.Fatal("failed to initialize fetch client", err)
	}

	var notifier notify.Multi
	if config.Telegram.BotToken != "" {
		notifier = append(notifier, notify.NewTelegram(config.Telegram))
	}
	if config.Email.Host != "" {
		notifier = append(notifier, notify.NewEmail(config.Email))
	}
	if len(notifier) == 0 {
		notifier = append(notifier, notify.Slog{})
	}

	schedule, err := watcher.NewSchedule(
		config.Schedule,
		time.Duration(config.DefaultIntervalSeconds)*time.Second,
	)
	if err != nil {
		serviceutil.Fatal("failed to parse schedule", err)
	}

	scanner := watcher.NewScanner(fetcher, notifier, ledger, cache, watcher.Options{
		Gate: watcher.GateOptions{
			OnlyAvailable:    config.OnlyAvailable,
			NotifyOutOfStock: config.NotifyOutOfStock,
		},
		Watch:       config.Watch,
		Exclude:     config.Exclude,
		MaxParallel: config.MaxParallel,
	})

	err = scanner.Run(ctx, config.Sites, schedule)
	if err != nil && ctx.Err() == nil {
		serviceutil.Fatal("scanner stopped", err)
	}
}
