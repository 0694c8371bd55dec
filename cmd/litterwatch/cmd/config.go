package cmd

import (
	"context"
	"os"
	"time"

	"litterwatch/lib/configutil"
	"litterwatch/lib/extract"
	"litterwatch/lib/fetch"
	"litterwatch/lib/restyutil"
	"litterwatch/lib/scanlog"
	"litterwatch/lib/serviceutil"
	"litterwatch/lib/store"
	"litterwatch/lib/telemetry"
	"litterwatch/services/monitor"
	"litterwatch/services/notify"
	"litterwatch/services/sources"
)

type Config struct {
	// UrlsFile is the plain text list of monitored page urls.
	UrlsFile string `json:"urls_file"`
	// StoreFile holds the litters seen in previous cycles.
	StoreFile  string `json:"store_file"`
	StatusFile string `json:"status_file"`
	// SnapshotDir receives page screenshots taken by the browser
	// strategy.
	SnapshotDir string `json:"snapshot_dir"`
	// IntervalSeconds is the pause between scan cycle completions.
	IntervalSeconds int `json:"interval_seconds"`
	// PoliteDelaySeconds is slept before each page fetch.
	PoliteDelaySeconds int `json:"polite_delay_seconds"`
	// Port serves the control api.
	Port int `json:"port"`
	// AccessToken guards the control api, generate one with
	// `litterwatch token`. Empty leaves the api open.
	AccessToken string `json:"access_token"`
	// History enables the sqlite scan history when a file or url is
	// set.
	History  scanlog.Config         `json:"history"`
	Smtp     *notify.SmtpConfig     `json:"smtp"`
	Telegram *notify.TelegramConfig `json:"telegram"`
}

func (c Config) withDefaults() Config {
	if c.UrlsFile == "" {
		c.UrlsFile = "urls.txt"
	}
	if c.StoreFile == "" {
		c.StoreFile = "known_litters.json"
	}
	if c.StatusFile == "" {
		c.StatusFile = "run_status.json"
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = "snapshots"
	}
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 3600
	}
	if c.PoliteDelaySeconds <= 0 {
		c.PoliteDelaySeconds = 2
	}
	if c.Port <= 0 {
		c.Port = 8000
	}
	return c
}

// loadConfig reads the configuration file. A missing file is fine, the
// defaults describe a self-contained setup in the working directory.
func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config](configPath)
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("read config", err)
	}
	return cfg.withDefaults()
}

func setupTelemetry(ctx context.Context) {
	err := telemetry.SetupFromEnv(ctx, "litterwatch")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if verbose {
		fetch.SetRestyInstrumentOutput(
			restyutil.NewFilesystemOutput(".dev/resty/fetch"),
		)
	}
}

func newChain(cfg Config) *fetch.Chain {
	direct, err := fetch.NewDirectStrategy(fetch.ClientOptions{})
	if err != nil {
		serviceutil.Fatal("init direct strategy", err)
	}
	http2, err := fetch.NewHttp2Strategy(fetch.ClientOptions{})
	if err != nil {
		serviceutil.Fatal("init http2 strategy", err)
	}
	primed, err := fetch.NewPrimedStrategy(fetch.ClientOptions{})
	if err != nil {
		serviceutil.Fatal("init primed strategy", err)
	}
	browser := fetch.NewBrowserStrategy(time.Second * 5)

	return fetch.NewChain(fetch.ChainOptions{
		PoliteDelay: time.Duration(cfg.PoliteDelaySeconds) * time.Second,
	}, direct, http2, primed, browser)
}

func newNotifier(cfg Config) notify.Notifier {
	notifiers := notify.Multi{notify.Log{}}
	if cfg.Smtp != nil {
		notifiers = append(notifiers, notify.NewSmtp(*cfg.Smtp))
	}
	if cfg.Telegram != nil {
		notifiers = append(notifiers, notify.NewTelegram(*cfg.Telegram))
	}
	return notifiers
}

func openHistory(cfg Config) *scanlog.Store {
	if cfg.History.File == "" && cfg.History.Url == "" {
		return nil
	}
	history, err := scanlog.Open(cfg.History)
	if err != nil {
		serviceutil.Fatal("open scan history", err)
	}
	return &history
}

func newMonitor(cfg Config, prune bool) (*monitor.Service, *scanlog.Store) {
	history := openHistory(cfg)
	svc := monitor.NewService(monitor.Options{
		Sources:     sources.NewList(cfg.UrlsFile),
		Fetcher:     newChain(cfg),
		Extractors:  extract.NewRegistry(),
		Store:       store.New(cfg.StoreFile),
		Notifier:    newNotifier(cfg),
		History:     history,
		StatusFile:  cfg.StatusFile,
		SnapshotDir: cfg.SnapshotDir,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Prune:       prune,
	})
	return svc, history
}
