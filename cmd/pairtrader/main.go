package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"PairTrader/internal/broker"
	"PairTrader/internal/collector"
	"PairTrader/internal/config"
	"PairTrader/internal/exchange"
	"PairTrader/internal/fund"
	"PairTrader/internal/logx"
	"PairTrader/internal/metrics"
	"PairTrader/internal/notifier"
	"PairTrader/internal/position"
	"PairTrader/internal/recorder"
	"PairTrader/internal/scheduler"
	"PairTrader/internal/strategy"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "pairtrader",
		Short:        "RSI/EMA signal trader for a single exchange pair",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrader(cmd.Context(), cfgPath)
		},
	}
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "path to the YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the trading loop until interrupted",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTrader(cmd.Context(), cfgPath)
			},
		},
		positionCmd(&cfgPath),
		tradesCmd(&cfgPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "pairtrader", version)
			},
		},
	)
	return root
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// openStore builds the configured position store; the returned func
// releases it.
func openStore(cfg *config.Config) (position.Store, func(), error) {
	if cfg.Position.Backend == "redis" {
		rc := cfg.Position.Redis
		rs, err := position.NewRedisStore(position.RedisConfig{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
			Prefix:   rc.Prefix,
		}, cfg.Strategy.Symbol)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { rs.Close() }, nil
	}
	return position.NewFileStore(cfg.Position.File), func() {}, nil
}

func runTrader(parent context.Context, cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return err
	}
	logx.Setup(cfg.LogLevel, os.Stdout)
	s := cfg.Strategy
	log.Printf("[INFO] PairTrader %s starting: %s preset=%s entry=%s exit=%s", version, s.Symbol, s.Preset, s.EntryRule, s.ExitRule)

	// Exchange
	binance := exchange.NewBinance(cfg.Exchange.BaseURL, cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Proxy)
	var client exchange.Client = binance
	if cfg.Paper.Enabled {
		client = exchange.NewPaper(binance, s.BaseAsset, s.QuoteAsset, decimal.NewFromFloat(cfg.Paper.StartQuote))
		log.Printf("[INFO] paper mode: starting with %g %s", cfg.Paper.StartQuote, s.QuoteAsset)
	}
	log.Printf("[INFO] exchange: %s", client.Name())

	strat, err := strategy.New(s)
	if err != nil {
		log.Printf("[FATAL] build strategy: %v", err)
		return err
	}
	sizer := fund.NewSizer(s.QuoteAsset,
		decimal.NewFromFloat(cfg.Trading.SafetyMargin),
		decimal.NewFromFloat(cfg.Trading.MinQuoteBalance))

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Printf("[FATAL] open position store: %v", err)
		return err
	}
	defer closeStore()

	// Recorders
	recs := recorder.Multi{}
	var reports scheduler.ReportSource
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, continuing without it: %v", err)
		} else {
			recs = append(recs, sr)
			reports = sr
		}
	}
	if cfg.TradeLog.CSVPath != "" {
		tl, err := recorder.NewCSVTradeLog(cfg.TradeLog.CSVPath)
		if err != nil {
			log.Printf("[WARN] init csv trade log failed, continuing without it: %v", err)
		} else {
			recs = append(recs, tl)
		}
	}
	defer recs.Close()

	m := metrics.NewMetrics()
	m.EnablePush(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, s.Symbol)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := scheduler.Deps{
		Symbol:   s.Symbol,
		Exchange: client.Name(),
		Paper:    cfg.Paper.Enabled,
		Market:   collector.NewCollector(client, s),
		Strategy: strat,
		Broker:   broker.New(client, sizer, s, cfg.Paper.Enabled),
		Store:    store,
		Recorder: recs,
		Metrics:  m,
		Reports:  reports,
		Interval: cfg.Trading.PollInterval,
	}

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		deps.Notifier = tn
	}

	sched := scheduler.NewScheduler(deps)
	if err := sched.RegisterHousekeeping(ctx, cfg.Schedule.LotRefreshCron, cfg.Schedule.DailyReportCron, cfg.Schedule.MetricsPushCron); err != nil {
		log.Printf("[FATAL] register cron tasks: %v", err)
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	log.Println("[INFO] PairTrader is running. Press Ctrl+C to stop.")
	if err := sched.Run(ctx); err != nil {
		log.Printf("[FATAL] %v", err)
		return err
	}

	if err := m.Push(context.Background()); err != nil {
		log.Printf("[WARN] final %v", err)
	}
	log.Println("[INFO] PairTrader stopped")
	return nil
}
