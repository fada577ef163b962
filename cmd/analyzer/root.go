package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"go-upwork-analyzer/internal/analyzer"
	"go-upwork-analyzer/internal/config"
	"go-upwork-analyzer/internal/pipeline"
	"go-upwork-analyzer/internal/report"
	"go-upwork-analyzer/internal/scraper/upwork"
	"go-upwork-analyzer/internal/store"
	"go-upwork-analyzer/internal/telegram"
)

const reportTemplate = "templates/report.html"

var rootCmd = &cobra.Command{
	Use:   "analyzer [mode]",
	Short: "Upwork job market analyzer bot",
	Long: `Scrapes Upwork job postings, analyzes the market with Gemini and
emails a daily PDF report. Run without arguments for the interactive
menu, or pass a numeric mode (1 = run once, 2 = run daily schedule,
3 = exit) for non-interactive use.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return fmt.Errorf("configuration invalid")
	}
	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("creating data directories: %w", err)
	}

	logger, closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if len(args) == 1 {
		return app.runMode(ctx, args[0])
	}
	return app.menu(ctx)
}

// app wires the pipeline dependencies together once at startup so the
// menu can reuse them across runs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	runner   *pipeline.Runner
	provider *analyzer.GeminiProvider
	mailer   *report.Mailer
	tg       *telegram.Notifier // nil unless configured
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	provider, err := analyzer.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	scr := upwork.NewUpworkScraper(cfg, logger)
	st := store.New(cfg.DataDir, logger)
	an := analyzer.New(provider, logger)
	renderer := report.NewRenderer(reportTemplate, cfg.ReportsDir(), logger)
	mailer := report.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.GmailUser, cfg.GmailAppPassword, cfg.ReceiverEmail, logger)

	var tg *telegram.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tn, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			logger.Warn("⚠️ Telegram notifier disabled", "error", err)
		} else {
			tg = tn
		}
	}

	var notifier pipeline.Notifier
	if tg != nil {
		notifier = tg
	}

	runner := pipeline.NewRunner(cfg, scr, st, an, renderer, mailer, notifier, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		runner:   runner,
		provider: provider,
		mailer:   mailer,
		tg:       tg,
	}, nil
}

func (a *app) Close() {
	if a.provider != nil {
		a.provider.Close()
	}
}

func setupLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, f), &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})
	return slog.New(handler), func() { f.Close() }, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
