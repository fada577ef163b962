package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go-upwork-analyzer/internal/scheduler"
)

// runMode executes a single menu action non-interactively.
func (a *app) runMode(ctx context.Context, mode string) error {
	switch strings.TrimSpace(mode) {
	case "1":
		return a.runOnce(ctx)
	case "2":
		return a.runScheduled(ctx)
	case "3":
		a.logger.Info("👋 Goodbye!")
		return nil
	default:
		return fmt.Errorf("invalid mode %q: expected 1, 2 or 3", mode)
	}
}

func (a *app) menu(ctx context.Context) error {
	in := bufio.NewScanner(os.Stdin)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Println()
		fmt.Println("=== Upwork Job Analyzer ===")
		fmt.Println("1. Run analysis now")
		fmt.Println("2. Start daily schedule")
		fmt.Println("3. Show configuration")
		fmt.Println("4. Test credentials")
		fmt.Println("5. Exit")
		fmt.Print("Choose an option: ")

		if !in.Scan() {
			return in.Err()
		}
		switch strings.TrimSpace(in.Text()) {
		case "1":
			if err := a.runOnce(ctx); err != nil {
				a.logger.Error("❌ Run failed", "error", err)
			}
		case "2":
			return a.runScheduled(ctx)
		case "3":
			a.showConfig()
		case "4":
			a.testCredentials(ctx)
		case "5":
			a.logger.Info("👋 Goodbye!")
			return nil
		default:
			fmt.Println("Invalid choice, please enter 1-5.")
		}
	}
}

func (a *app) runOnce(ctx context.Context) error {
	a.logger.Info("🚀 Starting one-off analysis run")
	err := a.runner.Run(ctx)
	if err != nil && a.tg != nil {
		if nerr := a.tg.SendError(err); nerr != nil {
			a.logger.Warn("⚠️ Failed to send telegram error", "error", nerr)
		}
	}
	return err
}

// runScheduled blocks until the context is cancelled (Ctrl+C).
func (a *app) runScheduled(ctx context.Context) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return fmt.Errorf("resolving timezone: %w", err)
	}
	sched, err := scheduler.New(a.runner, a.cfg.ScheduleTime, loc, a.logger)
	if err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	return sched.Start(ctx)
}

func (a *app) showConfig() {
	fmt.Println()
	fmt.Println("Current configuration:")
	fmt.Printf("  Search query:    %s\n", a.cfg.SearchQuery)
	fmt.Printf("  Pages to scrape: %d\n", a.cfg.PagesToScrape)
	fmt.Printf("  Max retries:     %d\n", a.cfg.MaxRetries)
	fmt.Printf("  Timeout:         %ds\n", a.cfg.TimeoutSeconds)
	fmt.Printf("  Gemini model:    %s\n", a.cfg.GeminiModel)
	fmt.Printf("  Gemini API key:  %s\n", mask(a.cfg.GeminiAPIKey))
	fmt.Printf("  Gmail user:      %s\n", a.cfg.GmailUser)
	fmt.Printf("  Gmail password:  %s\n", mask(a.cfg.GmailAppPassword))
	fmt.Printf("  Receiver email:  %s\n", a.cfg.ReceiverEmail)
	fmt.Printf("  SMTP:            %s:%d\n", a.cfg.SMTPHost, a.cfg.SMTPPort)
	fmt.Printf("  Schedule:        daily at %s (%s)\n", a.cfg.ScheduleTime, a.cfg.Timezone)
	fmt.Printf("  Data directory:  %s\n", a.cfg.DataDir)
}

// mask hides all but the last four characters of a secret.
func mask(s string) string {
	if s == "" {
		return "(not set)"
	}
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
