// Package pipeline orchestrates one full analysis run:
// scrape → validate → save → historical stats → analyze → render → send.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-upwork-analyzer/internal/config"
	"go-upwork-analyzer/internal/report"
	"go-upwork-analyzer/internal/scraper"
	"go-upwork-analyzer/internal/store"
	"go-upwork-analyzer/internal/validate"
)

// Only these two conditions abort a run; every other failure degrades.
var (
	ErrNoJobs        = errors.New("no jobs found")
	ErrEmptyAnalysis = errors.New("analysis produced no text")
)

// Storage is the slice of the store the pipeline needs.
type Storage interface {
	Save(jobs []scraper.JobPosting, kind string) (string, error)
	HistoricalStats(days int) store.HistoricalStats
}

// Analyzer produces the report text; implementations must degrade to a local
// fallback rather than fail.
type Analyzer interface {
	Analyze(ctx context.Context, jobs []scraper.JobPosting, historical *store.HistoricalStats) string
}

// Renderer produces the PDF document.
type Renderer interface {
	Render(reportText string, jobCount int, meta report.RunMetadata) (string, error)
}

// Mailer delivers the report; a false return means delivery failed.
type Mailer interface {
	Send(pdfPath, reportText string, meta report.RunMetadata) bool
}

// Notifier is the optional post-run status channel.
type Notifier interface {
	SendRunSummary(query string, totalJobs int, reportPath string, emailed bool) error
}

// Runner holds the injected pipeline stages. Construct one per process;
// nothing here is package-level state.
type Runner struct {
	cfg      *config.Config
	scraper  scraper.Scraper
	storage  Storage
	analyzer Analyzer
	renderer Renderer
	mailer   Mailer
	notifier Notifier // may be nil
	logger   *slog.Logger
}

func NewRunner(cfg *config.Config, sc scraper.Scraper, st Storage, an Analyzer, rd Renderer, ml Mailer, nt Notifier, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		scraper:  sc,
		storage:  st,
		analyzer: an,
		renderer: rd,
		mailer:   ml,
		notifier: nt,
		logger:   logger,
	}
}

// Run executes the five pipeline steps. It returns an error only for the
// two hard aborts (no jobs, empty analysis) or a scrape that failed
// outright; storage, rendering and delivery failures are logged and the run
// proceeds in degraded mode.
func (r *Runner) Run(ctx context.Context) error {
	started := time.Now()
	divider := strings.Repeat("=", 60)
	r.logger.Info(divider)
	r.logger.Info(fmt.Sprintf("🚀 Starting Analysis - %s", started.Format("02 Jan 2006, 03:04 PM")))
	r.logger.Info(divider)

	// Step 1: scrape and validate
	r.logger.Info("📡 Step 1/5: Scraping Upwork...")
	rawJobs, err := r.scraper.Scrape(ctx, r.cfg.SearchQuery, r.cfg.PagesToScrape)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	jobs := validate.Filter(rawJobs)
	if len(jobs) == 0 {
		r.logger.Warn("⚠️ No jobs found. Stopping analysis.")
		return ErrNoJobs
	}
	r.logger.Info(fmt.Sprintf("✅ Found %d valid jobs", len(jobs)))

	// Step 2: save data
	r.logger.Info("💾 Step 2/5: Saving data...")
	if _, err := r.storage.Save(jobs, store.KindRaw); err != nil {
		r.logger.Warn("⚠️ Failed to save data, continuing anyway...", "error", err)
	}

	// Step 3: analyze, with historical context when available
	r.logger.Info("🧠 Step 3/5: Analyzing with Gemini AI...")
	var historical *store.HistoricalStats
	if stats := r.storage.HistoricalStats(7); stats.FilesAnalyzed > 0 {
		historical = &stats
	}
	analysis := r.analyzer.Analyze(ctx, jobs, historical)
	if strings.TrimSpace(analysis) == "" {
		r.logger.Error("❌ Analysis failed")
		return ErrEmptyAnalysis
	}
	r.logger.Info("📊 Analysis Preview: " + preview(analysis, 500))

	meta := report.RunMetadata{
		TotalJobs:   len(jobs),
		Pages:       r.cfg.PagesToScrape,
		SearchQuery: r.cfg.SearchQuery,
	}

	// Step 4: render PDF
	r.logger.Info("📄 Step 4/5: Generating PDF report...")
	pdfPath, err := r.renderer.Render(analysis, len(jobs), meta)
	if err != nil {
		r.logger.Warn("⚠️ PDF generation failed", "error", err)
		pdfPath = ""
	}

	// Step 5: send email
	r.logger.Info("📧 Step 5/5: Sending email report...")
	emailed := r.mailer.Send(pdfPath, analysis, meta)

	if r.notifier != nil {
		if err := r.notifier.SendRunSummary(r.cfg.SearchQuery, len(jobs), pdfPath, emailed); err != nil {
			r.logger.Warn("⚠️ Failed to send telegram summary", "error", err)
		}
	}

	r.logger.Info(divider)
	r.logger.Info("🎉 ANALYSIS COMPLETED",
		"jobs", len(jobs),
		"report", orNA(pdfPath),
		"email", sentOrFailed(emailed),
		"duration", time.Since(started).Round(time.Second).String(),
	)
	r.logger.Info(divider)
	return nil
}

func preview(s string, max int) string {
	flat := strings.ReplaceAll(s, "\n", " ")
	r := []rune(flat)
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return flat
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func sentOrFailed(ok bool) string {
	if ok {
		return "Sent"
	}
	return "Failed"
}
