package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-upwork-analyzer/internal/config"
	"go-upwork-analyzer/internal/report"
	"go-upwork-analyzer/internal/scraper"
	"go-upwork-analyzer/internal/store"
)

type fakeScraper struct {
	jobs []scraper.JobPosting
	err  error
}

func (f *fakeScraper) Scrape(context.Context, string, int) ([]scraper.JobPosting, error) {
	return f.jobs, f.err
}

func (f *fakeScraper) Name() string { return "fake" }

type fakeStorage struct {
	saveErr   error
	saved     []scraper.JobPosting
	stats     store.HistoricalStats
	saveCalls int
}

func (f *fakeStorage) Save(jobs []scraper.JobPosting, kind string) (string, error) {
	f.saveCalls++
	f.saved = jobs
	return "data/raw/jobs_test.json", f.saveErr
}

func (f *fakeStorage) HistoricalStats(days int) store.HistoricalStats { return f.stats }

type fakeAnalyzer struct {
	result     string
	calls      int
	historical *store.HistoricalStats
}

func (f *fakeAnalyzer) Analyze(_ context.Context, jobs []scraper.JobPosting, historical *store.HistoricalStats) string {
	f.calls++
	f.historical = historical
	return f.result
}

type fakeRenderer struct {
	path string
	err  error
	meta report.RunMetadata
}

func (f *fakeRenderer) Render(_ string, _ int, meta report.RunMetadata) (string, error) {
	f.meta = meta
	return f.path, f.err
}

type fakeMailer struct {
	ok      bool
	calls   int
	pdfPath string
	meta    report.RunMetadata
}

func (f *fakeMailer) Send(pdfPath, _ string, meta report.RunMetadata) bool {
	f.calls++
	f.pdfPath = pdfPath
	f.meta = meta
	return f.ok
}

type fakeNotifier struct {
	calls   int
	jobs    int
	emailed bool
}

func (f *fakeNotifier) SendRunSummary(_ string, totalJobs int, _ string, emailed bool) error {
	f.calls++
	f.jobs = totalJobs
	f.emailed = emailed
	return nil
}

type fixture struct {
	runner   *Runner
	scraper  *fakeScraper
	storage  *fakeStorage
	analyzer *fakeAnalyzer
	renderer *fakeRenderer
	mailer   *fakeMailer
	notifier *fakeNotifier
}

func validJob(title string) scraper.JobPosting {
	return scraper.JobPosting{Title: title, ScrapedAt: "2026-09-01 08:00:00"}
}

func newFixture(jobs []scraper.JobPosting) *fixture {
	f := &fixture{
		scraper:  &fakeScraper{jobs: jobs},
		storage:  &fakeStorage{},
		analyzer: &fakeAnalyzer{result: "analysis report"},
		renderer: &fakeRenderer{path: "data/reports/report.pdf"},
		mailer:   &fakeMailer{ok: true},
		notifier: &fakeNotifier{},
	}
	cfg := &config.Config{SearchQuery: "AI and ML engineer", PagesToScrape: 3}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.runner = NewRunner(cfg, f.scraper, f.storage, f.analyzer, f.renderer, f.mailer, f.notifier, logger)
	return f
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture([]scraper.JobPosting{validJob("ML Engineer"), validJob("Data Scientist")})

	err := f.runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.storage.saveCalls)
	assert.Len(t, f.storage.saved, 2)
	assert.Equal(t, 1, f.analyzer.calls)
	assert.Equal(t, "data/reports/report.pdf", f.mailer.pdfPath)
	assert.Equal(t, 1, f.notifier.calls)
	assert.True(t, f.notifier.emailed)

	want := report.RunMetadata{TotalJobs: 2, Pages: 3, SearchQuery: "AI and ML engineer"}
	assert.Equal(t, want, f.renderer.meta)
	assert.Equal(t, want, f.mailer.meta)
}

func TestRunScrapeErrorAborts(t *testing.T) {
	f := newFixture(nil)
	f.scraper.err = errors.New("browser crashed")

	err := f.runner.Run(context.Background())

	assert.Error(t, err)
	assert.Zero(t, f.storage.saveCalls)
	assert.Zero(t, f.analyzer.calls)
}

func TestRunNoJobsAborts(t *testing.T) {
	f := newFixture(nil)

	err := f.runner.Run(context.Background())

	assert.ErrorIs(t, err, ErrNoJobs)
	assert.Zero(t, f.analyzer.calls, "analyzer must not run without jobs")
	assert.Zero(t, f.mailer.calls)
}

func TestRunInvalidJobsFilteredOut(t *testing.T) {
	f := newFixture([]scraper.JobPosting{
		{Title: scraper.TitleNA, ScrapedAt: "2026-09-01 08:00:00"},
		{Title: "No timestamp"},
	})

	err := f.runner.Run(context.Background())

	assert.ErrorIs(t, err, ErrNoJobs)
}

func TestRunSaveFailureContinues(t *testing.T) {
	f := newFixture([]scraper.JobPosting{validJob("ML Engineer")})
	f.storage.saveErr = errors.New("disk full")

	err := f.runner.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, f.analyzer.calls)
	assert.Equal(t, 1, f.mailer.calls)
}

func TestRunRenderFailureStillEmails(t *testing.T) {
	f := newFixture([]scraper.JobPosting{validJob("ML Engineer")})
	f.renderer.err = errors.New("chromium missing")
	f.renderer.path = ""

	err := f.runner.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, f.mailer.calls)
	assert.Empty(t, f.mailer.pdfPath, "mail goes out without an attachment")
}

func TestRunEmptyAnalysisAborts(t *testing.T) {
	f := newFixture([]scraper.JobPosting{validJob("ML Engineer")})
	f.analyzer.result = "  \n"

	err := f.runner.Run(context.Background())

	assert.ErrorIs(t, err, ErrEmptyAnalysis)
	assert.Zero(t, f.mailer.calls)
}

func TestRunHistoricalContextOnlyWithPriorFiles(t *testing.T) {
	f := newFixture([]scraper.JobPosting{validJob("ML Engineer")})

	require.NoError(t, f.runner.Run(context.Background()))
	assert.Nil(t, f.analyzer.historical, "first run has no history")

	f.storage.stats = store.HistoricalStats{TotalJobs: 10, FilesAnalyzed: 2}
	require.NoError(t, f.runner.Run(context.Background()))
	require.NotNil(t, f.analyzer.historical)
	assert.Equal(t, 10, f.analyzer.historical.TotalJobs)
}

func TestRunWithoutNotifier(t *testing.T) {
	f := newFixture([]scraper.JobPosting{validJob("ML Engineer")})
	cfg := &config.Config{SearchQuery: "AI and ML engineer", PagesToScrape: 3}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := NewRunner(cfg, f.scraper, f.storage, f.analyzer, f.renderer, f.mailer, nil, logger)

	assert.NoError(t, runner.Run(context.Background()))
}

func TestRunEmailFailureIsNotFatal(t *testing.T) {
	f := newFixture([]scraper.JobPosting{validJob("ML Engineer")})
	f.mailer.ok = false

	err := f.runner.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, f.notifier.calls)
	assert.False(t, f.notifier.emailed)
}
