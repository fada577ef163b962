// Package upwork scrapes the Upwork job search for a query across pages.
package upwork

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-upwork-analyzer/internal/browser"
	"go-upwork-analyzer/internal/config"
	"go-upwork-analyzer/internal/scraper"
	"go-upwork-analyzer/utils"
)

const (
	// Bounds applied at extraction time.
	maxDescriptionLen = 1000
	maxSkills         = 20

	// Per-field extraction timeout. Fields are best-effort; a slow selector
	// must not stall the whole card.
	fieldTimeoutMs = 500

	listingTimeoutMs = 10000
	retryDelay       = 5 * time.Second
	interPageDelay   = 3 * time.Second
)

type UpworkScraper struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewUpworkScraper(cfg *config.Config, logger *slog.Logger) *UpworkScraper {
	return &UpworkScraper{cfg: cfg, logger: logger}
}

func (s *UpworkScraper) Name() string {
	return "Upwork"
}

// Scrape fetches postings for query across pages 1..pages. The browser
// session lives exactly as long as this call. A failed page degrades to an
// empty page; it never aborts the remaining pages.
func (s *UpworkScraper) Scrape(ctx context.Context, query string, pages int) ([]scraper.JobPosting, error) {
	session, err := browser.NewSession(s.cfg.TimeoutSeconds)
	if err != nil {
		return nil, fmt.Errorf("start browser session: %w", err)
	}
	defer session.Close()
	s.logger.Info("✅ Browser initialized")

	page := session.Page()

	var allJobs []scraper.JobPosting
	for pageNum := 1; pageNum <= pages; pageNum++ {
		if ctx.Err() != nil {
			return allJobs, ctx.Err()
		}

		s.logger.Info(fmt.Sprintf("📄 Scraping page %d/%d", pageNum, pages))
		jobs := s.scrapePage(page, query, pageNum)
		if len(jobs) > 0 {
			allJobs = append(allJobs, jobs...)
			s.logger.Info(fmt.Sprintf("✅ Page %d: found %d jobs", pageNum, len(jobs)))
		} else {
			s.logger.Warn(fmt.Sprintf("⚠️ Page %d: no jobs found", pageNum))
		}

		// Politeness pause between pages
		if pageNum < pages {
			time.Sleep(interPageDelay)
		}
	}

	return allJobs, nil
}

// scrapePage loads one search results page and extracts its cards, retrying
// page-load timeouts up to MaxRetries with a fixed backoff. After exhausting
// retries the page counts as empty.
func (s *UpworkScraper) scrapePage(page playwright.Page, query string, pageNum int) []scraper.JobPosting {
	target := searchURL(query, pageNum)

	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		jobs, err := s.tryPage(page, target)
		if err == nil {
			return jobs
		}

		s.logger.Warn("timeout loading page",
			"page", pageNum,
			"attempt", fmt.Sprintf("%d/%d", attempt, s.cfg.MaxRetries),
			"error", err,
		)
		if attempt < s.cfg.MaxRetries {
			time.Sleep(retryDelay)
		}
	}
	return nil
}

func (s *UpworkScraper) tryPage(page playwright.Page, target string) ([]scraper.JobPosting, error) {
	if _, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.cfg.TimeoutSeconds * 1000)),
	}); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	// Wait for the listing container to appear.
	if _, err := page.WaitForSelector("article", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(listingTimeoutMs),
	}); err != nil {
		return nil, fmt.Errorf("listings did not appear: %w", err)
	}

	// Let dynamic content settle and trigger lazy loading.
	utils.SmoothScroll(page)
	utils.RandomDelay(1500, 2500)

	cards, err := page.Locator("article").All()
	if err != nil {
		return nil, fmt.Errorf("collect job cards: %w", err)
	}

	jobs := make([]scraper.JobPosting, 0, len(cards))
	for _, card := range cards {
		if job, ok := s.extractJob(card); ok {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// extractJob pulls one JobPosting out of a card. Every field attempt is
// independent and falls back to a sentinel; only a missing or "N/A" title
// discards the record.
func (s *UpworkScraper) extractJob(card playwright.Locator) (scraper.JobPosting, bool) {
	title, ok := textField(card, "h2, h3, [data-test='job-title']")
	if !ok || title == scraper.TitleNA {
		return scraper.JobPosting{}, false
	}

	description, ok := textField(card, "[data-test='job-description'], .job-description")
	if !ok {
		// Whole-card text is better than nothing.
		if raw, err := card.TextContent(playwright.LocatorTextContentOptions{
			Timeout: playwright.Float(fieldTimeoutMs),
		}); err == nil {
			description = strings.TrimSpace(raw)
		}
	}
	description = truncate(description, maxDescriptionLen)

	budget, ok := textField(card, "[data-test='budget'], .budget")
	if !ok {
		budget = scraper.NotSpecified
	}

	posted, ok := textField(card, "[data-test='posted-on'], .posted-on")
	if !ok {
		posted = scraper.Unknown
	}

	return scraper.JobPosting{
		Title:       title,
		Description: description,
		Skills:      s.extractSkills(card),
		Budget:      budget,
		Posted:      posted,
		ScrapedAt:   time.Now().Format(scraper.ScrapedAtLayout),
	}, true
}

func (s *UpworkScraper) extractSkills(card playwright.Locator) []string {
	tokens, err := card.Locator("[data-test='token'], .skill-tag, .up-skill-badge").All()
	if err != nil {
		return nil
	}

	skills := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(skills) >= maxSkills {
			break
		}
		raw, err := token.TextContent(playwright.LocatorTextContentOptions{
			Timeout: playwright.Float(fieldTimeoutMs),
		})
		if err != nil {
			continue
		}
		if skill := cleanSkill(raw); skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}

// textField attempts one selector group against the card and reports whether
// a non-empty value was present.
func textField(card playwright.Locator, selector string) (string, bool) {
	text, err := card.Locator(selector).First().TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(fieldTimeoutMs),
	})
	if err != nil {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

func searchURL(query string, page int) string {
	return fmt.Sprintf("https://www.upwork.com/nx/search/jobs/?q=%s&page=%d", url.QueryEscape(query), page)
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// cleanSkill trims a skill token and strips combining diacritics so the same
// skill spelled with different accents tallies under one key.
func cleanSkill(raw string) string {
	result, _, err := transform.String(stripMarks, raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(result)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
