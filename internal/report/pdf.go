package report

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Renderer converts an analysis report into a paginated PDF file. Each call
// launches its own headless browser, renders the HTML template and releases
// everything before returning.
type Renderer struct {
	templatePath string
	outDir       string
	logger       *slog.Logger
	now          func() time.Time
}

func NewRenderer(templatePath, outDir string, logger *slog.Logger) *Renderer {
	return &Renderer{templatePath: templatePath, outDir: outDir, logger: logger, now: time.Now}
}

// templateData feeds templates/report.html.
type templateData struct {
	GeneratedAt string
	JobCount    int
	SearchQuery string
	Body        string
}

// Render writes the report PDF and returns its path. The output name embeds
// the run timestamp so reports never overwrite each other.
func (r *Renderer) Render(report string, jobCount int, meta RunMetadata) (string, error) {
	now := r.now()

	tmpl, err := template.ParseFiles(r.templatePath)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData{
		GeneratedAt: now.Format("02 January 2006, 03:04 PM"),
		JobCount:    jobCount,
		SearchQuery: meta.SearchQuery,
		Body:        StripMarkdown(report),
	}); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	pdfBytes, err := r.renderPDF(buf.String(), now)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.outDir, 0755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}
	path := filepath.Join(r.outDir, fmt.Sprintf("upwork_report_%s.pdf", now.Format("20060102_150405")))
	if err := os.WriteFile(path, pdfBytes, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	r.logger.Info(fmt.Sprintf("📄 PDF saved: %s", path))
	return path, nil
}

// renderPDF drives a throwaway browser page to lay the HTML out as A4 pages
// with a title header and page-number footer on every page.
func (r *Renderer) renderPDF(html string, now time.Time) ([]byte, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create new page: %w", err)
	}
	defer page.Close()

	if err := page.SetContent(html, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("could not set page content: %w", err)
	}

	header := fmt.Sprintf(
		`<div style="font-size:10px; width:100%%; text-align:center;">Upwork Job Analysis Report &mdash; %s</div>`,
		now.Format("02 January 2006, 03:04 PM"),
	)
	footer := `<div style="font-size:8px; width:100%; text-align:center;">Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

	pdfBytes, err := page.PDF(playwright.PagePdfOptions{
		Format:              playwright.String("A4"),
		PrintBackground:     playwright.Bool(true),
		DisplayHeaderFooter: playwright.Bool(true),
		HeaderTemplate:      playwright.String(header),
		FooterTemplate:      playwright.String(footer),
		Margin: &playwright.Margin{
			Top:    playwright.String("60px"),
			Bottom: playwright.String("40px"),
			Left:   playwright.String("40px"),
			Right:  playwright.String("40px"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not generate PDF: %w", err)
	}
	return pdfBytes, nil
}

// StripMarkdown removes the heading and bold markers the analysis text uses,
// since the layout has no rich-text support.
func StripMarkdown(text string) string {
	text = strings.ReplaceAll(text, "##", "")
	text = strings.ReplaceAll(text, "**", "")
	return text
}
