package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Session owns one headless browser for the duration of a single scrape.
// Close releases everything; callers must defer it.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	ctx     playwright.BrowserContext
	page    playwright.Page
}

// NewSession launches headless Chromium and opens one page with the given
// default timeout. On any failure the partially started resources are torn
// down before returning.
func NewSession(timeoutSeconds int) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create new page: %w", err)
	}
	page.SetDefaultTimeout(float64(timeoutSeconds * 1000))

	return &Session{pw: pw, browser: b, ctx: bctx, page: page}, nil
}

// Page returns the session's single page.
func (s *Session) Page() playwright.Page {
	return s.page
}

// Close tears the session down in reverse order of creation.
func (s *Session) Close() {
	if s.page != nil {
		s.page.Close()
	}
	if s.ctx != nil {
		s.ctx.Close()
	}
	if s.browser != nil {
		s.browser.Close()
	}
	if s.pw != nil {
		s.pw.Stop()
	}
}
