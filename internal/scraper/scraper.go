// Define the job posting record and the interface all scrapers implement

package scraper

import "context"

// Sentinel values used when a field cannot be extracted from a listing.
const (
	TitleNA      = "N/A"
	NotSpecified = "Not specified"
	Unknown      = "Unknown"
)

// ScrapedAtLayout is the timestamp format stamped onto every record.
const ScrapedAtLayout = "2006-01-02 15:04:05"

// JobPosting is one normalized scraped listing. Records are created by a
// scraper and never mutated afterwards.
type JobPosting struct {
	Title       string   `json:"title" validate:"required,ne=N/A"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	Budget      string   `json:"budget"`
	Posted      string   `json:"posted"`
	ScrapedAt   string   `json:"scraped_at" validate:"required"`
}

// Scraper fetches job postings for a search query across n pages.
type Scraper interface {
	Scrape(ctx context.Context, query string, pages int) ([]JobPosting, error)

	// Name is the listing site name (Upwork, ...)
	Name() string
}
