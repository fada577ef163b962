package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-upwork-analyzer/internal/scraper"
)

func job(title string) scraper.JobPosting {
	return scraper.JobPosting{
		Title:     title,
		ScrapedAt: "2026-09-01 08:00:00",
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	jobs := []scraper.JobPosting{
		job("ML Engineer"),
		{Title: "", ScrapedAt: "2026-09-01 08:00:00"},
		job("Data Scientist"),
		job(scraper.TitleNA),
		{Title: "No timestamp"},
		job("LLM Developer"),
	}

	got := Filter(jobs)

	assert.Len(t, got, 3)
	assert.Equal(t, "ML Engineer", got[0].Title)
	assert.Equal(t, "Data Scientist", got[1].Title)
	assert.Equal(t, "LLM Developer", got[2].Title)
}

func TestFilterEmptyInput(t *testing.T) {
	assert.Empty(t, Filter(nil))
	assert.Empty(t, Filter([]scraper.JobPosting{}))
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"me@example.com", true},
		{"first.last+tag@gmail.com", true},
		{"", false},
		{"not-an-email", false},
		{"missing@domain", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidEmail(tt.input))
		})
	}
}
