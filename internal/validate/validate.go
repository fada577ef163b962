// Package validate filters scraped records down to those satisfying the
// minimal schema before they are stored or analyzed.
package validate

import (
	"go-upwork-analyzer/internal/scraper"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// Filter returns the subsequence of jobs, in their original order, that
// carry the required fields: a real (non-sentinel) title and a scrape
// timestamp. It never fails; the worst case is an empty slice.
func Filter(jobs []scraper.JobPosting) []scraper.JobPosting {
	valid := make([]scraper.JobPosting, 0, len(jobs))
	for _, job := range jobs {
		if v.Struct(job) == nil {
			valid = append(valid, job)
		}
	}
	return valid
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return v.Var(s, "required,email") == nil
}
