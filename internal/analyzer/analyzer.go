// Package analyzer turns a job batch into a free-text market analysis using
// a generative model, with a deterministic local fallback.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go-upwork-analyzer/internal/scraper"
	"go-upwork-analyzer/internal/store"
)

// Prompt-side bounds, applied before serialization so one oversized batch
// cannot blow the model's context.
const (
	maxSummaryJobs   = 50
	maxTitleChars    = 100
	maxDescChars     = 300
	maxSummarySkills = 10
)

// Provider sends a prompt to a text-generation service and returns the raw
// text response.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Analyzer struct {
	provider Provider
	logger   *slog.Logger
}

func New(provider Provider, logger *slog.Logger) *Analyzer {
	return &Analyzer{provider: provider, logger: logger}
}

// Analyze builds a bounded prompt from the batch (plus optional historical
// context) and asks the provider for a report. The call is made exactly
// once; any failure immediately degrades to the local fallback report.
func (a *Analyzer) Analyze(ctx context.Context, jobs []scraper.JobPosting, historical *store.HistoricalStats) string {
	summary, err := buildSummary(jobs)
	if err != nil {
		a.logger.Error("failed to serialize job summary", "error", err)
		return Fallback(jobs)
	}

	prompt := buildPrompt(summary, len(jobs), historical)

	a.logger.Info("🧠 Generating analysis...")
	analysis, err := a.provider.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("analysis request failed, using fallback", "error", err)
		return Fallback(jobs)
	}
	if strings.TrimSpace(analysis) == "" {
		a.logger.Warn("analysis response was empty, using fallback")
		return Fallback(jobs)
	}

	a.logger.Info("✅ Analysis generated")
	return analysis
}

// jobSummary is the compact per-job shape embedded in the prompt.
type jobSummary struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	Budget      string   `json:"budget"`
}

func buildSummary(jobs []scraper.JobPosting) (string, error) {
	if len(jobs) > maxSummaryJobs {
		jobs = jobs[:maxSummaryJobs]
	}

	summaries := make([]jobSummary, 0, len(jobs))
	for i, job := range jobs {
		skills := job.Skills
		if len(skills) > maxSummarySkills {
			skills = skills[:maxSummarySkills]
		}
		summaries = append(summaries, jobSummary{
			ID:          i + 1,
			Title:       truncate(job.Title, maxTitleChars),
			Description: truncate(job.Description, maxDescChars),
			Skills:      skills,
			Budget:      job.Budget,
		})
	}

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	return string(data), nil
}

func buildPrompt(summary string, totalJobs int, historical *store.HistoricalStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert freelance market analyst specializing in AI/ML job trends.\n\n")
	fmt.Fprintf(&b, "Analyze these %d Upwork job postings for AI/ML engineers.\n\n", totalJobs)
	fmt.Fprintf(&b, "JOBS DATA:\n%s\n\n", summary)

	if historical != nil {
		fmt.Fprintf(&b, "HISTORICAL CONTEXT:\nPrevious analysis showed %d jobs.\nCompare trends with current data.\n\n", historical.TotalJobs)
	}

	b.WriteString(`Provide a comprehensive analysis in this EXACT format:

## 📊 TOP DEMANDED SKILLS
List the top 10 most mentioned skills with their frequency count.
Format: 1. Skill Name - X mentions

## 🔥 COMMON PROJECT PATTERNS
Identify 5 most common types of projects being requested.
For each pattern, explain what clients typically want.

## 📈 TRENDING TECHNOLOGIES
List 5 new or increasingly popular technologies/frameworks.
Explain why each is trending.

## 💰 BUDGET INSIGHTS
- Average hourly rate range
- Average fixed price range
- Highest paying project categories
- Budget distribution (low/mid/high)

## 🎯 PROJECT RECOMMENDATION
Based on the patterns, recommend ONE specific portfolio project to build.
Include:
- Project name and description
- 4-5 key features to implement
- Technologies to use
- Why it's valuable for the market

## 📝 KEY TAKEAWAYS
Provide 5 actionable insights for freelancers.

## 📉 MARKET COMPARISON
`)
	if historical != nil {
		b.WriteString("Compare with previous data trends.\n")
	} else {
		b.WriteString("First analysis - establish baseline.\n")
	}
	b.WriteString("\nKeep the analysis professional, data-driven, and actionable.\n")

	return b.String()
}

// Fallback tallies skill mentions across the full job list and renders the
// top 10 as a plain report. Given the same jobs it always produces the same
// output; it touches no network.
func Fallback(jobs []scraper.JobPosting) string {
	counts := make(map[string]int)
	var firstSeen []string
	for _, job := range jobs {
		for _, skill := range job.Skills {
			if _, seen := counts[skill]; !seen {
				firstSeen = append(firstSeen, skill)
			}
			counts[skill]++
		}
	}

	ranked := make([]store.SkillCount, 0, len(firstSeen))
	for _, skill := range firstSeen {
		ranked = append(ranked, store.SkillCount{Skill: skill, Count: counts[skill]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	var b strings.Builder
	b.WriteString("# Upwork Job Analysis (Fallback Mode)\n\n")
	fmt.Fprintf(&b, "## Total Jobs Analyzed: %d\n\n", len(jobs))
	b.WriteString("## Top Skills:\n")
	for i, sc := range ranked {
		fmt.Fprintf(&b, "%d. %s - %d mentions\n", i+1, sc.Skill, sc.Count)
	}
	b.WriteString("\n⚠️ Full AI analysis unavailable. This is a basic summary.\n")
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
