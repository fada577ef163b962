// Package report renders the analysis into a PDF and delivers it by email.
package report

// RunMetadata is the per-run context threaded through rendering and
// delivery. It is created by the orchestrator at run start and read-only.
type RunMetadata struct {
	TotalJobs   int
	Pages       int
	SearchQuery string
}
