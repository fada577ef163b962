// Package store persists job batches as timestamped JSON snapshots and
// reconstructs aggregate statistics by scanning prior snapshots.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-upwork-analyzer/internal/scraper"
)

// Snapshot kinds. Each kind gets its own directory under the base dir.
const (
	KindRaw       = "raw"
	KindProcessed = "processed"
)

// JobBatch is one persisted snapshot. Count always equals len(Jobs).
type JobBatch struct {
	Timestamp string               `json:"timestamp"`
	Count     int                  `json:"count"`
	Jobs      []scraper.JobPosting `json:"jobs"`
}

// SkillCount is one entry of a ranked skill tally.
type SkillCount struct {
	Skill string
	Count int
}

// HistoricalStats are derived fresh on each request; nothing is cached.
type HistoricalStats struct {
	TotalJobs         int
	FilesAnalyzed     int
	TopSkills         []SkillCount
	AverageJobsPerDay float64
}

// Store writes and reads snapshot files under baseDir/<kind>/.
type Store struct {
	baseDir string
	logger  *slog.Logger
	now     func() time.Time
}

func New(baseDir string, logger *slog.Logger) *Store {
	return &Store{baseDir: baseDir, logger: logger, now: time.Now}
}

// Save serializes {timestamp, count, jobs} to a fresh snapshot file and
// returns its path. Filenames carry a nanosecond component so two saves can
// never collide, and the write goes through a temp file + rename so a reader
// never observes a truncated snapshot.
func (s *Store) Save(jobs []scraper.JobPosting, kind string) (string, error) {
	dir := filepath.Join(s.baseDir, kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("failed to create snapshot directory", "dir", dir, "error", err)
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}

	now := s.now()
	name := fmt.Sprintf("jobs_%s_%09d.json", now.Format("20060102_150405"), now.Nanosecond())
	path := filepath.Join(dir, name)

	batch := JobBatch{
		Timestamp: now.Format(time.RFC3339),
		Count:     len(jobs),
		Jobs:      jobs,
	}
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		s.logger.Error("failed to marshal job batch", "error", err)
		return "", fmt.Errorf("marshal batch: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		s.logger.Error("failed to write snapshot", "path", tmp, "error", err)
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		s.logger.Error("failed to finalize snapshot", "path", path, "error", err)
		return "", fmt.Errorf("finalize snapshot: %w", err)
	}

	s.logger.Info(fmt.Sprintf("💾 Saved %d jobs to %s", len(jobs), path))
	return path, nil
}

// LoadLatest returns the newest snapshot of the given kind, or (nil, nil)
// when no snapshots exist yet.
func (s *Store) LoadLatest(kind string) (*JobBatch, error) {
	files, err := s.snapshotFiles(kind)
	if err != nil {
		s.logger.Error("failed to list snapshots", "kind", kind, "error", err)
		return nil, err
	}
	if len(files) == 0 {
		s.logger.Warn("no previous data files found", "kind", kind)
		return nil, nil
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		s.logger.Error("failed to read snapshot", "path", files[0], "error", err)
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var batch JobBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		s.logger.Error("failed to parse snapshot", "path", files[0], "error", err)
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &batch, nil
}

// HistoricalStats scans up to days most-recent raw snapshots and aggregates
// job totals and per-skill mention counts. Equal counts keep first-seen
// order. Any I/O error degrades to whatever was aggregated so far.
func (s *Store) HistoricalStats(days int) HistoricalStats {
	files, err := s.snapshotFiles(KindRaw)
	if err != nil {
		s.logger.Error("failed to list snapshots for stats", "error", err)
		return HistoricalStats{}
	}
	if days < 0 {
		days = 0
	}
	if days < len(files) {
		files = files[:days]
	}

	totalJobs := 0
	counts := make(map[string]int)
	var firstSeen []string

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable snapshot", "path", path, "error", err)
			continue
		}
		var batch JobBatch
		if err := json.Unmarshal(data, &batch); err != nil {
			s.logger.Warn("skipping malformed snapshot", "path", path, "error", err)
			continue
		}

		totalJobs += len(batch.Jobs)
		for _, job := range batch.Jobs {
			for _, skill := range job.Skills {
				if _, seen := counts[skill]; !seen {
					firstSeen = append(firstSeen, skill)
				}
				counts[skill]++
			}
		}
	}

	top := make([]SkillCount, 0, len(firstSeen))
	for _, skill := range firstSeen {
		top = append(top, SkillCount{Skill: skill, Count: counts[skill]})
	}
	// Stable: ties stay in first-encountered order.
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > 10 {
		top = top[:10]
	}

	avg := 0.0
	denom := days
	if len(files) < denom {
		denom = len(files)
	}
	if denom > 0 {
		avg = float64(totalJobs) / float64(denom)
	}

	return HistoricalStats{
		TotalJobs:         totalJobs,
		FilesAnalyzed:     len(files),
		TopSkills:         top,
		AverageJobsPerDay: avg,
	}
}

// snapshotFiles lists jobs_*.json files of a kind, newest first. Snapshot
// names sort lexicographically by timestamp, so a plain descending sort is
// newest-first.
func (s *Store) snapshotFiles(kind string) ([]string, error) {
	dir := filepath.Join(s.baseDir, kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "jobs_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}
