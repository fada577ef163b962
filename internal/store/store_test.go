package store

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-upwork-analyzer/internal/scraper"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleJobs(skills ...[]string) []scraper.JobPosting {
	jobs := make([]scraper.JobPosting, 0, len(skills))
	for i, sk := range skills {
		jobs = append(jobs, scraper.JobPosting{
			Title:     "Job " + string(rune('A'+i)),
			Skills:    sk,
			Budget:    scraper.NotSpecified,
			Posted:    scraper.Unknown,
			ScrapedAt: "2026-09-01 08:00:00",
		})
	}
	return jobs
}

func TestSaveAndLoadLatest(t *testing.T) {
	s := testStore(t)
	jobs := sampleJobs([]string{"Python", "Go"}, []string{"Rust"})

	path, err := s.Save(jobs, KindRaw)
	require.NoError(t, err)
	assert.FileExists(t, path)

	batch, err := s.LoadLatest(KindRaw)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, 2, batch.Count)
	assert.Equal(t, jobs, batch.Jobs)

	_, err = time.Parse(time.RFC3339, batch.Timestamp)
	assert.NoError(t, err)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := testStore(t)
	path, err := s.Save(sampleJobs([]string{"Python"}), KindRaw)
	require.NoError(t, err)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestTwoSavesProduceDistinctFiles(t *testing.T) {
	s := testStore(t)
	jobs := sampleJobs([]string{"Python"})

	p1, err := s.Save(jobs, KindRaw)
	require.NoError(t, err)
	p2, err := s.Save(jobs, KindRaw)
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
}

func TestLoadLatestEmpty(t *testing.T) {
	s := testStore(t)
	batch, err := s.LoadLatest(KindRaw)
	assert.NoError(t, err)
	assert.Nil(t, batch)
}

func TestLoadLatestPicksNewest(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }
	_, err := s.Save(sampleJobs([]string{"Old"}), KindRaw)
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(time.Hour) }
	_, err = s.Save(sampleJobs([]string{"New"}, []string{"Newer"}), KindRaw)
	require.NoError(t, err)

	batch, err := s.LoadLatest(KindRaw)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, 2, batch.Count)
	assert.Equal(t, []string{"New"}, batch.Jobs[0].Skills)
}

func TestHistoricalStatsAggregates(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }
	_, err := s.Save(sampleJobs([]string{"Python", "Go"}, []string{"Python"}), KindRaw)
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(24 * time.Hour) }
	_, err = s.Save(sampleJobs([]string{"Python", "Rust"}), KindRaw)
	require.NoError(t, err)

	stats := s.HistoricalStats(7)

	assert.Equal(t, 3, stats.TotalJobs)
	assert.Equal(t, 2, stats.FilesAnalyzed)
	assert.InDelta(t, 1.5, stats.AverageJobsPerDay, 0.001)

	require.NotEmpty(t, stats.TopSkills)
	assert.Equal(t, SkillCount{Skill: "Python", Count: 3}, stats.TopSkills[0])
}

func TestHistoricalStatsTieKeepsFirstSeenOrder(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	_, err := s.Save(sampleJobs([]string{"Go", "Rust", "Zig"}), KindRaw)
	require.NoError(t, err)

	stats := s.HistoricalStats(7)

	require.Len(t, stats.TopSkills, 3)
	assert.Equal(t, "Go", stats.TopSkills[0].Skill)
	assert.Equal(t, "Rust", stats.TopSkills[1].Skill)
	assert.Equal(t, "Zig", stats.TopSkills[2].Skill)
}

func TestHistoricalStatsLimitsToDays(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		day := base.Add(time.Duration(i) * 24 * time.Hour)
		s.now = func() time.Time { return day }
		_, err := s.Save(sampleJobs([]string{"Python"}), KindRaw)
		require.NoError(t, err)
	}

	stats := s.HistoricalStats(2)

	assert.Equal(t, 2, stats.FilesAnalyzed)
	assert.Equal(t, 2, stats.TotalJobs)
}

func TestHistoricalStatsZeroDays(t *testing.T) {
	s := testStore(t)
	_, err := s.Save(sampleJobs([]string{"Python"}), KindRaw)
	require.NoError(t, err)

	stats := s.HistoricalStats(0)

	assert.Zero(t, stats.TotalJobs)
	assert.Zero(t, stats.FilesAnalyzed)
	assert.Empty(t, stats.TopSkills)
	assert.Zero(t, stats.AverageJobsPerDay)
}

func TestHistoricalStatsEmptyStore(t *testing.T) {
	s := testStore(t)
	stats := s.HistoricalStats(7)
	assert.Equal(t, HistoricalStats{}, stats)
}

func TestHistoricalStatsCapsAtTen(t *testing.T) {
	s := testStore(t)
	skills := make([]string, 15)
	for i := range skills {
		skills[i] = "Skill" + string(rune('A'+i))
	}
	_, err := s.Save(sampleJobs(skills), KindRaw)
	require.NoError(t, err)

	stats := s.HistoricalStats(7)
	assert.Len(t, stats.TopSkills, 10)
}
