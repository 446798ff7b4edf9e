package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskflow/domain"
)

func completedAt(t time.Time) domain.Task {
	return domain.Task{Completed: true, CompletedAt: &t, Category: domain.CategoryWork}
}

func TestComputeEmpty(t *testing.T) {
	d := Compute(nil, time.Now())
	assert.Zero(t, d.Total)
	assert.Zero(t, d.CompletionRate)
	require.Len(t, d.Categories, len(domain.Categories))
	for _, c := range d.Categories {
		assert.Zero(t, c.Count)
	}
	require.Len(t, d.Activity, ActivityDays)
}

func TestComputeCounts(t *testing.T) {
	now := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	done := now.Add(-time.Hour)
	tasks := []domain.Task{
		{Completed: true, CompletedAt: &done, Category: domain.CategoryWork, PomodoroSessions: 2},
		{Category: domain.CategoryHealth, PomodoroSessions: 1},
		{Category: domain.CategoryWork},
		{Category: "Garden"},
	}

	d := Compute(tasks, now)
	assert.Equal(t, 4, d.Total)
	assert.Equal(t, 1, d.Completed)
	assert.Equal(t, 3, d.Pending)
	assert.Equal(t, 25, d.CompletionRate)
	assert.Equal(t, 3, d.TotalSessions)
	assert.Equal(t, []CategoryCount{
		{domain.CategoryWork, 2},
		{domain.CategoryPersonal, 0},
		{domain.CategoryStudy, 0},
		{domain.CategoryHealth, 1},
		{domain.CategoryOther, 1},
	}, d.Categories)
	assert.Equal(t, 1, d.Activity[ActivityDays-1].Completed)
}

func TestCompletionRateRounds(t *testing.T) {
	tasks := []domain.Task{completedAt(time.Now()), completedAt(time.Now()), {}}
	assert.Equal(t, 67, Compute(tasks, time.Now()).CompletionRate)
}

func TestActivityBucketsByCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2026, 6, 10, 9, 30, 0, 0, loc)
	threeDaysAgo := time.Date(2026, 6, 7, 23, 50, 0, 0, loc)

	d := Compute([]domain.Task{completedAt(threeDaysAgo)}, now)

	require.Len(t, d.Activity, ActivityDays)
	assert.Equal(t, time.Date(2026, 6, 4, 0, 0, 0, 0, loc), d.Activity[0].Date)
	assert.Equal(t, time.Date(2026, 6, 10, 0, 0, 0, 0, loc), d.Activity[6].Date)
	assert.Equal(t, "Jun 07", d.Activity[3].Label)
	for i, b := range d.Activity {
		if i == 3 {
			assert.Equal(t, 1, b.Completed)
			continue
		}
		assert.Zero(t, b.Completed, "bucket %s", b.Label)
	}
}

func TestActivityUsesLocalDateNotUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, loc)
	// 2026-06-09 20:00 UTC is already June 10 in UTC+9.
	done := time.Date(2026, 6, 9, 20, 0, 0, 0, time.UTC)

	d := Compute([]domain.Task{completedAt(done)}, now)
	assert.Equal(t, 1, d.Activity[6].Completed)
	assert.Zero(t, d.Activity[5].Completed)
}

func TestActivityIgnoresOldAndUncompleted(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	stale := now.AddDate(0, 0, -7)
	reopened := now.Add(-time.Hour)

	d := Compute([]domain.Task{
		completedAt(stale),
		{Completed: false, CompletedAt: &reopened},
	}, now)
	for _, b := range d.Activity {
		assert.Zero(t, b.Completed)
	}
}

func TestActivityMatchesClockReadings(t *testing.T) {
	// time.Now carries a monotonic reading and the caller's location pointer.
	now := time.Now().In(time.FixedZone("UTC+3", 3*3600))
	done := time.Now()

	d := Compute([]domain.Task{completedAt(done)}, now)
	assert.Equal(t, 1, d.Activity[ActivityDays-1].Completed)
}

func TestDayKeyIgnoresClockAndLocation(t *testing.T) {
	a := time.Date(2026, 6, 10, 0, 0, 0, 0, time.FixedZone("A", 3600))
	b := time.Date(2026, 6, 10, 23, 59, 59, 999, time.FixedZone("B", 3600))
	assert.Equal(t, 20260610, dayKey(a))
	assert.Equal(t, dayKey(a), dayKey(b))
	assert.NotEqual(t, dayKey(a), dayKey(a.AddDate(0, 0, 1)))
}
