// Package stats derives dashboard aggregates from a task collection.
package stats

import (
	"math"
	"time"

	"github.com/fastygo/taskflow/domain"
)

// ActivityDays is the length of the activity histogram, today included.
const ActivityDays = 7

type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

type DayBucket struct {
	Date      time.Time `json:"date"`
	Label     string    `json:"label"`
	Completed int       `json:"completed"`
}

// Dashboard is recomputed on every read; it holds no state of its own.
type Dashboard struct {
	Total          int             `json:"total"`
	Completed      int             `json:"completed"`
	Pending        int             `json:"pending"`
	CompletionRate int             `json:"completion_rate"`
	TotalSessions  int             `json:"total_sessions"`
	Categories     []CategoryCount `json:"categories"`
	Activity       []DayBucket     `json:"activity"`
}

// Compute builds the dashboard for tasks as seen at now. Calendar days are taken in now's location.
func Compute(tasks []domain.Task, now time.Time) Dashboard {
	d := Dashboard{Total: len(tasks)}

	perCategory := make(map[domain.Category]int, len(domain.Categories))
	for _, t := range tasks {
		if t.Completed {
			d.Completed++
		}
		d.TotalSessions += t.PomodoroSessions
		perCategory[domain.ParseCategory(string(t.Category))]++
	}
	d.Pending = d.Total - d.Completed
	if d.Total > 0 {
		d.CompletionRate = int(math.Round(float64(d.Completed) / float64(d.Total) * 100))
	}

	d.Categories = make([]CategoryCount, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		d.Categories = append(d.Categories, CategoryCount{Category: c, Count: perCategory[c]})
	}

	d.Activity = activity(tasks, now)
	return d
}

func activity(tasks []domain.Task, now time.Time) []DayBucket {
	loc := now.Location()
	today := startOfDay(now)

	buckets := make([]DayBucket, ActivityDays)
	index := make(map[int]int, ActivityDays)
	for i := 0; i < ActivityDays; i++ {
		day := today.AddDate(0, 0, i-(ActivityDays-1))
		buckets[i] = DayBucket{Date: day, Label: day.Format("Jan 02")}
		index[dayKey(day)] = i
	}

	for _, t := range tasks {
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		if i, ok := index[dayKey(t.CompletedAt.In(loc))]; ok {
			buckets[i].Completed++
		}
	}
	return buckets
}

// dayKey identifies a calendar date as yyyymmdd, independent of clock time and location pointer.
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
