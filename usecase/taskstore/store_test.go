package taskstore

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskflow/domain"
)

type recordingAwarder struct {
	mu     sync.Mutex
	awards []domain.Award
}

func (r *recordingAwarder) Award(a domain.Award) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.awards = append(r.awards, a)
	return nil
}

func (r *recordingAwarder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, a := range r.awards {
		sum += a.Points
	}
	return sum
}

func (r *recordingAwarder) countFor(subject string, reason domain.AwardReason) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.awards {
		if a.Subject == subject && a.Reason == reason {
			n++
		}
	}
	return n
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	}
}

func newTestStore(awarder Awarder, clock *fixedClock) *Store {
	return New(awarder, WithClock(clock.now), WithIDs(sequentialIDs()))
}

func TestDecide(t *testing.T) {
	cases := []struct {
		completed, xpAwarded bool
		want                 Decision
	}{
		{false, false, Decision{WillBeCompleted: true, Award: true, XPAwarded: true}},
		{true, true, Decision{WillBeCompleted: false, Award: false, XPAwarded: true}},
		{false, true, Decision{WillBeCompleted: true, Award: false, XPAwarded: true}},
		{true, false, Decision{WillBeCompleted: false, Award: false, XPAwarded: false}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Decide(tc.completed, tc.xpAwarded), "completed=%v xp=%v", tc.completed, tc.xpAwarded)
	}
}

func TestAddTask(t *testing.T) {
	clock := &fixedClock{t: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	s := newTestStore(nil, clock)

	first, err := s.AddTask(domain.TaskDraft{Title: "first"}, "u1")
	require.NoError(t, err)
	second, err := s.AddTask(domain.TaskDraft{Title: "second", Category: domain.CategoryHealth}, "u1")
	require.NoError(t, err)

	assert.Equal(t, "task-1", first.ID)
	assert.Equal(t, "u1", first.OwnerID)
	assert.Equal(t, domain.CategoryWork, first.Category)
	assert.Equal(t, clock.t, first.CreatedAt)
	assert.False(t, first.Completed)
	assert.False(t, first.XPAwarded)
	assert.Zero(t, first.PomodoroSessions)

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID, "newest first")

	_, err = s.AddTask(domain.TaskDraft{Title: "  "}, "u1")
	assert.ErrorIs(t, err, domain.ErrTitleRequired)
	assert.Len(t, s.Tasks(), 2)
}

func TestScenarioCompletionAwardedOnce(t *testing.T) {
	clock := &fixedClock{t: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	awarder := &recordingAwarder{}
	s := newTestStore(awarder, clock)

	t1, err := s.AddTask(domain.TaskDraft{Title: "T1", Category: domain.CategoryWork}, "u1")
	require.NoError(t, err)

	got, ok := s.ToggleTaskCompletion(t1.ID)
	require.True(t, ok)
	assert.True(t, got.Completed)
	assert.True(t, got.XPAwarded)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, clock.t, *got.CompletedAt)
	assert.Equal(t, 10, awarder.total())

	clock.t = clock.t.Add(time.Minute)
	got, _ = s.ToggleTaskCompletion(t1.ID)
	assert.False(t, got.Completed)
	assert.True(t, got.XPAwarded)
	assert.Nil(t, got.CompletedAt)

	got, _ = s.ToggleTaskCompletion(t1.ID)
	assert.True(t, got.Completed)
	assert.Equal(t, clock.t, *got.CompletedAt)
	assert.Equal(t, 10, awarder.total())
	assert.Equal(t, domain.CompletionAwardKey(t1.ID), awarder.awards[0].Key)
}

func TestToggleSequencesAwardAtMostOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 50; run++ {
		awarder := &recordingAwarder{}
		s := New(awarder, WithIDs(sequentialIDs()))
		task, err := s.AddTask(domain.TaskDraft{Title: "t"}, "u1")
		require.NoError(t, err)

		toggles := rng.Intn(12)
		everCompleted := false
		for i := 0; i < toggles; i++ {
			got, _ := s.ToggleTaskCompletion(task.ID)
			everCompleted = everCompleted || got.Completed
			assert.Equal(t, got.Completed, got.CompletedAt != nil)
		}

		n := awarder.countFor(task.ID, domain.AwardTaskCompleted)
		if everCompleted {
			assert.Equal(t, 1, n, "run %d with %d toggles", run, toggles)
		} else {
			assert.Equal(t, 0, n, "run %d with %d toggles", run, toggles)
		}
	}
}

func TestConcurrentTogglesAwardOnce(t *testing.T) {
	awarder := &recordingAwarder{}
	s := New(awarder)
	task, err := s.AddTask(domain.TaskDraft{Title: "race"}, "u1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ToggleTaskCompletion(task.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, awarder.countFor(task.ID, domain.AwardTaskCompleted))
}

func TestRecreatedTaskCanAwardAgain(t *testing.T) {
	awarder := &recordingAwarder{}
	s := New(awarder, WithIDs(sequentialIDs()))

	first, _ := s.AddTask(domain.TaskDraft{Title: "t"}, "u1")
	s.ToggleTaskCompletion(first.ID)
	s.DeleteTask(first.ID)

	second, _ := s.AddTask(domain.TaskDraft{Title: "t"}, "u1")
	got, _ := s.ToggleTaskCompletion(second.ID)
	assert.True(t, got.XPAwarded)
	assert.Equal(t, 20, awarder.total())
}

func TestToggleHonoursStoredXPFlag(t *testing.T) {
	awarder := &recordingAwarder{}
	s := New(awarder)
	s.SetTasks([]domain.Task{{ID: "t1", Title: "synced", XPAwarded: true}})

	got, ok := s.ToggleTaskCompletion("t1")
	require.True(t, ok)
	assert.True(t, got.Completed)
	assert.Zero(t, awarder.total())
}

func TestUpdateTaskIsOrthogonalToCompletion(t *testing.T) {
	s := New(nil, WithIDs(sequentialIDs()))
	task, _ := s.AddTask(domain.TaskDraft{Title: "t"}, "u1")
	s.ToggleTaskCompletion(task.ID)

	title := "renamed"
	got, ok, err := s.UpdateTask(task.ID, domain.TaskPatch{Title: &title})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, got.Completed)
	assert.True(t, got.XPAwarded)
	assert.NotNil(t, got.CompletedAt)

	_, ok, err = s.UpdateTask("missing", domain.TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.False(t, ok)

	empty := ""
	_, _, err = s.UpdateTask(task.ID, domain.TaskPatch{Title: &empty})
	assert.ErrorIs(t, err, domain.ErrTitleRequired)
	stored, _ := s.Task(task.ID)
	assert.Equal(t, "renamed", stored.Title)
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	s := New(nil, WithIDs(sequentialIDs()))
	s.AddTask(domain.TaskDraft{Title: "a"}, "u1")
	s.AddTask(domain.TaskDraft{Title: "b"}, "u1")
	before := s.Tasks()

	_, ok := s.DeleteTask("nope")
	assert.False(t, ok)
	assert.Equal(t, before, s.Tasks())

	removed, ok := s.DeleteTask("task-1")
	assert.True(t, ok)
	assert.Equal(t, "a", removed.Title)
	require.Len(t, s.Tasks(), 1)
	assert.Equal(t, "b", s.Tasks()[0].Title)
}

func TestSetTasksReplacesWholesale(t *testing.T) {
	s := New(nil, WithIDs(sequentialIDs()))
	s.AddTask(domain.TaskDraft{Title: "local only"}, "u1")

	at := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	remote := []domain.Task{
		{ID: "r2", Title: "two", CreatedAt: at.Add(time.Hour)},
		{ID: "r1", Title: "one", CreatedAt: at, Completed: true, CompletedAt: &at},
	}
	s.SetTasks(remote)
	assert.Equal(t, remote, s.Tasks())

	// The store holds its own copy.
	remote[0].Title = "mutated"
	assert.Equal(t, "two", s.Tasks()[0].Title)

	s.SetTasks(nil)
	assert.Empty(t, s.Tasks())
}

func TestPomodoroSessions(t *testing.T) {
	awarder := &recordingAwarder{}
	s := New(awarder, WithIDs(sequentialIDs()), WithRewards(Rewards{Session: 30}))
	task, _ := s.AddTask(domain.TaskDraft{Title: "focus"}, "u1")

	got, ok := s.AddPomodoroSession(task.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.PomodoroSessions)
	assert.Zero(t, awarder.total())

	got, ok = s.CompleteFocusSession(task.ID, "s1")
	require.True(t, ok)
	assert.Equal(t, 2, got.PomodoroSessions)
	assert.Equal(t, 30, awarder.total())
	assert.Equal(t, domain.SessionAwardKey(task.ID, "s1"), awarder.awards[0].Key)

	_, ok = s.CompleteFocusSession("missing", "s2")
	assert.False(t, ok)
	_, ok = s.AddPomodoroSession("missing")
	assert.False(t, ok)
}

func TestSessionAwardKeyIgnoresRolledBackCounter(t *testing.T) {
	awarder := &recordingAwarder{}
	s := New(awarder, WithIDs(sequentialIDs()))
	task, _ := s.AddTask(domain.TaskDraft{Title: "focus"}, "u1")

	_, ok := s.CompleteFocusSession(task.ID, "s1")
	require.True(t, ok)
	s.SetTasks([]domain.Task{task})
	got, ok := s.CompleteFocusSession(task.ID, "s2")
	require.True(t, ok)
	assert.Equal(t, 1, got.PomodoroSessions)

	require.Len(t, awarder.awards, 2)
	assert.NotEqual(t, awarder.awards[0].Key, awarder.awards[1].Key)

	_, ok = s.CompleteFocusSession(task.ID, "")
	require.True(t, ok)
	require.Len(t, awarder.awards, 3)
	assert.NotEqual(t, awarder.awards[1].Key, awarder.awards[2].Key)
}

func TestFilter(t *testing.T) {
	s := New(nil)
	s.SetTasks([]domain.Task{
		{ID: "a", Category: domain.CategoryWork, Completed: true},
		{ID: "b", Category: domain.CategoryHealth},
		{ID: "c", Category: domain.CategoryWork},
	})

	ids := func(tasks []domain.Task) []string {
		out := make([]string, 0, len(tasks))
		for _, t := range tasks {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []string{"b", "c"}, ids(s.Filter(domain.TaskFilter{Status: domain.StatusActive})))
	assert.Equal(t, []string{"a", "c"}, ids(s.Filter(domain.TaskFilter{Category: domain.CategoryWork})))
	assert.Equal(t, []string{"a"}, ids(s.Filter(domain.TaskFilter{Status: domain.StatusCompleted, Category: domain.CategoryWork})))
}
