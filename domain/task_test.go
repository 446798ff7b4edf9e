package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 99: 1, 100: 2, 199: 2, 250: 3, 1000: 11, -5: 1}
	for points, level := range cases {
		assert.Equal(t, level, LevelFor(points), "points=%d", points)
	}
}

func TestTaskDraftNormalize(t *testing.T) {
	d, err := TaskDraft{Title: "  Write report ", Description: " draft "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "Write report", d.Title)
	assert.Equal(t, "draft", d.Description)
	assert.Equal(t, CategoryWork, d.Category)

	_, err = TaskDraft{Title: "   "}.Normalize()
	assert.ErrorIs(t, err, ErrTitleRequired)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))

	_, err = TaskDraft{Title: "x", Category: "Chores"}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestTaskPatch(t *testing.T) {
	empty := ""
	assert.ErrorIs(t, TaskPatch{Title: &empty}.Validate(), ErrTitleRequired)

	bad := Category("Nope")
	assert.ErrorIs(t, TaskPatch{Category: &bad}.Validate(), ErrInvalidCategory)

	title := " New "
	cat := CategoryHealth
	task := Task{Title: "Old", Category: CategoryWork, Completed: true, XPAwarded: true}
	TaskPatch{Title: &title, Category: &cat}.Apply(&task)
	assert.Equal(t, "New", task.Title)
	assert.Equal(t, CategoryHealth, task.Category)
	assert.True(t, task.Completed)
	assert.True(t, task.XPAwarded)
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryStudy, ParseCategory("Study"))
	assert.Equal(t, CategoryOther, ParseCategory(""))
	assert.Equal(t, CategoryOther, ParseCategory("garden"))
}

func TestTaskFilterMatch(t *testing.T) {
	done := Task{Completed: true, Category: CategoryWork}
	open := Task{Category: CategoryHealth}

	assert.True(t, TaskFilter{}.Match(done))
	assert.True(t, TaskFilter{Status: StatusCompleted}.Match(done))
	assert.False(t, TaskFilter{Status: StatusCompleted}.Match(open))
	assert.True(t, TaskFilter{Status: StatusActive}.Match(open))
	assert.False(t, TaskFilter{Category: CategoryWork}.Match(open))
}
