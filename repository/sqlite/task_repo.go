package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const taskColumns = `id, user_id, title, description, category, completed, created_at, completed_at, pomodoro_sessions, xp_awarded`

type taskRepository struct {
	db *DB
}

// NewTaskRepository returns a SQLite-backed TaskRepository.
func NewTaskRepository(db *DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	rows, err := r.db.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	now := formatTime(time.Now())

	_, err := r.db.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		string(task.Category),
		task.Completed,
		formatTime(task.CreatedAt),
		nullableTime(task.CompletedAt),
		task.PomodoroSessions,
		task.XPAwarded,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	res, err := r.db.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = ?, description = ?, category = ?, completed = ?, completed_at = ?,
		     pomodoro_sessions = ?, xp_awarded = ?, updated_at = ?
		 WHERE id = ?`,
		task.Title,
		task.Description,
		string(task.Category),
		task.Completed,
		nullableTime(task.CompletedAt),
		task.PomodoroSessions,
		task.XPAwarded,
		formatTime(time.Now()),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", task.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var (
		task        domain.Task
		category    string
		createdAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&category,
		&task.Completed,
		&createdAt,
		&completedAt,
		&task.PomodoroSessions,
		&task.XPAwarded,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Category = domain.ParseCategory(category)
	var err error
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at of task %s: %w", task.ID, err)
	}
	if completedAt.Valid {
		at, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at of task %s: %w", task.ID, err)
		}
		task.CompletedAt = &at
	}
	return &task, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
