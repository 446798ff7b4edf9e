package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const taskColumns = `id, user_id, title, description, category, completed, created_at, completed_at, pomodoro_sessions, xp_awarded`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
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

	const query = `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), $8, $9, $10)
	RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		string(task.Category),
		task.Completed,
		nullTime(task.CreatedAt),
		task.CompletedAt,
		task.PomodoroSessions,
		task.XPAwarded,
	).Scan(&task.CreatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		category = $4,
		completed = $5,
		completed_at = $6,
		pomodoro_sessions = $7,
		xp_awarded = $8,
		updated_at = NOW()
	WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Category),
		task.Completed,
		task.CompletedAt,
		task.PomodoroSessions,
		task.XPAwarded,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		category    string
		completedAt *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&category,
		&task.Completed,
		&task.CreatedAt,
		&completedAt,
		&task.PomodoroSessions,
		&task.XPAwarded,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Category = domain.ParseCategory(category)
	task.CompletedAt = completedAt
	return &task, nil
}
