package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

const taskColumns = `id, title, description, due_date, status, priority, project_id, member_id, created_at`

type TaskRepository struct {
	db *sql.DB
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		id, projectID, memberID int64
		status, priority        string
		t                       domain.Task
	)
	if err := row.Scan(&id, &t.Title, &t.Description, &t.DueDate, &status, &priority, &projectID, &memberID, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ID = formatID(id)
	t.ProjectID = formatID(projectID)
	t.MemberID = formatID(memberID)
	t.Status = domain.TaskStatus(status)
	t.Priority = domain.Priority(priority)
	t.DueDate = t.DueDate.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	projectID, ok := parseID(t.ProjectID)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	memberID, ok := parseID(t.MemberID)
	if !ok {
		return nil, domain.ErrMemberNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created := *t
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tasks (title, description, due_date, status, priority, project_id, member_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		created.Title, created.Description, created.DueDate, string(created.Status), string(created.Priority),
		projectID, memberID, created.CreatedAt,
	).Scan(&id)
	if err != nil {
		return nil, mapError(fmt.Errorf("insert task: %w", err))
	}
	created.ID = formatID(id)
	return &created, nil
}

func (r *TaskRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	t, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) FindByIDAndProject(ctx context.Context, id, projectID string) (*domain.Task, error) {
	tid, ok1 := parseID(id)
	pid, ok2 := parseID(projectID)
	if !ok1 || !ok2 {
		return nil, domain.ErrTaskNotFound
	}
	return r.queryOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND project_id = $2`, tid, pid)
}

func (r *TaskRepository) FindByIDAndMember(ctx context.Context, id, memberID string) (*domain.Task, error) {
	tid, ok1 := parseID(id)
	mid, ok2 := parseID(memberID)
	if !ok1 || !ok2 {
		return nil, domain.ErrTaskNotFound
	}
	return r.queryOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND member_id = $2`, tid, mid)
}

func (r *TaskRepository) FindByMember(ctx context.Context, memberID string) ([]*domain.Task, error) {
	mid, ok := parseID(memberID)
	if !ok {
		return []*domain.Task{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE member_id = $1 ORDER BY id`, mid)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	tid, ok := parseID(t.ID)
	if !ok {
		return domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET status = $2, priority = $3 WHERE id = $1`,
		tid, string(t.Status), string(t.Priority))
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete is one DELETE ... RETURNING statement, so the task is either
// removed and returned or left untouched.
func (r *TaskRepository) Delete(ctx context.Context, id, projectID string) (*domain.Task, error) {
	tid, ok1 := parseID(id)
	pid, ok2 := parseID(projectID)
	if !ok1 || !ok2 {
		return nil, domain.ErrTaskNotFound
	}
	return r.queryOne(ctx, `DELETE FROM tasks WHERE id = $1 AND project_id = $2 RETURNING `+taskColumns, tid, pid)
}

func (r *TaskRepository) StatsByManager(ctx context.Context, managerID string) (domain.TaskStats, error) {
	mid, ok := parseID(managerID)
	if !ok {
		return domain.NewTaskStats(0, 0), nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var total, inProgress int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE t.status = 'IN_PROGRESS')
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE p.manager_id = $1`, mid).Scan(&total, &inProgress)
	if err != nil {
		return domain.TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	return domain.NewTaskStats(total, inProgress), nil
}
