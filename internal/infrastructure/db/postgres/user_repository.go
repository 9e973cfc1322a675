package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

const userColumns = `u.id, u.name, u.email, u.password_hash, u.role, u.active, u.created_at`

type UserRepository struct {
	db *sql.DB
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		id   int64
		u    domain.User
		role string
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ID = formatID(id)
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (r *UserRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, n)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, domain.NormalizeEmail(email))
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, domain.NormalizeEmail(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	ns := parseIDs(ids)
	if len(ns) == 0 {
		return []*domain.User{}, nil
	}
	return r.queryMany(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ANY($1) ORDER BY u.id`, ns)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created := *user
	created.Email = domain.NormalizeEmail(user.Email)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		created.Name, created.Email, created.PasswordHash, created.Role.String(), created.Active, created.CreatedAt,
	).Scan(&id)
	if err != nil {
		return nil, mapError(fmt.Errorf("insert user: %w", err))
	}
	created.ID = formatID(id)
	return &created, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) SearchAvailableMembers(ctx context.Context, projectID, prefix string, limit int) ([]*domain.User, error) {
	pid, _ := parseID(projectID)
	if limit <= 0 {
		limit = 10
	}
	return r.queryMany(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE u.role = 'MEMBER'
		  AND u.active
		  AND u.name ILIKE $2
		  AND NOT EXISTS (
		      SELECT 1 FROM project_members pm
		      WHERE pm.project_id = $1 AND pm.member_id = u.id)
		ORDER BY u.id
		LIMIT $3`,
		pid, escapeLike(prefix)+"%", limit)
}

func (r *UserRepository) FindAvailableForTask(ctx context.Context, projectID string) ([]*domain.User, error) {
	pid, ok := parseID(projectID)
	if !ok {
		return []*domain.User{}, nil
	}
	return r.queryMany(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN project_members pm ON pm.member_id = u.id AND pm.project_id = $1
		WHERE u.role = 'MEMBER'
		  AND u.active
		  AND NOT EXISTS (
		      SELECT 1 FROM tasks t
		      WHERE t.project_id = $1
		        AND t.member_id = u.id
		        AND t.status IN ('TODO', 'IN_PROGRESS'))
		ORDER BY u.id`,
		pid)
}
