package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

const projectColumns = `p.id, p.name, p.description, p.manager_id, p.created_at`

type ProjectRepository struct {
	db *sql.DB
}

func scanProject(row scanner) (*domain.Project, error) {
	var (
		id, managerID int64
		p             domain.Project
	)
	if err := row.Scan(&id, &p.Name, &p.Description, &managerID, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = formatID(id)
	p.ManagerID = formatID(managerID)
	p.MemberIDs = []string{}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	managerID, ok := parseID(p.ManagerID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created := *p
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	members := parseIDs(p.MemberIDs)

	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var id int64
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO projects (name, description, manager_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			created.Name, created.Description, managerID, created.CreatedAt,
		).Scan(&id); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		created.ID = formatID(id)
		return insertMembers(ctx, tx, id, members)
	})
	if err != nil {
		return nil, mapError(err)
	}

	created.MemberIDs = make([]string, 0, len(members))
	for _, m := range members {
		created.MemberIDs = append(created.MemberIDs, formatID(m))
	}
	return &created, nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	p, err := scanProject(r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = $1`, n))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}

	if err := r.loadMembers(ctx, []*domain.Project{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepository) FindByManager(ctx context.Context, managerID string) ([]*domain.Project, error) {
	n, ok := parseID(managerID)
	if !ok {
		return []*domain.Project{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.manager_id = $1 ORDER BY p.id`, n)
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadMembers(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete relies on ON DELETE CASCADE for members and tasks.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	n, ok := parseID(id)
	if !ok {
		return domain.ErrProjectNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, n)
	if err != nil {
		return mapError(fmt.Errorf("delete project: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if affected == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// AddMembers locks the project row so concurrent additions serialise, then
// inserts each member with ON CONFLICT DO NOTHING.
func (r *ProjectRepository) AddMembers(ctx context.Context, projectID string, memberIDs []string) (*domain.Project, error) {
	n, ok := parseID(projectID)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}

	err := WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM projects WHERE id = $1 FOR UPDATE`, n).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProjectNotFound
		}
		if err != nil {
			return fmt.Errorf("lock project: %w", err)
		}
		return insertMembers(ctx, tx, n, parseIDs(memberIDs))
	})
	if err != nil {
		return nil, mapError(err)
	}
	return r.FindByID(ctx, projectID)
}

func (r *ProjectRepository) CountMembersByManager(ctx context.Context, managerID string) (int64, error) {
	n, ok := parseID(managerID)
	if !ok {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT pm.member_id)
		FROM project_members pm
		JOIN projects p ON p.id = pm.project_id
		WHERE p.manager_id = $1`, n).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

func (r *ProjectRepository) loadMembers(ctx context.Context, projects []*domain.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(projects))
	byID := make(map[string]*domain.Project, len(projects))
	for _, p := range projects {
		n, _ := parseID(p.ID)
		ids = append(ids, n)
		byID[p.ID] = p
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT project_id, member_id FROM project_members WHERE project_id = ANY($1) ORDER BY member_id`, ids)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var projectID, memberID int64
		if err := rows.Scan(&projectID, &memberID); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		if p, ok := byID[formatID(projectID)]; ok {
			p.MemberIDs = append(p.MemberIDs, formatID(memberID))
		}
	}
	return rows.Err()
}

func insertMembers(ctx context.Context, tx *sql.Tx, projectID int64, memberIDs []int64) error {
	for _, m := range memberIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_members (project_id, member_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			projectID, m,
		); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}
	return nil
}
