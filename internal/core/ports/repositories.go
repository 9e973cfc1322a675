package ports

import (
	"context"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// UserRepository defines persistence operations for accounts.
// Lookups of a missing user return domain.ErrUserNotFound.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// FindByIDs returns the users that exist among ids, ordered by id.
	// Unknown and malformed ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	// Create assigns the id. A duplicate email yields *domain.ConflictError.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Count(ctx context.Context) (int64, error)

	// SearchAvailableMembers returns active MEMBER users whose name starts
	// with prefix (case-insensitive) and who are not in the project,
	// ordered by id and capped at limit.
	SearchAvailableMembers(ctx context.Context, projectID, prefix string, limit int) ([]*domain.User, error)
	// FindAvailableForTask returns active MEMBER users of the project that
	// hold no open task in it, ordered by id.
	FindAvailableForTask(ctx context.Context, projectID string) ([]*domain.User, error)
}

// ProjectRepository defines persistence operations for projects and their
// member sets. Lookups of a missing project return domain.ErrProjectNotFound.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) (*domain.Project, error)
	FindByID(ctx context.Context, id string) (*domain.Project, error)
	FindByManager(ctx context.Context, managerID string) ([]*domain.Project, error)
	// Delete removes the project together with its tasks.
	Delete(ctx context.Context, id string) error
	// AddMembers unions memberIDs into the member set. Ids already present
	// are left alone.
	AddMembers(ctx context.Context, projectID string, memberIDs []string) (*domain.Project, error)
	// CountMembersByManager counts distinct members across every project
	// the manager owns.
	CountMembersByManager(ctx context.Context, managerID string) (int64, error)
}

// TaskRepository defines persistence operations for tasks. Lookups of a
// missing task return domain.ErrTaskNotFound.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByIDAndProject(ctx context.Context, id, projectID string) (*domain.Task, error)
	FindByIDAndMember(ctx context.Context, id, memberID string) (*domain.Task, error)
	FindByMember(ctx context.Context, memberID string) ([]*domain.Task, error)
	// Update persists status and priority.
	Update(ctx context.Context, task *domain.Task) error
	// Delete removes the task scoped to its project in a single atomic
	// step and returns what was removed.
	Delete(ctx context.Context, id, projectID string) (*domain.Task, error)
	// StatsByManager aggregates tasks across the manager's projects.
	StatsByManager(ctx context.Context, managerID string) (domain.TaskStats, error)
}
