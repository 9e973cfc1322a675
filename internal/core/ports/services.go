package ports

import (
	"context"
	"time"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// RegisterInput carries the data needed to provision an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	User  *domain.User
	Token string
	// MaxAge is the token lifetime, used for the session cookie.
	MaxAge time.Duration
}

// AuthService implements the session lifecycle and account provisioning.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
}

// ProjectInput holds the fields of a new project.
type ProjectInput struct {
	Name        string
	Description string
}

// ProjectView is the caller-facing representation of a project.
type ProjectView struct {
	ID          string
	Name        string
	Description string
	ManagerName string
}

// MemberView is the public profile of a project member.
type MemberView struct {
	ID    string
	Name  string
	Email string
}

// ProjectMembers lists a project's member set.
type ProjectMembers struct {
	ProjectID   string
	ProjectName string
	Members     []MemberView
}

// ProjectService defines the manager-facing project use cases. Every call
// that names a project checks that actor owns it.
type ProjectService interface {
	Create(ctx context.Context, actor domain.Identity, input ProjectInput) (*ProjectView, error)
	List(ctx context.Context, actor domain.Identity) ([]ProjectView, error)
	Get(ctx context.Context, actor domain.Identity, projectID string) (*ProjectView, error)
	Delete(ctx context.Context, actor domain.Identity, projectID string) error
	AddMembers(ctx context.Context, actor domain.Identity, projectID string, memberIDs []string) (*ProjectMembers, error)
	Members(ctx context.Context, actor domain.Identity, projectID string) (*ProjectMembers, error)
	CountMembers(ctx context.Context, actor domain.Identity) (int64, error)
}

// CreateTaskInput carries a task assignment request.
type CreateTaskInput struct {
	ProjectID   string
	MemberID    string
	Title       string
	Description string
	DueDate     time.Time
	Status      string
	Priority    string
}

// TaskView is the caller-facing representation of a task.
type TaskView struct {
	ID          string
	Title       string
	Description string
	DueDate     time.Time
	Status      domain.TaskStatus
	Priority    domain.Priority
	ProjectName string
	MemberName  string
}

// TaskService defines task assignment and execution use cases.
type TaskService interface {
	Create(ctx context.Context, actor domain.Identity, input CreateTaskInput) (*TaskView, error)
	Delete(ctx context.Context, actor domain.Identity, projectID, taskID string) (*TaskView, error)
	MyTasks(ctx context.Context, actor domain.Identity) ([]TaskView, error)
	UpdateStatus(ctx context.Context, actor domain.Identity, taskID, status string) (*TaskView, error)
	UpdatePriority(ctx context.Context, actor domain.Identity, taskID, priority string) (*TaskView, error)
	Stats(ctx context.Context, actor domain.Identity) (domain.TaskStats, error)
}

// UserService defines profile and member search use cases.
type UserService interface {
	Me(ctx context.Context, actor domain.Identity) (*domain.User, error)
	SearchAvailableMembers(ctx context.Context, actor domain.Identity, projectID, query string) ([]MemberView, error)
	AvailableForTask(ctx context.Context, actor domain.Identity, projectID string) ([]MemberView, error)
}
