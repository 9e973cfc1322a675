// Package policy holds the per-operation authorization rules. Every
// operation names exactly one required role; rules that also depend on
// resource ownership receive the owner through an OwnerCheck.
package policy

import "github.com/taskflow/taskflow-backend/internal/core/domain"

// Operation is a closed set of guarded actions.
type Operation int

const (
	ProvisionUser Operation = iota + 1
	CreateProject
	ListProjects
	ViewProject
	DeleteProject
	AddMembers
	ViewMembers
	CreateTask
	DeleteTask
	ViewManagerStats
	SearchAvailableMembers
	ViewOwnTasks
	UpdateTask
	ViewProfile
)

var operationNames = map[Operation]string{
	ProvisionUser:          "provision_user",
	CreateProject:          "create_project",
	ListProjects:           "list_projects",
	ViewProject:            "view_project",
	DeleteProject:          "delete_project",
	AddMembers:             "add_members",
	ViewMembers:            "view_members",
	CreateTask:             "create_task",
	DeleteTask:             "delete_task",
	ViewManagerStats:       "view_manager_stats",
	SearchAvailableMembers: "search_available_members",
	ViewOwnTasks:           "view_own_tasks",
	UpdateTask:             "update_task",
	ViewProfile:            "view_profile",
}

func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return "unknown"
}

// Decision is the outcome of evaluating a rule.
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "forbidden"
	}
}

// Err maps a decision onto the domain error surfaced to callers.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case Unauthenticated:
		return domain.ErrUnauthenticated
	default:
		return domain.ErrForbidden
	}
}

// OwnerCheck reports whether the subject owns the resource under access.
// A nil OwnerCheck means the operation has no ownership component.
type OwnerCheck func(subjectID string) bool

// OwnedBy returns an OwnerCheck matching a single owner id.
func OwnedBy(ownerID string) OwnerCheck {
	return func(subjectID string) bool {
		return ownerID != "" && ownerID == subjectID
	}
}

// RequiredRole returns the role an operation demands. ok is false for an
// operation outside the known set, which is always denied.
func RequiredRole(op Operation) (role domain.Role, anyRole bool, ok bool) {
	switch op {
	case ProvisionUser:
		return domain.RoleAdmin, false, true
	case CreateProject, ListProjects, ViewProject, DeleteProject,
		AddMembers, ViewMembers, CreateTask, DeleteTask,
		ViewManagerStats, SearchAvailableMembers:
		return domain.RoleManager, false, true
	case ViewOwnTasks, UpdateTask:
		return domain.RoleMember, false, true
	case ViewProfile:
		return "", true, true
	default:
		return "", false, false
	}
}

// Evaluate applies the rule for op to the identity. A nil identity is
// anonymous.
func Evaluate(id *domain.Identity, op Operation, owner OwnerCheck) Decision {
	if id == nil || id.UserID == "" {
		return Unauthenticated
	}

	role, anyRole, ok := RequiredRole(op)
	if !ok {
		return Forbidden
	}
	if !anyRole && id.Role != role {
		return Forbidden
	}
	if !id.Role.Valid() {
		return Forbidden
	}
	if owner != nil && !owner(id.UserID) {
		return Forbidden
	}
	return Allow
}
