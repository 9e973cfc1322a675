package service

import (
	"context"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/policy"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// authorize applies a rule with no ownership component.
func authorize(actor domain.Identity, op policy.Operation) error {
	return policy.Evaluate(&actor, op, nil).Err()
}

// ownedProject loads a project and checks that actor may perform op on it.
// A missing project is reported before ownership.
func ownedProject(ctx context.Context, projects ports.ProjectRepository, actor domain.Identity, op policy.Operation, projectID string) (*domain.Project, error) {
	if err := authorize(actor, op); err != nil {
		return nil, err
	}
	p, err := projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(&actor, op, policy.OwnedBy(p.ManagerID)).Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func memberViews(users []*domain.User) []ports.MemberView {
	out := make([]ports.MemberView, 0, len(users))
	for _, u := range users {
		out = append(out, ports.MemberView{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return out
}
