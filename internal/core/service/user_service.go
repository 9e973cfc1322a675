package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/policy"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// SearchLimit caps the available-members search.
const SearchLimit = 10

type userService struct {
	users    ports.UserRepository
	projects ports.ProjectRepository
	log      zerolog.Logger
}

// NewUserService returns a UserService implementation.
func NewUserService(users ports.UserRepository, projects ports.ProjectRepository, log zerolog.Logger) ports.UserService {
	return &userService{users: users, projects: projects, log: log}
}

func (s *userService) Me(ctx context.Context, actor domain.Identity) (*domain.User, error) {
	if err := authorize(actor, policy.ViewProfile); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		s.log.Warn().Str("user_id", u.ID).Msg("access denied - account inactive")
		return nil, domain.ErrAccountInactive
	}
	return u, nil
}

// SearchAvailableMembers finds active members outside the project whose
// name starts with query.
func (s *userService) SearchAvailableMembers(ctx context.Context, actor domain.Identity, projectID, query string) ([]ports.MemberView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("query", "Search query cannot be empty")
	}
	p, err := ownedProject(ctx, s.projects, actor, policy.SearchAvailableMembers, projectID)
	if err != nil {
		return nil, err
	}

	users, err := s.users.SearchAvailableMembers(ctx, p.ID, query, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search members: %w", err)
	}
	return memberViews(users), nil
}

// AvailableForTask lists project members with no open task in the project.
func (s *userService) AvailableForTask(ctx context.Context, actor domain.Identity, projectID string) ([]ports.MemberView, error) {
	p, err := ownedProject(ctx, s.projects, actor, policy.SearchAvailableMembers, projectID)
	if err != nil {
		return nil, err
	}

	users, err := s.users.FindAvailableForTask(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("available members: %w", err)
	}
	return memberViews(users), nil
}
