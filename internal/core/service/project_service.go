package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/policy"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

type projectService struct {
	projects ports.ProjectRepository
	users    ports.UserRepository
	log      zerolog.Logger
}

// NewProjectService returns a ProjectService implementation.
func NewProjectService(projects ports.ProjectRepository, users ports.UserRepository, log zerolog.Logger) ports.ProjectService {
	return &projectService{projects: projects, users: users, log: log}
}

func (s *projectService) Create(ctx context.Context, actor domain.Identity, in ports.ProjectInput) (*ports.ProjectView, error) {
	if err := authorize(actor, policy.CreateProject); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", actor.UserID).Str("name", in.Name).Msg("creating project")

	manager, err := s.users.FindByID(ctx, actor.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.log.Error().Str("user_id", actor.UserID).Msg("project creation failed - manager not found")
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	created, err := s.projects.Create(ctx, &domain.Project{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ManagerID:   manager.ID,
		MemberIDs:   []string{},
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.log.Info().Str("project_id", created.ID).Str("user_id", manager.ID).Msg("project created")
	return &ports.ProjectView{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		ManagerName: manager.Name,
	}, nil
}

func (s *projectService) List(ctx context.Context, actor domain.Identity) ([]ports.ProjectView, error) {
	if err := authorize(actor, policy.ListProjects); err != nil {
		return nil, err
	}
	manager, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects, err := s.projects.FindByManager(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := make([]ports.ProjectView, 0, len(projects))
	for _, p := range projects {
		out = append(out, ports.ProjectView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			ManagerName: manager.Name,
		})
	}
	s.log.Debug().Str("user_id", actor.UserID).Int("count", len(out)).Msg("projects fetched")
	return out, nil
}

func (s *projectService) Get(ctx context.Context, actor domain.Identity, projectID string) (*ports.ProjectView, error) {
	p, err := ownedProject(ctx, s.projects, actor, policy.ViewProject, projectID)
	if err != nil {
		return nil, err
	}

	view := &ports.ProjectView{ID: p.ID, Name: p.Name, Description: p.Description}
	if manager, err := s.users.FindByID(ctx, p.ManagerID); err == nil {
		view.ManagerName = manager.Name
	}
	return view, nil
}

func (s *projectService) Delete(ctx context.Context, actor domain.Identity, projectID string) error {
	if _, err := ownedProject(ctx, s.projects, actor, policy.DeleteProject, projectID); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.log.Info().Str("project_id", projectID).Str("user_id", actor.UserID).Msg("project deleted")
	return nil
}

// AddMembers unions the MEMBER-role users among memberIDs into the project.
// Unknown ids and users of other roles are skipped.
func (s *projectService) AddMembers(ctx context.Context, actor domain.Identity, projectID string, memberIDs []string) (*ports.ProjectMembers, error) {
	p, err := ownedProject(ctx, s.projects, actor, policy.AddMembers, projectID)
	if err != nil {
		return nil, err
	}

	found, err := s.users.FindByIDs(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("add members: %w", err)
	}

	valid := make([]string, 0, len(found))
	for _, u := range found {
		if u.Role != domain.RoleMember {
			s.log.Warn().Str("project_id", p.ID).Str("user_id", u.ID).Str("role", u.Role.String()).
				Msg("skipping non-member user")
			continue
		}
		valid = append(valid, u.ID)
	}
	if skipped := len(memberIDs) - len(valid); skipped > 0 {
		s.log.Warn().Str("project_id", p.ID).Int("skipped", skipped).Msg("some member ids were not added")
	}
	if len(valid) == 0 {
		return nil, domain.ErrNoValidMembers
	}

	updated, err := s.projects.AddMembers(ctx, p.ID, valid)
	if err != nil {
		return nil, fmt.Errorf("add members: %w", err)
	}

	s.log.Info().Str("project_id", p.ID).Int("added", len(valid)).Msg("members added")
	return s.membersOf(ctx, updated)
}

func (s *projectService) Members(ctx context.Context, actor domain.Identity, projectID string) (*ports.ProjectMembers, error) {
	p, err := ownedProject(ctx, s.projects, actor, policy.ViewMembers, projectID)
	if err != nil {
		return nil, err
	}
	return s.membersOf(ctx, p)
}

func (s *projectService) CountMembers(ctx context.Context, actor domain.Identity) (int64, error) {
	if err := authorize(actor, policy.ViewManagerStats); err != nil {
		return 0, err
	}
	n, err := s.projects.CountMembersByManager(ctx, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

func (s *projectService) membersOf(ctx context.Context, p *domain.Project) (*ports.ProjectMembers, error) {
	users, err := s.users.FindByIDs(ctx, p.MemberIDs)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	return &ports.ProjectMembers{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Members:     memberViews(users),
	}, nil
}
