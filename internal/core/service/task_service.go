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

type taskService struct {
	tasks    ports.TaskRepository
	projects ports.ProjectRepository
	users    ports.UserRepository
	log      zerolog.Logger
	now      func() time.Time
}

// NewTaskService returns a TaskService implementation.
func NewTaskService(
	tasks ports.TaskRepository,
	projects ports.ProjectRepository,
	users ports.UserRepository,
	log zerolog.Logger,
) ports.TaskService {
	return &taskService{
		tasks:    tasks,
		projects: projects,
		users:    users,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns a new task to a current member of the project. Membership
// is checked here only; later updates do not re-check it.
func (s *taskService) Create(ctx context.Context, actor domain.Identity, in ports.CreateTaskInput) (*ports.TaskView, error) {
	s.log.Info().Str("project_id", in.ProjectID).Str("member_id", in.MemberID).Str("title", in.Title).
		Msg("creating task")

	p, err := ownedProject(ctx, s.projects, actor, policy.CreateTask, in.ProjectID)
	if err != nil {
		return nil, err
	}

	member, err := s.users.FindByID(ctx, in.MemberID)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.log.Warn().Str("member_id", in.MemberID).Msg("task creation failed - member not found")
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if !p.HasMember(member.ID) {
		s.log.Warn().Str("member_id", member.ID).Str("project_id", p.ID).
			Msg("task creation failed - member is not part of the project")
		return nil, domain.ErrMemberNotInProject
	}

	status, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !domain.DueDateIsFuture(in.DueDate, now) {
		return nil, domain.ErrDueDateNotFuture
	}

	created, err := s.tasks.Create(ctx, &domain.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate.UTC(),
		Status:      status,
		Priority:    priority,
		ProjectID:   p.ID,
		MemberID:    member.ID,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.log.Info().Str("task_id", created.ID).Str("project_id", p.ID).Str("member_id", member.ID).
		Msg("task created")
	return taskView(created, p.Name, member.Name), nil
}

// Delete removes a task from a project the actor owns.
func (s *taskService) Delete(ctx context.Context, actor domain.Identity, projectID, taskID string) (*ports.TaskView, error) {
	if _, err := ownedProject(ctx, s.projects, actor, policy.DeleteTask, projectID); err != nil {
		return nil, err
	}

	deleted, err := s.tasks.Delete(ctx, taskID, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			s.log.Warn().Str("task_id", taskID).Str("project_id", projectID).Msg("task deletion failed - not found")
		}
		return nil, err
	}

	s.log.Info().Str("task_id", deleted.ID).Str("project_id", projectID).Msg("task deleted")
	return &ports.TaskView{ID: deleted.ID, Title: deleted.Title}, nil
}

// MyTasks lists the tasks assigned to the actor.
func (s *taskService) MyTasks(ctx context.Context, actor domain.Identity) ([]ports.TaskView, error) {
	if err := authorize(actor, policy.ViewOwnTasks); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.FindByMember(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var memberName string
	if u, err := s.users.FindByID(ctx, actor.UserID); err == nil {
		memberName = u.Name
	}

	projectNames := make(map[string]string)
	out := make([]ports.TaskView, 0, len(tasks))
	for _, t := range tasks {
		name, ok := projectNames[t.ProjectID]
		if !ok {
			if p, err := s.projects.FindByID(ctx, t.ProjectID); err == nil {
				name = p.Name
			}
			projectNames[t.ProjectID] = name
		}
		out = append(out, *taskView(t, name, memberName))
	}

	s.log.Debug().Str("user_id", actor.UserID).Int("count", len(out)).Msg("tasks fetched")
	return out, nil
}

// UpdateStatus changes the status of a task assigned to the actor. A task
// assigned to someone else is reported as not found.
func (s *taskService) UpdateStatus(ctx context.Context, actor domain.Identity, taskID, status string) (*ports.TaskView, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, actor, taskID, func(t *domain.Task) { t.Status = next })
}

// UpdatePriority changes the priority of a task assigned to the actor.
func (s *taskService) UpdatePriority(ctx context.Context, actor domain.Identity, taskID, priority string) (*ports.TaskView, error) {
	next, err := domain.ParsePriority(priority)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, actor, taskID, func(t *domain.Task) { t.Priority = next })
}

func (s *taskService) update(ctx context.Context, actor domain.Identity, taskID string, apply func(*domain.Task)) (*ports.TaskView, error) {
	if err := authorize(actor, policy.UpdateTask); err != nil {
		return nil, err
	}

	t, err := s.tasks.FindByIDAndMember(ctx, taskID, actor.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			s.log.Warn().Str("task_id", taskID).Str("user_id", actor.UserID).Msg("task update failed - not found")
		}
		return nil, err
	}

	apply(t)
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.log.Info().Str("task_id", t.ID).Str("status", string(t.Status)).Str("priority", string(t.Priority)).
		Msg("task updated")
	return taskView(t, "", ""), nil
}

// Stats aggregates tasks over every project the actor manages.
func (s *taskService) Stats(ctx context.Context, actor domain.Identity) (domain.TaskStats, error) {
	if err := authorize(actor, policy.ViewManagerStats); err != nil {
		return domain.TaskStats{}, err
	}
	stats, err := s.tasks.StatsByManager(ctx, actor.UserID)
	if err != nil {
		return domain.TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	return stats, nil
}

func taskView(t *domain.Task, projectName, memberName string) *ports.TaskView {
	return &ports.TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      t.Status,
		Priority:    t.Priority,
		ProjectName: projectName,
		MemberName:  memberName,
	}
}
