package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/db/memory"
)

type fixture struct {
	store    *memory.Store
	projects ports.ProjectService
	tasks    *taskService
	users    ports.UserService

	manager  domain.Identity
	other    domain.Identity
	memberA  domain.Identity
	memberB  domain.Identity
	outsider domain.Identity
	project  string
}

func seed(t *testing.T, store *memory.Store, name string, role domain.Role, active bool) domain.Identity {
	t.Helper()
	u, err := store.Users().Create(context.Background(), &domain.User{
		Name: name, Email: name + "@example.com", Role: role, Active: active,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return domain.Identity{UserID: u.ID, Role: u.Role}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		projects: NewProjectService(store.Projects(), store.Users(), zerolog.Nop()),
		tasks: &taskService{
			tasks:    store.Tasks(),
			projects: store.Projects(),
			users:    store.Users(),
			log:      zerolog.Nop(),
			now:      func() time.Time { return testNow },
		},
		users: NewUserService(store.Users(), store.Projects(), zerolog.Nop()),
	}
	f.manager = seed(t, store, "manager", domain.RoleManager, true)
	f.other = seed(t, store, "othermgr", domain.RoleManager, true)
	f.memberA = seed(t, store, "alice", domain.RoleMember, true)
	f.memberB = seed(t, store, "bob", domain.RoleMember, true)
	f.outsider = seed(t, store, "oscar", domain.RoleMember, true)

	ctx := context.Background()
	p, err := f.projects.Create(ctx, f.manager, ports.ProjectInput{Name: "Apollo", Description: "moon"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	f.project = p.ID
	if _, err := f.projects.AddMembers(ctx, f.manager, p.ID, []string{f.memberA.UserID, f.memberB.UserID}); err != nil {
		t.Fatalf("add members: %v", err)
	}
	return f
}

func (f *fixture) taskInput(memberID string) ports.CreateTaskInput {
	return ports.CreateTaskInput{
		ProjectID:   f.project,
		MemberID:    memberID,
		Title:       "Write report",
		Description: "quarterly",
		DueDate:     testNow.AddDate(0, 0, 3),
		Status:      "todo",
		Priority:    "High",
	}
}

func TestTaskService_Create_AssignsProjectMember(t *testing.T) {
	f := newFixture(t)

	view, err := f.tasks.Create(context.Background(), f.manager, f.taskInput(f.memberA.UserID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.Status != domain.StatusTodo || view.Priority != domain.PriorityHigh {
		t.Fatalf("expected normalized status/priority, got %s/%s", view.Status, view.Priority)
	}
	if view.ProjectName != "Apollo" || view.MemberName != "alice" {
		t.Fatalf("unexpected names: %+v", view)
	}

	stored, err := f.store.Tasks().FindByIDAndMember(context.Background(), view.ID, f.memberA.UserID)
	if err != nil {
		t.Fatalf("expected task assigned to member A: %v", err)
	}
	if stored.MemberID != f.memberA.UserID {
		t.Fatalf("expected member %s, got %s", f.memberA.UserID, stored.MemberID)
	}
}

func TestTaskService_Create_RejectsNonMember(t *testing.T) {
	f := newFixture(t)

	_, err := f.tasks.Create(context.Background(), f.manager, f.taskInput(f.outsider.UserID))
	if !errors.Is(err, domain.ErrMemberNotInProject) {
		t.Fatalf("expected ErrMemberNotInProject, got %v", err)
	}
}

func TestTaskService_Create_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.taskInput("404")
	if _, err := f.tasks.Create(ctx, f.manager, in); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Fatalf("unknown member: expected ErrMemberNotFound, got %v", err)
	}

	in = f.taskInput(f.memberA.UserID)
	in.ProjectID = "404"
	if _, err := f.tasks.Create(ctx, f.manager, in); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("unknown project: expected ErrProjectNotFound, got %v", err)
	}

	in = f.taskInput(f.memberA.UserID)
	if _, err := f.tasks.Create(ctx, f.other, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign manager: expected ErrForbidden, got %v", err)
	}
	if _, err := f.tasks.Create(ctx, f.memberA, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("member role: expected ErrForbidden, got %v", err)
	}

	in.Status = "finished"
	if _, err := f.tasks.Create(ctx, f.manager, in); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("bad status: expected ErrInvalidStatus, got %v", err)
	}

	in = f.taskInput(f.memberA.UserID)
	in.Priority = "urgent"
	if _, err := f.tasks.Create(ctx, f.manager, in); !errors.Is(err, domain.ErrInvalidPriority) {
		t.Fatalf("bad priority: expected ErrInvalidPriority, got %v", err)
	}

	in = f.taskInput(f.memberA.UserID)
	in.DueDate = testNow
	if _, err := f.tasks.Create(ctx, f.manager, in); !errors.Is(err, domain.ErrDueDateNotFuture) {
		t.Fatalf("due today: expected ErrDueDateNotFuture, got %v", err)
	}
}

func TestTaskService_UpdateStatus_ScopedToAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, _ := f.tasks.Create(ctx, f.manager, f.taskInput(f.memberA.UserID))

	if _, err := f.tasks.UpdateStatus(ctx, f.memberB, task.ID, "DONE"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("other member: expected ErrTaskNotFound, got %v", err)
	}

	view, err := f.tasks.UpdateStatus(ctx, f.memberA, task.ID, "in_progress")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if view.Status != domain.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", view.Status)
	}

	// any transition is allowed
	if _, err := f.tasks.UpdateStatus(ctx, f.memberA, task.ID, "todo"); err != nil {
		t.Fatalf("move back to TODO: %v", err)
	}

	if _, err := f.tasks.UpdateStatus(ctx, f.memberA, task.ID, "bogus"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := f.tasks.UpdateStatus(ctx, f.manager, task.ID, "DONE"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("manager: expected ErrForbidden, got %v", err)
	}
}

func TestTaskService_UpdatePriority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, _ := f.tasks.Create(ctx, f.manager, f.taskInput(f.memberA.UserID))

	view, err := f.tasks.UpdatePriority(ctx, f.memberA, task.ID, "low")
	if err != nil || view.Priority != domain.PriorityLow {
		t.Fatalf("expected LOW, got %+v (%v)", view, err)
	}
	if _, err := f.tasks.UpdatePriority(ctx, f.memberB, task.ID, "HIGH"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskService_MyTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.tasks.Create(ctx, f.manager, f.taskInput(f.memberA.UserID))
	_, _ = f.tasks.Create(ctx, f.manager, f.taskInput(f.memberB.UserID))

	got, err := f.tasks.MyTasks(ctx, f.memberA)
	if err != nil {
		t.Fatalf("my tasks: %v", err)
	}
	if len(got) != 1 || got[0].ProjectName != "Apollo" {
		t.Fatalf("unexpected tasks: %+v", got)
	}

	empty, err := f.tasks.MyTasks(ctx, f.outsider)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no tasks, got %+v (%v)", empty, err)
	}
}

func TestTaskService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, _ := f.tasks.Create(ctx, f.manager, f.taskInput(f.memberA.UserID))

	if _, err := f.tasks.Delete(ctx, f.other, f.project, task.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign manager: expected ErrForbidden, got %v", err)
	}

	deleted, err := f.tasks.Delete(ctx, f.manager, f.project, task.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.ID != task.ID || deleted.Title != "Write report" {
		t.Fatalf("unexpected deleted view: %+v", deleted)
	}

	if _, err := f.tasks.Delete(ctx, f.manager, f.project, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("second delete: expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stats, err := f.tasks.Stats(ctx, f.manager)
	if err != nil || stats.TotalTasks != 0 || stats.InProgressPercentage != 0 {
		t.Fatalf("expected empty stats, got %+v (%v)", stats, err)
	}

	task, _ := f.tasks.Create(ctx, f.manager, f.taskInput(f.memberA.UserID))
	_, _ = f.tasks.UpdateStatus(ctx, f.memberA, task.ID, "IN_PROGRESS")

	stats, err = f.tasks.Stats(ctx, f.manager)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTasks != 1 || stats.TasksInProgress != 1 || stats.InProgressPercentage != 100.0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if _, err := f.tasks.Stats(ctx, f.memberA); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("member: expected ErrForbidden, got %v", err)
	}
}
