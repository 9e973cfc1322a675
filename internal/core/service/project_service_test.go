package service

import (
	"context"
	"errors"
	"testing"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

func TestProjectService_Create(t *testing.T) {
	f := newFixture(t)

	view, err := f.projects.Create(context.Background(), f.manager, ports.ProjectInput{Name: " Gemini ", Description: "orbit"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.Name != "Gemini" || view.ManagerName != "manager" {
		t.Fatalf("unexpected view: %+v", view)
	}

	if _, err := f.projects.Create(context.Background(), f.memberA, ports.ProjectInput{Name: "x"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("member: expected ErrForbidden, got %v", err)
	}

	ghost := domain.Identity{UserID: "999", Role: domain.RoleManager}
	if _, err := f.projects.Create(context.Background(), ghost, ports.ProjectInput{Name: "x"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("missing manager: expected ErrUnauthenticated, got %v", err)
	}
}

func TestProjectService_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.projects.Get(ctx, f.other, f.project); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("get: expected ErrForbidden, got %v", err)
	}
	if _, err := f.projects.Members(ctx, f.other, f.project); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("members: expected ErrForbidden, got %v", err)
	}
	if err := f.projects.Delete(ctx, f.other, f.project); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("delete: expected ErrForbidden, got %v", err)
	}
	if _, err := f.projects.Get(ctx, f.manager, "404"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("get missing: expected ErrProjectNotFound, got %v", err)
	}

	got, err := f.projects.Get(ctx, f.manager, f.project)
	if err != nil || got.Name != "Apollo" || got.ManagerName != "manager" {
		t.Fatalf("unexpected project %+v (%v)", got, err)
	}
}

func TestProjectService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.projects.Create(ctx, f.other, ports.ProjectInput{Name: "Other"})

	mine, err := f.projects.List(ctx, f.manager)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != f.project {
		t.Fatalf("expected only own project, got %+v", mine)
	}
}

func TestProjectService_AddMembers_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, _ := f.projects.Members(ctx, f.manager, f.project)
	after, err := f.projects.AddMembers(ctx, f.manager, f.project, []string{f.memberA.UserID})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(after.Members) != len(before.Members) {
		t.Fatalf("expected cardinality %d, got %d", len(before.Members), len(after.Members))
	}
}

func TestProjectService_AddMembers_DropsInvalidIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.projects.AddMembers(ctx, f.manager, f.project, []string{"404", f.other.UserID, f.outsider.UserID})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(got.Members) != 3 {
		t.Fatalf("expected 3 members, got %+v", got.Members)
	}
	for _, m := range got.Members {
		if m.ID == f.other.UserID {
			t.Fatal("manager must never join a member set")
		}
	}

	_, err = f.projects.AddMembers(ctx, f.manager, f.project, []string{"404", f.other.UserID})
	if !errors.Is(err, domain.ErrNoValidMembers) {
		t.Fatalf("expected ErrNoValidMembers, got %v", err)
	}
}

func TestProjectService_CountMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second, _ := f.projects.Create(ctx, f.manager, ports.ProjectInput{Name: "Second"})
	_, _ = f.projects.AddMembers(ctx, f.manager, second.ID, []string{f.memberA.UserID, f.outsider.UserID})

	n, err := f.projects.CountMembers(ctx, f.manager)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 distinct members, got %d (%v)", n, err)
	}
}

func TestProjectService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.projects.Delete(ctx, f.manager, f.project); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.projects.Get(ctx, f.manager, f.project); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound after delete, got %v", err)
	}
}
