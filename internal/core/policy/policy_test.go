package policy

import (
	"errors"
	"testing"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

func identity(id string, role domain.Role) *domain.Identity {
	return &domain.Identity{UserID: id, Role: role}
}

func TestEvaluate_RoleMatrix(t *testing.T) {
	cases := []struct {
		op   Operation
		role domain.Role
		want Decision
	}{
		{ProvisionUser, domain.RoleAdmin, Allow},
		{ProvisionUser, domain.RoleManager, Forbidden},
		{ProvisionUser, domain.RoleMember, Forbidden},
		{CreateProject, domain.RoleManager, Allow},
		{CreateProject, domain.RoleAdmin, Forbidden},
		{CreateTask, domain.RoleMember, Forbidden},
		{DeleteTask, domain.RoleManager, Allow},
		{ViewManagerStats, domain.RoleManager, Allow},
		{SearchAvailableMembers, domain.RoleMember, Forbidden},
		{ViewOwnTasks, domain.RoleMember, Allow},
		{ViewOwnTasks, domain.RoleManager, Forbidden},
		{UpdateTask, domain.RoleMember, Allow},
		{UpdateTask, domain.RoleAdmin, Forbidden},
		{ViewProfile, domain.RoleAdmin, Allow},
		{ViewProfile, domain.RoleManager, Allow},
		{ViewProfile, domain.RoleMember, Allow},
	}
	for _, tc := range cases {
		got := Evaluate(identity("u1", tc.role), tc.op, nil)
		if got != tc.want {
			t.Errorf("%s as %s: expected %s, got %s", tc.op, tc.role, tc.want, got)
		}
	}
}

func TestEvaluate_Anonymous(t *testing.T) {
	for op := range operationNames {
		if got := Evaluate(nil, op, nil); got != Unauthenticated {
			t.Errorf("%s: expected unauthenticated, got %s", op, got)
		}
	}
	if got := Evaluate(&domain.Identity{Role: domain.RoleAdmin}, ProvisionUser, nil); got != Unauthenticated {
		t.Errorf("identity without subject: expected unauthenticated, got %s", got)
	}
}

func TestEvaluate_UnknownOperationDenied(t *testing.T) {
	if got := Evaluate(identity("u1", domain.RoleAdmin), Operation(999), nil); got != Forbidden {
		t.Fatalf("expected forbidden, got %s", got)
	}
}

func TestEvaluate_UnknownRoleDenied(t *testing.T) {
	if got := Evaluate(identity("u1", domain.Role("ROOT")), ViewProfile, nil); got != Forbidden {
		t.Fatalf("expected forbidden, got %s", got)
	}
}

func TestEvaluate_Ownership(t *testing.T) {
	mgr := identity("m1", domain.RoleManager)

	if got := Evaluate(mgr, DeleteProject, OwnedBy("m1")); got != Allow {
		t.Fatalf("owner: expected allow, got %s", got)
	}
	if got := Evaluate(mgr, DeleteProject, OwnedBy("m2")); got != Forbidden {
		t.Fatalf("non-owner: expected forbidden, got %s", got)
	}
	if got := Evaluate(mgr, DeleteProject, OwnedBy("")); got != Forbidden {
		t.Fatalf("unowned resource: expected forbidden, got %s", got)
	}

	// role mismatch wins over ownership
	member := identity("m1", domain.RoleMember)
	if got := Evaluate(member, DeleteProject, OwnedBy("m1")); got != Forbidden {
		t.Fatalf("member owning id: expected forbidden, got %s", got)
	}
}

func TestDecision_Err(t *testing.T) {
	if Allow.Err() != nil {
		t.Fatal("allow must map to nil")
	}
	if !errors.Is(Unauthenticated.Err(), domain.ErrUnauthenticated) {
		t.Fatal("unauthenticated must map to ErrUnauthenticated")
	}
	if !errors.Is(Forbidden.Err(), domain.ErrForbidden) {
		t.Fatal("forbidden must map to ErrForbidden")
	}
}
