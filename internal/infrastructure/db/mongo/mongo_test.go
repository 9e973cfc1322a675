package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

func TestObjectIDs_DropsMalformedAndDuplicates(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	got := objectIDs([]string{a.Hex(), "42", b.Hex(), a.Hex(), ""})
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("unexpected ids: %v", got)
	}
	if hex := hexIDs(got); hex[0] != a.Hex() || hex[1] != b.Hex() {
		t.Fatalf("unexpected hex ids: %v", hex)
	}
}

func TestScopedFilter(t *testing.T) {
	id := primitive.NewObjectID()
	scope := primitive.NewObjectID()

	f, ok := scopedFilter(id.Hex(), "member_id", scope.Hex())
	if !ok || f["_id"] != id || f["member_id"] != scope {
		t.Fatalf("unexpected filter %v", f)
	}
	if _, ok := scopedFilter("bad", "member_id", scope.Hex()); ok {
		t.Fatal("expected malformed id to be rejected")
	}
	if _, ok := scopedFilter(id.Hex(), "member_id", "bad"); ok {
		t.Fatal("expected malformed scope to be rejected")
	}
}

func TestDocConversions(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mgr := primitive.NewObjectID()
	member := primitive.NewObjectID()

	p := (&projectDoc{ID: primitive.NewObjectID(), Name: "p", ManagerID: mgr, MemberIDs: []primitive.ObjectID{member}, CreatedAt: now}).toDomain()
	if p.ManagerID != mgr.Hex() || !p.HasMember(member.Hex()) {
		t.Fatalf("unexpected project %+v", p)
	}

	task := (&taskDoc{ID: primitive.NewObjectID(), Status: "IN_PROGRESS", Priority: "LOW", MemberID: member}).toDomain()
	if task.Status != domain.StatusInProgress || task.Priority != domain.PriorityLow || task.MemberID != member.Hex() {
		t.Fatalf("unexpected task %+v", task)
	}

	u := (&userDoc{ID: member, Role: "MEMBER", Active: true}).toDomain()
	if u.Role != domain.RoleMember || !u.Active {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestOpenStatuses(t *testing.T) {
	got := openStatuses()
	if len(got) != 2 || got[0] != "TODO" || got[1] != "IN_PROGRESS" {
		t.Fatalf("unexpected open statuses %v", got)
	}
}
