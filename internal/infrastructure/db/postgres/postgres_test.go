package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// passthrough lets []int64 arguments reach the mock unchanged, the way the
// pgx driver accepts them for ANY($1).
type passthrough struct{}

func (passthrough) ConvertValue(v any) (driver.Value, error) { return v, nil }

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthrough{}))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

var userRowColumns = []string{"id", "name", "email", "password_hash", "role", "active", "created_at"}

func TestMigrate_AppliesEveryStatementInOneTx(t *testing.T) {
	db, mock := newMock(t)

	stmts := schemaStatements()
	if len(stmts) < 4 {
		t.Fatalf("expected at least 4 schema statements, got %d", len(stmts))
	}

	mock.ExpectBegin()
	for _, stmt := range stmts {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	expectationsMet(t, mock)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := WithTx(context.Background(), db, nil, func(context.Context, *sql.Tx) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUserRepository_CreateMapsUniqueViolation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Users()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Ann", "ann@example.com", "hash", "MEMBER", true, sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_unique"})

	_, err := repo.Create(context.Background(), &domain.User{
		Name: "Ann", Email: " Ann@Example.com ", PasswordHash: "hash", Role: domain.RoleMember, Active: true,
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || conflict.Constraint != "users_email_unique" {
		t.Fatalf("expected conflict error, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUserRepository_CreateReturnsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Users()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	u, err := repo.Create(context.Background(), &domain.User{Name: "Ann", Email: "ann@example.com", Role: domain.RoleManager})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID != "7" || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user %+v", u)
	}
	expectationsMet(t, mock)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Users()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM users u WHERE u.email = \$1`).
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(3), "Ann", "ann@example.com", "hash", "MANAGER", true, now))

	u, err := repo.FindByEmail(context.Background(), "ANN@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.ID != "3" || u.Role != domain.RoleManager || !u.Active {
		t.Fatalf("unexpected user %+v", u)
	}
	expectationsMet(t, mock)
}

func TestUserRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Users()

	mock.ExpectQuery(`FROM users u WHERE u.id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	if _, err := repo.FindByID(context.Background(), "9"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByID(context.Background(), "abc"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for malformed id, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUserRepository_SearchEscapesPrefix(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Users()

	mock.ExpectQuery(`u.name ILIKE \$2`).
		WithArgs(int64(5), `a\%b%`, 10).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	users, err := repo.SearchAvailableMembers(context.Background(), "5", "a%b", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}
	expectationsMet(t, mock)
}

func TestProjectRepository_FindByIDLoadsMembers(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Projects()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM projects p WHERE p.id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "manager_id", "created_at"}).
			AddRow(int64(1), "Apollo", "", int64(2), now))
	mock.ExpectQuery(`FROM project_members WHERE project_id = ANY\(\$1\)`).
		WithArgs([]int64{1}).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "member_id"}).
			AddRow(int64(1), int64(4)).
			AddRow(int64(1), int64(6)))

	p, err := repo.FindByID(context.Background(), "1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if p.ManagerID != "2" || !p.HasMember("4") || !p.HasMember("6") || len(p.MemberIDs) != 2 {
		t.Fatalf("unexpected project %+v", p)
	}
	expectationsMet(t, mock)
}

func TestProjectRepository_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Projects()

	mock.ExpectExec(`DELETE FROM projects WHERE id = \$1`).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "8"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestProjectRepository_AddMembersMissingProjectRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Projects()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM projects WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	if _, err := repo.AddMembers(context.Background(), "3", []string{"4"}); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestTaskRepository_DeleteReturnsRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Tasks()
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`DELETE FROM tasks WHERE id = \$1 AND project_id = \$2 RETURNING`).
		WithArgs(int64(10), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "due_date", "status", "priority", "project_id", "member_id", "created_at"}).
			AddRow(int64(10), "Write docs", "", due, "TODO", "HIGH", int64(1), int64(4), due))

	task, err := repo.Delete(context.Background(), "10", "1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if task.ID != "10" || task.Status != domain.StatusTodo || task.Priority != domain.PriorityHigh || task.MemberID != "4" {
		t.Fatalf("unexpected task %+v", task)
	}
	expectationsMet(t, mock)
}

func TestTaskRepository_CreateMapsForeignKeyViolation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Tasks()

	mock.ExpectQuery(`INSERT INTO tasks`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "tasks_project_id_fkey"})

	_, err := repo.Create(context.Background(), &domain.Task{ProjectID: "1", MemberID: "2", Title: "t"})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || conflict.Constraint != "tasks_project_id_fkey" {
		t.Fatalf("expected conflict error, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestTaskRepository_UpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Tasks()

	mock.ExpectExec(`UPDATE tasks SET status = \$2, priority = \$3 WHERE id = \$1`).
		WithArgs(int64(5), "DONE", "LOW").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.Task{ID: "5", Status: domain.StatusDone, Priority: domain.PriorityLow})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestTaskRepository_StatsByManager(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStore(db).Tasks()

	mock.ExpectQuery(`FILTER \(WHERE t.status = 'IN_PROGRESS'\)`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "in_progress"}).AddRow(int64(3), int64(2)))

	stats, err := repo.StatsByManager(context.Background(), "2")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTasks != 3 || stats.TasksInProgress != 2 || stats.InProgressPercentage != 66.67 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	expectationsMet(t, mock)
}

func TestParseIDs(t *testing.T) {
	got := parseIDs([]string{"3", "x", "3", "-1", "0", "12"})
	if len(got) != 2 || got[0] != 3 || got[1] != 12 {
		t.Fatalf("unexpected ids %v", got)
	}
}
