package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskflow/taskflow-backend/internal/core/service"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/db/memory"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/http/handlers"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	StatusCode int             `json:"statusCode"`
}

type testServer struct {
	t *testing.T
	e *echo.Echo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()

	codec, err := security.NewJWTCodec(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	auth := service.NewAuthService(store.Users(), security.NewBcryptHasher(bcrypt.MinCost), codec, log)
	if _, err := auth.EnsureAdmin(context.Background(), "Admin", "admin@taskflow.com", "Admin@123"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	reg := prometheus.NewRegistry()
	e, err := NewRouter(Deps{
		Auth:          auth,
		Projects:      service.NewProjectService(store.Projects(), store.Users(), log),
		Tasks:         service.NewTaskService(store.Tasks(), store.Projects(), store.Users(), log),
		Users:         service.NewUserService(store.Users(), store.Projects(), log),
		UserRepo:      store.Users(),
		Codec:         codec,
		Log:           log,
		AuthRateLimit: 1000,
		Health:        map[string]handlers.Pinger{"memory": store},
		Registerer:    reg,
		Gatherer:      reg,
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return &testServer{t: t, e: e}
}

// do sends a request carrying token as a Bearer header when non-empty.
func (s *testServer) do(method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func (s *testServer) login(email, password string) (token, id string) {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"`+email+`","password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: status %d %s", email, rec.Code, rec.Body.String())
	}
	var data struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	mustDecode(s.t, env.Data, &data)
	return data.Token, data.ID
}

func (s *testServer) register(adminToken, name, email, role string) string {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/admin/register", adminToken,
		`{"name":"`+name+`","email":"`+email+`","password":"secret1","role":"`+role+`"}`)
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d %s", email, rec.Code, rec.Body.String())
	}
	var data struct {
		ID string `json:"id"`
	}
	mustDecode(s.t, env.Data, &data)
	return data.ID
}

func mustDecode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestRouter_ProjectAndTaskLifecycle(t *testing.T) {
	s := newTestServer(t)

	adminToken, _ := s.login("admin@taskflow.com", "Admin@123")
	s.register(adminToken, "Maria Manager", "maria@example.com", "MANAGER")
	annID := s.register(adminToken, "Ann", "ann@example.com", "MEMBER")
	benID := s.register(adminToken, "Ben", "ben@example.com", "MEMBER")

	managerToken, _ := s.login("maria@example.com", "secret1")
	annToken, _ := s.login("ann@example.com", "secret1")

	// create project
	rec, env := s.do(http.MethodPost, "/api/v1/managers/projects", managerToken,
		`{"name":"Apollo","description":"Moon"}`)
	expectStatus(t, rec, http.StatusCreated)
	var project struct {
		ID          string `json:"id"`
		ManagerName string `json:"managerName"`
	}
	mustDecode(t, env.Data, &project)
	if project.ManagerName != "Maria Manager" {
		t.Fatalf("unexpected manager name %q", project.ManagerName)
	}

	// add members
	rec, env = s.do(http.MethodPost, "/api/v1/managers/projects/"+project.ID+"/members", managerToken,
		`{"memberIds":["`+annID+`","`+benID+`"]}`)
	expectStatus(t, rec, http.StatusOK)
	var members struct {
		Members []struct {
			ID string `json:"id"`
		} `json:"members"`
	}
	mustDecode(t, env.Data, &members)
	if len(members.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members.Members))
	}

	rec, env = s.do(http.MethodGet, "/api/v1/managers/projects/members", managerToken, "")
	expectStatus(t, rec, http.StatusOK)
	if string(env.Data) != "2" {
		t.Fatalf("expected member count 2, got %s", env.Data)
	}

	// create task for Ann
	rec, env = s.do(http.MethodPost, "/api/v1/managers/projects/"+project.ID+"/tasks", managerToken,
		`{"memberId":"`+annID+`","taskTitle":"Write docs","dueDate":"2026-12-01","status":"TODO","priority":"MEDIUM"}`)
	expectStatus(t, rec, http.StatusCreated)
	var task struct {
		ID         string `json:"id"`
		AssignedTo string `json:"assignedTo"`
	}
	mustDecode(t, env.Data, &task)
	if task.AssignedTo != "Ann" {
		t.Fatalf("unexpected assignee %q", task.AssignedTo)
	}

	// Ann is busy, only Ben is available for a new task
	rec, env = s.do(http.MethodGet, "/api/v1/users/projects/"+project.ID+"/tasks/available-members", managerToken, "")
	expectStatus(t, rec, http.StatusOK)
	var available []struct {
		ID string `json:"id"`
	}
	mustDecode(t, env.Data, &available)
	if len(available) != 1 || available[0].ID != benID {
		t.Fatalf("expected only Ben available, got %s", env.Data)
	}

	// Ann sees and updates her task
	rec, env = s.do(http.MethodGet, "/api/v1/members/tasks/my", annToken, "")
	expectStatus(t, rec, http.StatusOK)

	rec, env = s.do(http.MethodPatch, "/api/v1/members/tasks/"+task.ID+"/status?status=IN_PROGRESS", annToken, "")
	expectStatus(t, rec, http.StatusOK)
	if env.Message != "Task status updated to IN_PROGRESS." {
		t.Fatalf("unexpected message %q", env.Message)
	}

	rec, env = s.do(http.MethodGet, "/api/v1/managers/projects/tasks/stats", managerToken, "")
	expectStatus(t, rec, http.StatusOK)
	var stats struct {
		TotalTasks           int64   `json:"totalTasks"`
		TasksInProgress      int64   `json:"tasksInProgress"`
		InProgressPercentage float64 `json:"inProgressPercentage"`
	}
	mustDecode(t, env.Data, &stats)
	if stats.TotalTasks != 1 || stats.TasksInProgress != 1 || stats.InProgressPercentage != 100 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	// delete task then project
	rec, _ = s.do(http.MethodDelete, "/api/v1/managers/projects/"+project.ID+"/tasks/"+task.ID, managerToken, "")
	expectStatus(t, rec, http.StatusOK)

	rec, env = s.do(http.MethodDelete, "/api/v1/managers/projects/"+project.ID+"/tasks/"+task.ID, managerToken, "")
	expectStatus(t, rec, http.StatusNotFound)
	if env.Message != "Task not found for this project." {
		t.Fatalf("unexpected message %q", env.Message)
	}

	rec, _ = s.do(http.MethodDelete, "/api/v1/managers/projects/"+project.ID, managerToken, "")
	expectStatus(t, rec, http.StatusOK)
	rec, _ = s.do(http.MethodGet, "/api/v1/managers/projects/"+project.ID, managerToken, "")
	expectStatus(t, rec, http.StatusNotFound)
}

func TestRouter_AccessControl(t *testing.T) {
	s := newTestServer(t)

	adminToken, _ := s.login("admin@taskflow.com", "Admin@123")
	s.register(adminToken, "Maria", "maria@example.com", "MANAGER")
	s.register(adminToken, "Mark", "mark@example.com", "MANAGER")
	s.register(adminToken, "Ann", "ann@example.com", "MEMBER")

	maria, _ := s.login("maria@example.com", "secret1")
	mark, _ := s.login("mark@example.com", "secret1")
	ann, _ := s.login("ann@example.com", "secret1")

	t.Run("no token", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, "/api/v1/managers/projects", "", "")
		expectStatus(t, rec, http.StatusUnauthorized)
		if env.Success {
			t.Fatal("expected success=false")
		}
	})

	t.Run("tampered token", func(t *testing.T) {
		rec, _ := s.do(http.MethodGet, "/api/v1/users/me", maria+"x", "")
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("member cannot manage projects", func(t *testing.T) {
		rec, _ := s.do(http.MethodPost, "/api/v1/managers/projects", ann, `{"name":"Nope"}`)
		expectStatus(t, rec, http.StatusForbidden)
	})

	t.Run("manager cannot provision users", func(t *testing.T) {
		rec, _ := s.do(http.MethodPost, "/api/v1/admin/register", maria,
			`{"name":"X","email":"x@example.com","password":"secret1","role":"MEMBER"}`)
		expectStatus(t, rec, http.StatusForbidden)
	})

	t.Run("unknown role", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/api/v1/admin/register", adminToken,
			`{"name":"Root","email":"root@example.com","password":"secret1","role":"OWNER"}`)
		expectStatus(t, rec, http.StatusBadRequest)
		if env.Message != "Invalid role." {
			t.Fatalf("unexpected message %q", env.Message)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/api/v1/admin/register", adminToken,
			`{"name":"Ann","email":"ANN@example.com","password":"secret1","role":"MEMBER"}`)
		expectStatus(t, rec, http.StatusConflict)
		if env.Message != "Email already registered!" {
			t.Fatalf("unexpected message %q", env.Message)
		}
	})

	t.Run("foreign project", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/api/v1/managers/projects", maria, `{"name":"Apollo"}`)
		expectStatus(t, rec, http.StatusCreated)
		var p struct {
			ID string `json:"id"`
		}
		mustDecode(t, env.Data, &p)

		rec, _ = s.do(http.MethodGet, "/api/v1/managers/projects/"+p.ID, mark, "")
		expectStatus(t, rec, http.StatusForbidden)
		rec, _ = s.do(http.MethodDelete, "/api/v1/managers/projects/"+p.ID, mark, "")
		expectStatus(t, rec, http.StatusForbidden)
	})

	t.Run("validation envelope", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/api/v1/managers/projects", maria, `{"name":""}`)
		expectStatus(t, rec, http.StatusBadRequest)
		var fields map[string]string
		mustDecode(t, env.Data, &fields)
		if _, ok := fields["name"]; !ok {
			t.Fatalf("expected a name error, got %v", fields)
		}
	})
}

func TestRouter_LoginFailures(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodPost, "/api/v1/auth/login", "", `{"email":"admin@taskflow.com","password":"nope"}`)
	expectStatus(t, rec, http.StatusUnauthorized)
	if env.Message != "Invalid credentials." {
		t.Fatalf("unexpected message %q", env.Message)
	}

	rec, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", `{"email":"ghost@example.com","password":"nope"}`)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestRouter_CookieSession(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"admin@taskflow.com","password":"Admin@123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected a session cookie, got %d", len(cookies))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodGet, "/health", "", "")
	expectStatus(t, rec, http.StatusOK)

	rec, _ = s.do(http.MethodGet, "/health/ready", "", "")
	expectStatus(t, rec, http.StatusOK)

	rec, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", `{"email":"nobody@example.com","password":"wrong-password"}`)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec, _ = s.do(http.MethodGet, "/metrics", "", "")
	expectStatus(t, rec, http.StatusOK)
	for _, want := range []string{"taskflow_http_requests_total", `taskflow_logins_total{result="invalid_credentials"}`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}
