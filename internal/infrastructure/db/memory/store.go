// Package memory is a mutex-guarded in-process store used for development
// and tests. Ids are decimal sequence numbers, one sequence per table.
package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// Store holds every table behind a single lock.
type Store struct {
	mu sync.RWMutex

	users    map[string]*domain.User
	projects map[string]*domain.Project
	tasks    map[string]*domain.Task

	userSeq, projectSeq, taskSeq int64

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*domain.User),
		projects: make(map[string]*domain.Project),
		tasks:    make(map[string]*domain.Task),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user repository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Projects returns the project repository view.
func (s *Store) Projects() *ProjectRepository { return &ProjectRepository{s: s} }

// Tasks returns the task repository view.
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func nextID(seq *int64) string {
	*seq++
	return strconv.FormatInt(*seq, 10)
}

// lessID orders decimal ids numerically.
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func cloneProject(p *domain.Project) *domain.Project {
	c := *p
	c.MemberIDs = append([]string(nil), p.MemberIDs...)
	return &c
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	return &c
}

// UserRepository implements ports.UserRepository.
type UserRepository struct{ s *Store }

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepository) FindByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]struct{}, len(ids))
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if u, ok := r.s.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	sortUsers(out)
	return out, nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := domain.NormalizeEmail(user.Email)
	for _, u := range r.s.users {
		if u.Email == email {
			return nil, &domain.ConflictError{Constraint: "users_email_unique", Err: domain.ErrUserExists}
		}
	}
	c := cloneUser(user)
	c.ID = nextID(&r.s.userSeq)
	c.Email = email
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.now()
	}
	r.s.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *UserRepository) Count(context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

func (r *UserRepository) SearchAvailableMembers(_ context.Context, projectID, prefix string, limit int) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var exclude []string
	if p, ok := r.s.projects[projectID]; ok {
		exclude = p.MemberIDs
	}
	prefix = strings.ToLower(prefix)

	out := make([]*domain.User, 0)
	for _, u := range r.s.users {
		if u.Role != domain.RoleMember || !u.Active {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(u.Name), prefix) || contains(exclude, u.ID) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sortUsers(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *UserRepository) FindAvailableForTask(_ context.Context, projectID string) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[projectID]
	if !ok {
		return []*domain.User{}, nil
	}
	busy := make(map[string]struct{})
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID && t.Status.IsOpen() {
			busy[t.MemberID] = struct{}{}
		}
	}

	out := make([]*domain.User, 0, len(p.MemberIDs))
	for _, id := range p.MemberIDs {
		u, ok := r.s.users[id]
		if !ok || u.Role != domain.RoleMember || !u.Active {
			continue
		}
		if _, isBusy := busy[id]; isBusy {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sortUsers(out)
	return out, nil
}

func sortUsers(users []*domain.User) {
	sort.Slice(users, func(i, j int) bool { return lessID(users[i].ID, users[j].ID) })
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ProjectRepository implements ports.ProjectRepository.
type ProjectRepository struct{ s *Store }

func (r *ProjectRepository) Create(_ context.Context, project *domain.Project) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := cloneProject(project)
	c.ID = nextID(&r.s.projectSeq)
	if c.MemberIDs == nil {
		c.MemberIDs = []string{}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.now()
	}
	r.s.projects[c.ID] = c
	return cloneProject(c), nil
}

func (r *ProjectRepository) FindByID(_ context.Context, id string) (*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (r *ProjectRepository) FindByManager(_ context.Context, managerID string) ([]*domain.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Project, 0)
	for _, p := range r.s.projects {
		if p.ManagerID == managerID {
			out = append(out, cloneProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out, nil
}

func (r *ProjectRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}
	delete(r.s.projects, id)
	for tid, t := range r.s.tasks {
		if t.ProjectID == id {
			delete(r.s.tasks, tid)
		}
	}
	return nil
}

func (r *ProjectRepository) AddMembers(_ context.Context, projectID string, memberIDs []string) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[projectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	for _, id := range memberIDs {
		if !contains(p.MemberIDs, id) {
			p.MemberIDs = append(p.MemberIDs, id)
		}
	}
	return cloneProject(p), nil
}

func (r *ProjectRepository) CountMembersByManager(_ context.Context, managerID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	distinct := make(map[string]struct{})
	for _, p := range r.s.projects {
		if p.ManagerID != managerID {
			continue
		}
		for _, id := range p.MemberIDs {
			distinct[id] = struct{}{}
		}
	}
	return int64(len(distinct)), nil
}

// TaskRepository implements ports.TaskRepository.
type TaskRepository struct{ s *Store }

func (r *TaskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[task.ProjectID]; !ok {
		return nil, &domain.ConflictError{Constraint: "tasks_project_id_fkey", Err: domain.ErrProjectNotFound}
	}
	c := cloneTask(task)
	c.ID = nextID(&r.s.taskSeq)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.now()
	}
	r.s.tasks[c.ID] = c
	return cloneTask(c), nil
}

func (r *TaskRepository) FindByIDAndProject(_ context.Context, id, projectID string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok || t.ProjectID != projectID {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *TaskRepository) FindByIDAndMember(_ context.Context, id, memberID string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok || t.MemberID != memberID {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *TaskRepository) FindByMember(_ context.Context, memberID string) ([]*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Task, 0)
	for _, t := range r.s.tasks {
		if t.MemberID == memberID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out, nil
}

func (r *TaskRepository) Update(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.Status = task.Status
	t.Priority = task.Priority
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, id, projectID string) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || t.ProjectID != projectID {
		return nil, domain.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	return t, nil
}

func (r *TaskRepository) StatsByManager(_ context.Context, managerID string) (domain.TaskStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total, inProgress int64
	for _, t := range r.s.tasks {
		p, ok := r.s.projects[t.ProjectID]
		if !ok || p.ManagerID != managerID {
			continue
		}
		total++
		if t.Status == domain.StatusInProgress {
			inProgress++
		}
	}
	return domain.NewTaskStats(total, inProgress), nil
}
