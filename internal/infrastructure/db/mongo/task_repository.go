package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

type TaskRepository struct {
	col      *mongo.Collection
	projects *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{
		col:      db.Collection(collectionTasks),
		projects: db.Collection(collectionProjects),
	}
}

type taskDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	DueDate     time.Time          `bson:"due_date"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	ProjectID   primitive.ObjectID `bson:"project_id"`
	MemberID    primitive.ObjectID `bson:"member_id"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (d *taskDoc) toDomain() *domain.Task {
	return &domain.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate.UTC(),
		Status:      domain.TaskStatus(d.Status),
		Priority:    domain.Priority(d.Priority),
		ProjectID:   d.ProjectID.Hex(),
		MemberID:    d.MemberID.Hex(),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	projectID, ok := objectID(t.ProjectID)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	memberID, ok := objectID(t.MemberID)
	if !ok {
		return nil, domain.ErrMemberNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := taskDoc{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate.UTC(),
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		ProjectID:   projectID,
		MemberID:    memberID,
		CreatedAt:   t.CreatedAt.UTC(),
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert task: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *TaskRepository) findOne(ctx context.Context, filter bson.M) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d taskDoc
	if err := r.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return d.toDomain(), nil
}

func (r *TaskRepository) FindByIDAndProject(ctx context.Context, id, projectID string) (*domain.Task, error) {
	filter, ok := scopedFilter(id, "project_id", projectID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return r.findOne(ctx, filter)
}

func (r *TaskRepository) FindByIDAndMember(ctx context.Context, id, memberID string) (*domain.Task, error) {
	filter, ok := scopedFilter(id, "member_id", memberID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return r.findOne(ctx, filter)
}

func (r *TaskRepository) FindByMember(ctx context.Context, memberID string) ([]*domain.Task, error) {
	oid, ok := objectID(memberID)
	if !ok {
		return []*domain.Task{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"member_id": oid}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []taskDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	out := make([]*domain.Task, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	oid, ok := objectID(t.ID)
	if !ok {
		return domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"status":   string(t.Status),
		"priority": string(t.Priority),
	}})
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete is a single FindOneAndDelete, so the task is either removed and
// returned or left untouched.
func (r *TaskRepository) Delete(ctx context.Context, id, projectID string) (*domain.Task, error) {
	filter, ok := scopedFilter(id, "project_id", projectID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d taskDoc
	if err := r.col.FindOneAndDelete(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return d.toDomain(), nil
}

func (r *TaskRepository) StatsByManager(ctx context.Context, managerID string) (domain.TaskStats, error) {
	oid, ok := objectID(managerID)
	if !ok {
		return domain.NewTaskStats(0, 0), nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	projectIDs, err := r.projects.Distinct(ctx, "_id", bson.M{"manager_id": oid})
	if err != nil {
		return domain.TaskStats{}, fmt.Errorf("manager projects: %w", err)
	}
	if len(projectIDs) == 0 {
		return domain.NewTaskStats(0, 0), nil
	}

	cursor, err := r.col.Aggregate(ctx, taskStatsPipeline(projectIDs))
	if err != nil {
		return domain.TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total      int64 `bson:"total"`
		InProgress int64 `bson:"in_progress"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return domain.TaskStats{}, fmt.Errorf("decode task stats: %w", err)
	}
	if len(rows) == 0 {
		return domain.NewTaskStats(0, 0), nil
	}
	return domain.NewTaskStats(rows[0].Total, rows[0].InProgress), nil
}
