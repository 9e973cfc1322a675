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

type ProjectRepository struct {
	col   *mongo.Collection
	tasks *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{
		col:   db.Collection(collectionProjects),
		tasks: db.Collection(collectionTasks),
	}
}

type projectDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	ManagerID   primitive.ObjectID   `bson:"manager_id"`
	MemberIDs   []primitive.ObjectID `bson:"member_ids"`
	CreatedAt   time.Time            `bson:"created_at"`
}

func (d *projectDoc) toDomain() *domain.Project {
	return &domain.Project{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		ManagerID:   d.ManagerID.Hex(),
		MemberIDs:   hexIDs(d.MemberIDs),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	managerID, ok := objectID(p.ManagerID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := projectDoc{
		Name:        p.Name,
		Description: p.Description,
		ManagerID:   managerID,
		MemberIDs:   objectIDs(p.MemberIDs),
		CreatedAt:   p.CreatedAt.UTC(),
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert project: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d projectDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return d.toDomain(), nil
}

func (r *ProjectRepository) FindByManager(ctx context.Context, managerID string) ([]*domain.Project, error) {
	oid, ok := objectID(managerID)
	if !ok {
		return []*domain.Project{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"manager_id": oid}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []projectDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	out := make([]*domain.Project, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// Delete removes the project's tasks first so a failure never leaves tasks
// pointing at a missing project.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrProjectNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.tasks.DeleteMany(ctx, bson.M{"project_id": oid}); err != nil {
		return fmt.Errorf("delete project tasks: %w", err)
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// AddMembers uses $addToSet so concurrent additions union instead of
// overwriting each other.
func (r *ProjectRepository) AddMembers(ctx context.Context, projectID string, memberIDs []string) (*domain.Project, error) {
	oid, ok := objectID(projectID)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := addMembersUpdate(memberIDs)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d projectDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("add members: %w", err)
	}
	return d.toDomain(), nil
}

func (r *ProjectRepository) CountMembersByManager(ctx context.Context, managerID string) (int64, error) {
	oid, ok := objectID(managerID)
	if !ok {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Aggregate(ctx, memberCountPipeline(oid))
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decode member count: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
