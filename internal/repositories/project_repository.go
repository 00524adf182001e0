package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devlink/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrProjectNotFound is returned when a project document does not exist.
var ErrProjectNotFound = errors.New("project not found")

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	GetProjects(ctx context.Context, skip, limit int64) ([]models.Project, error)
	UpdateProject(ctx context.Context, id string, project *models.Project) error
	DeleteProject(ctx context.Context, id string) error
	AddMember(ctx context.Context, projectID, userID string) error
	RemoveMember(ctx context.Context, projectID, userID string) error
}

// MongoProjectRepository implements ProjectRepository for MongoDB
type MongoProjectRepository struct {
	collection *mongo.Collection
}

// NewMongoProjectRepository creates a new MongoProjectRepository
func NewMongoProjectRepository(db *mongo.Database) *MongoProjectRepository {
	return &MongoProjectRepository{collection: db.Collection("projects")}
}

// CreateProject creates a new project in MongoDB
func (r *MongoProjectRepository) CreateProject(ctx context.Context, project *models.Project) error {
	project.ID = primitive.NewObjectID()
	if project.Members == nil {
		project.Members = []string{}
	}
	project.CreatedAt = time.Now()
	project.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, project)
	return err
}

// GetProjectByID retrieves a project by ID from MongoDB
func (r *MongoProjectRepository) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid project ID format: %w", err)
	}

	var project models.Project
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// GetProjects retrieves projects from MongoDB with pagination, newest first
func (r *MongoProjectRepository) GetProjects(ctx context.Context, skip, limit int64) ([]models.Project, error) {
	var projects []models.Project
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProject updates a project's descriptive fields in MongoDB
func (r *MongoProjectRepository) UpdateProject(ctx context.Context, id string, project *models.Project) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid project ID format: %w", err)
	}

	project.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"title":        project.Title,
			"description":  project.Description,
			"tags":         project.Tags,
			"technologies": project.Technologies,
			"deadline":     project.Deadline,
			"updated_at":   project.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// DeleteProject deletes a project by ID from MongoDB
func (r *MongoProjectRepository) DeleteProject(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid project ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// AddMember adds userID to the project's member set
func (r *MongoProjectRepository) AddMember(ctx context.Context, projectID, userID string) error {
	return r.updateMembers(ctx, projectID, bson.M{"$addToSet": bson.M{"members": userID}})
}

// RemoveMember removes userID from the project's member set
func (r *MongoProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	return r.updateMembers(ctx, projectID, bson.M{"$pull": bson.M{"members": userID}})
}

func (r *MongoProjectRepository) updateMembers(ctx context.Context, projectID string, update bson.M) error {
	objID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return fmt.Errorf("invalid project ID format: %w", err)
	}
	update["$set"] = bson.M{"updated_at": time.Now()}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProjectNotFound
	}
	return nil
}
