package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project represents a collaborative project stored in MongoDB. The owner is
// always present in Members; membership is an unordered set of hex user IDs.
type Project struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title        string             `json:"title" bson:"title"`
	Description  string             `json:"description" bson:"description"`
	OwnerID      string             `json:"owner_id" bson:"owner_id"` // hex ObjectID of the creator
	Members      []string           `json:"members" bson:"members"`   // hex ObjectIDs, owner included
	Tags         []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	Technologies []string           `json:"technologies,omitempty" bson:"technologies,omitempty"`
	Deadline     *time.Time         `json:"deadline,omitempty" bson:"deadline,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// HasMember reports whether the given user is a member of the project.
func (p *Project) HasMember(userID string) bool {
	for _, id := range p.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// CreateProjectRequest defines the request body for creating a project
type CreateProjectRequest struct {
	Title        string     `json:"title" validate:"required,min=1,max=100"`
	Description  string     `json:"description" validate:"required,max=1000"`
	Tags         []string   `json:"tags,omitempty"`
	Technologies []string   `json:"technologies,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

// UpdateProjectRequest defines the request body for updating a project
type UpdateProjectRequest struct {
	Title        string     `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Description  string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	Tags         []string   `json:"tags,omitempty"`
	Technologies []string   `json:"technologies,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}
