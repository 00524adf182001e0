package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultProfilePicture is used when a user has not uploaded an avatar.
const DefaultProfilePicture = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_1280.png"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an identity document stored in MongoDB. A follow relationship
// between two users is represented as mirrored membership across two
// documents: A follows B iff B.ID is in A.Following and A.ID is in B.Followers.
type User struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Username       string               `json:"username,omitempty" bson:"username,omitempty"`
	FullName       string               `json:"full_name" bson:"full_name"`
	Email          string               `json:"email" bson:"email"`
	Password       string               `json:"-" bson:"password"`
	ProfilePicture string               `json:"profile_picture" bson:"profile_picture"`
	Biography      string               `json:"biography,omitempty" bson:"biography,omitempty"`
	SkillSet       []string             `json:"skill_set" bson:"skill_set"`
	UserLocation   string               `json:"user_location,omitempty" bson:"user_location,omitempty"`
	Role           string               `json:"role" bson:"role"`
	Followers      []primitive.ObjectID `json:"followers" bson:"followers"`
	Following      []primitive.ObjectID `json:"following" bson:"following"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

// FollowerCount returns the number of users following this user.
func (u *User) FollowerCount() int { return len(u.Followers) }

// FollowingCount returns the number of users this user follows.
func (u *User) FollowingCount() int { return len(u.Following) }

// IsFollowing reports whether id is present in the user's following set.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}

// HasFollower reports whether id is present in the user's followers set.
func (u *User) HasFollower(id primitive.ObjectID) bool {
	for _, f := range u.Followers {
		if f == id {
			return true
		}
	}
	return false
}

// UserSummary is the public projection returned by follower/following listings.
type UserSummary struct {
	ID             primitive.ObjectID `json:"id" bson:"_id"`
	Username       string             `json:"username,omitempty" bson:"username,omitempty"`
	FullName       string             `json:"full_name" bson:"full_name"`
	ProfilePicture string             `json:"profile_picture" bson:"profile_picture"`
	Biography      string             `json:"biography,omitempty" bson:"biography,omitempty"`
}

// Summary returns the public projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName,
		ProfilePicture: u.ProfilePicture,
		Biography:      u.Biography,
	}
}

// SignupRequest defines the request body for local user registration
type SignupRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	FullName string `json:"full_name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SigninRequest defines the request body for local user authentication
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest defines the request body for profile updates
type UpdateProfileRequest struct {
	Username     string   `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	FullName     string   `json:"full_name,omitempty" validate:"omitempty,min=2,max=50"`
	Biography    string   `json:"biography,omitempty" validate:"omitempty,max=250"`
	SkillSet     []string `json:"skill_set,omitempty"`
	UserLocation string   `json:"user_location,omitempty" validate:"omitempty,max=100"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
