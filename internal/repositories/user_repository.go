package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/devlink/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrUserNotFound is returned when a user document does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the interface for user data operations. Besides
// CRUD it exposes the relationship primitives the engine and the auditor
// work with: LinkFollow/UnlinkFollow mutate both sides of a relationship as
// one unit, the Add*/Remove* methods touch a single side and exist only for
// consistency repair.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsers(ctx context.Context, limit, offset int64) ([]models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID, limit, offset int64) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	SearchUsers(ctx context.Context, query string) ([]models.User, error)

	LinkFollow(ctx context.Context, followerID, targetID primitive.ObjectID) error
	UnlinkFollow(ctx context.Context, followerID, targetID primitive.ObjectID) error

	AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) error
	RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) error
	AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error
	RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser creates a new user in MongoDB
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.ProfilePicture == "" {
		user.ProfilePicture = models.DefaultProfilePicture
	}
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

// GetUserByID retrieves a user by ID from MongoDB
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email from MongoDB
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUsers retrieves users with pagination, ordered by full name then ID
func (r *MongoUserRepository) GetUsers(ctx context.Context, limit, offset int64) ([]models.User, error) {
	var users []models.User
	findOptions := options.Find().SetSkip(offset).SetLimit(limit).SetSort(listOrder())
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUsersByIDs retrieves the users whose IDs are in ids, with pagination.
// The ordering is full name ascending with ID as tie-break, so pages stay
// stable while a listing is being walked.
func (r *MongoUserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID, limit, offset int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	findOptions := options.Find().SetSkip(offset).SetLimit(limit).SetSort(listOrder())
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser updates an existing user's profile fields in MongoDB
func (r *MongoUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"username":        user.Username,
			"full_name":       user.FullName,
			"email":           user.Email,
			"profile_picture": user.ProfilePicture,
			"biography":       user.Biography,
			"skill_set":       user.SkillSet,
			"user_location":   user.UserLocation,
			"updated_at":      user.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser deletes a user by ID from MongoDB. Relationship references held
// by other documents are left dangling and pruned by the auditor.
func (r *MongoUserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SearchUsers searches for users by full name or email (case-insensitive)
func (r *MongoUserRepository) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	filter := bson.M{"$or": bson.A{
		bson.M{"full_name": bson.M{"$regex": query, "$options": "i"}},
		bson.M{"email": bson.M{"$regex": query, "$options": "i"}},
	}}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(listOrder()).SetLimit(50))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// LinkFollow adds targetID to the follower's following set and followerID to
// the target's followers set inside one transaction. $addToSet keeps both
// sides duplicate-free, so a replayed or racing link converges to a single
// recorded relationship.
func (r *MongoUserRepository) LinkFollow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	return r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := r.addToSet(sc, followerID, "following", targetID); err != nil {
			return err
		}
		return r.addToSet(sc, targetID, "followers", followerID)
	})
}

// UnlinkFollow removes the relationship from both sides inside one
// transaction. $pull of an absent element is a no-op, tolerant of drift.
func (r *MongoUserRepository) UnlinkFollow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	return r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := r.pull(sc, followerID, "following", targetID); err != nil {
			return err
		}
		return r.pull(sc, targetID, "followers", followerID)
	})
}

// AddFollower adds followerID to the user's followers set
func (r *MongoUserRepository) AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) error {
	return r.addToSet(ctx, userID, "followers", followerID)
}

// RemoveFollower removes followerID from the user's followers set
func (r *MongoUserRepository) RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) error {
	return r.pull(ctx, userID, "followers", followerID)
}

// AddFollowing adds targetID to the user's following set
func (r *MongoUserRepository) AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error {
	return r.addToSet(ctx, userID, "following", targetID)
}

// RemoveFollowing removes targetID from the user's following set
func (r *MongoUserRepository) RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error {
	return r.pull(ctx, userID, "following", targetID)
}

func (r *MongoUserRepository) inTransaction(ctx context.Context, fn func(mongo.SessionContext) error) error {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *MongoUserRepository) addToSet(ctx context.Context, id primitive.ObjectID, field string, value primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{field: value}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) pull(ctx context.Context, id primitive.ObjectID, field string, value primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{field: value}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func listOrder() bson.D {
	return bson.D{{Key: "full_name", Value: 1}, {Key: "_id", Value: 1}}
}
