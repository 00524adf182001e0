package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/devlink/backend/internal/models"
	"github.com/devlink/backend/internal/repositories"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrInvalidUserID indicates a malformed identity reference.
	ErrInvalidUserID = errors.New("invalid user ID format")
	// ErrSelfFollow is returned when a user tries to follow or unfollow themselves.
	ErrSelfFollow = errors.New("cannot follow or unfollow yourself")
	// ErrUserNotFound is returned when the actor or target does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyFollowing is returned on a follow of an existing relationship.
	ErrAlreadyFollowing = errors.New("already following this user")
	// ErrNotFollowing is returned on an unfollow of a nonexistent relationship.
	ErrNotFollowing = errors.New("not following this user")
)

// RelationshipService is the follow/unfollow engine. It validates requests,
// mutates both sides of a relationship through the repository's transactional
// primitives, and serves the read-only status and listing queries. After any
// successful mutation the mirrored-set invariant holds: A follows B iff
// B is in A's following and A is in B's followers.
type RelationshipService struct {
	userRepository repositories.UserRepository
	logger         *logrus.Logger
}

// NewRelationshipService creates a new RelationshipService
func NewRelationshipService(userRepo repositories.UserRepository, logger *logrus.Logger) *RelationshipService {
	return &RelationshipService{
		userRepository: userRepo,
		logger:         logger,
	}
}

// Follow makes the actor follow the target. Validation order: malformed
// reference, self-reference, target existence, actor existence, duplicate
// relationship. On success both documents are updated as one unit and the
// followed user's identity is returned for UI feedback.
func (s *RelationshipService) Follow(ctx context.Context, actorID, targetID string) (*models.FollowResult, error) {
	actor, target, err := s.resolvePair(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}

	if actor.IsFollowing(target.ID) {
		return nil, ErrAlreadyFollowing
	}

	if err := s.userRepository.LinkFollow(ctx, actor.ID, target.ID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("link follow: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"actor":  actor.ID.Hex(),
		"target": target.ID.Hex(),
	}).Info("follow created")

	return &models.FollowResult{UserID: target.ID.Hex(), FullName: target.FullName}, nil
}

// Unfollow removes the actor's follow of the target. Same validation order
// as Follow; fails with ErrNotFollowing when no relationship exists.
func (s *RelationshipService) Unfollow(ctx context.Context, actorID, targetID string) (*models.FollowResult, error) {
	actor, target, err := s.resolvePair(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}

	if !actor.IsFollowing(target.ID) {
		return nil, ErrNotFollowing
	}

	if err := s.userRepository.UnlinkFollow(ctx, actor.ID, target.ID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("unlink follow: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"actor":  actor.ID.Hex(),
		"target": target.ID.Hex(),
	}).Info("follow removed")

	return &models.FollowResult{UserID: target.ID.Hex(), FullName: target.FullName}, nil
}

// GetFollowStatus reports whether the actor follows the target, along with
// the actor's following count and the target's follower count. It never
// mutates state and returns is_following=false, not an error, when no
// relationship exists.
func (s *RelationshipService) GetFollowStatus(ctx context.Context, actorID, targetID string) (*models.FollowStatus, error) {
	actorObjID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	targetObjID, err := primitive.ObjectIDFromHex(targetID)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	target, err := s.getUser(ctx, targetObjID)
	if err != nil {
		return nil, err
	}
	actor, err := s.getUser(ctx, actorObjID)
	if err != nil {
		return nil, err
	}

	return &models.FollowStatus{
		IsFollowing:    actor.IsFollowing(target.ID),
		FollowingCount: actor.FollowingCount(),
		FollowerCount:  target.FollowerCount(),
	}, nil
}

// GetFollowers lists the users following the given user, ordered by full
// name then ID, paged with limit/offset.
func (s *RelationshipService) GetFollowers(ctx context.Context, userID string, limit, offset int64) ([]models.UserSummary, error) {
	return s.listReferences(ctx, userID, limit, offset, func(u *models.User) []primitive.ObjectID {
		return u.Followers
	})
}

// GetFollowing lists the users the given user follows, ordered by full name
// then ID, paged with limit/offset.
func (s *RelationshipService) GetFollowing(ctx context.Context, userID string, limit, offset int64) ([]models.UserSummary, error) {
	return s.listReferences(ctx, userID, limit, offset, func(u *models.User) []primitive.ObjectID {
		return u.Following
	})
}

func (s *RelationshipService) listReferences(ctx context.Context, userID string, limit, offset int64, refs func(*models.User) []primitive.ObjectID) ([]models.UserSummary, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	user, err := s.getUser(ctx, objID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepository.GetUsersByIDs(ctx, refs(user), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load referenced users: %w", err)
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	return summaries, nil
}

// resolvePair runs the shared mutation preconditions: both references
// well-formed, not a self-reference, target exists, actor exists.
func (s *RelationshipService) resolvePair(ctx context.Context, actorID, targetID string) (actor, target *models.User, err error) {
	targetObjID, err := primitive.ObjectIDFromHex(targetID)
	if err != nil {
		return nil, nil, ErrInvalidUserID
	}
	actorObjID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, nil, ErrInvalidUserID
	}

	if actorObjID == targetObjID {
		return nil, nil, ErrSelfFollow
	}

	target, err = s.getUser(ctx, targetObjID)
	if err != nil {
		return nil, nil, err
	}
	actor, err = s.getUser(ctx, actorObjID)
	if err != nil {
		return nil, nil, err
	}
	return actor, target, nil
}

func (s *RelationshipService) getUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %s: %w", id.Hex(), err)
	}
	return user, nil
}
