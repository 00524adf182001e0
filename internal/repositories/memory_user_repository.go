package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/devlink/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryUserRepository is an in-memory UserRepository used by tests and by
// local development without a MongoDB instance. It applies the same set
// semantics as the Mongo implementation; LinkFollow/UnlinkFollow mutate both
// documents under one lock, which is the in-process equivalent of the
// two-sided transaction.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

// NewMemoryUserRepository creates an empty MemoryUserRepository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *MemoryUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

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

	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(id)
}

func (r *MemoryUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemoryUserRepository) GetUsers(ctx context.Context, limit, offset int64) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, *u)
	}
	return page(all, limit, offset), nil
}

func (r *MemoryUserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID, limit, offset int64) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			matched = append(matched, *u)
		}
	}
	return page(matched, limit, offset), nil
}

func (r *MemoryUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	existing.Username = user.Username
	existing.FullName = user.FullName
	existing.Email = user.Email
	existing.ProfilePicture = user.ProfilePicture
	existing.Biography = user.Biography
	existing.SkillSet = user.SkillSet
	existing.UserLocation = user.UserLocation
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepository) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	var matched []models.User
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.FullName), q) || strings.Contains(strings.ToLower(u.Email), q) {
			matched = append(matched, *u)
		}
	}
	sortUsers(matched)
	return matched, nil
}

func (r *MemoryUserRepository) LinkFollow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	follower, ok := r.users[followerID]
	if !ok {
		return ErrUserNotFound
	}
	target, ok := r.users[targetID]
	if !ok {
		return ErrUserNotFound
	}
	follower.Following = addToSet(follower.Following, targetID)
	target.Followers = addToSet(target.Followers, followerID)
	return nil
}

func (r *MemoryUserRepository) UnlinkFollow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	follower, ok := r.users[followerID]
	if !ok {
		return ErrUserNotFound
	}
	target, ok := r.users[targetID]
	if !ok {
		return ErrUserNotFound
	}
	follower.Following = removeFromSet(follower.Following, targetID)
	target.Followers = removeFromSet(target.Followers, followerID)
	return nil
}

func (r *MemoryUserRepository) AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) error {
	return r.mutateOne(userID, func(u *models.User) { u.Followers = addToSet(u.Followers, followerID) })
}

func (r *MemoryUserRepository) RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) error {
	return r.mutateOne(userID, func(u *models.User) { u.Followers = removeFromSet(u.Followers, followerID) })
}

func (r *MemoryUserRepository) AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error {
	return r.mutateOne(userID, func(u *models.User) { u.Following = addToSet(u.Following, targetID) })
}

func (r *MemoryUserRepository) RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error {
	return r.mutateOne(userID, func(u *models.User) { u.Following = removeFromSet(u.Following, targetID) })
}

// Corrupt applies fn to the stored document directly, bypassing set
// semantics. Tests use it to fabricate the one-sided drift the auditor is
// expected to repair.
func (r *MemoryUserRepository) Corrupt(id primitive.ObjectID, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(u)
	return nil
}

func (r *MemoryUserRepository) mutateOne(id primitive.ObjectID, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) copyOf(id primitive.ObjectID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	cp.Followers = append([]primitive.ObjectID{}, u.Followers...)
	cp.Following = append([]primitive.ObjectID{}, u.Following...)
	return &cp, nil
}

func addToSet(set []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, existing := range set {
		if existing == id {
			return set
		}
	}
	return append(set, id)
}

func removeFromSet(set []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := set[:0]
	for _, existing := range set {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].FullName != users[j].FullName {
			return users[i].FullName < users[j].FullName
		}
		return users[i].ID.Hex() < users[j].ID.Hex()
	})
}

func page(users []models.User, limit, offset int64) []models.User {
	sortUsers(users)
	if offset >= int64(len(users)) {
		return []models.User{}
	}
	users = users[offset:]
	if limit > 0 && int64(len(users)) > limit {
		users = users[:limit]
	}
	return users
}
