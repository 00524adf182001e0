package services

import (
	"context"
	"testing"

	"github.com/devlink/backend/internal/models"
	"github.com/devlink/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type capturingAuditRepo struct {
	records []models.AuditRecord
}

func (c *capturingAuditRepo) CreateAuditRecord(record *models.AuditRecord) error {
	c.records = append(c.records, *record)
	return nil
}

func (c *capturingAuditRepo) GetByUserID(userID string, page, limit int) ([]models.AuditRecord, int64, error) {
	return nil, 0, nil
}

func (c *capturingAuditRepo) GetRecent(limit int) ([]models.AuditRecord, error) {
	return c.records, nil
}

func newAuditFixture(t *testing.T) (*AuditService, *RelationshipService, *repositories.MemoryUserRepository, *capturingAuditRepo) {
	t.Helper()
	repo := repositories.NewMemoryUserRepository()
	logger := testLogger()
	audits := &capturingAuditRepo{}
	return NewAuditService(repo, audits, logger), NewRelationshipService(repo, logger), repo, audits
}

func requireConsistentPair(t *testing.T, repo *repositories.MemoryUserRepository, followerID, targetID primitive.ObjectID) {
	t.Helper()
	follower, err := repo.GetUserByID(context.Background(), followerID)
	require.NoError(t, err)
	target, err := repo.GetUserByID(context.Background(), targetID)
	require.NoError(t, err)
	require.True(t, follower.IsFollowing(targetID))
	require.True(t, target.HasFollower(followerID))
}

func TestAuditConsistentUserIsNoop(t *testing.T) {
	auditSvc, relSvc, repo, audits := newAuditFixture(t)
	alice := createUser(t, repo, "Alice")
	bob := createUser(t, repo, "Bob")

	_, err := relSvc.Follow(context.Background(), alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)

	report, err := auditSvc.AuditUser(context.Background(), alice.ID.Hex())
	require.NoError(t, err)

	assert.True(t, report.Consistent)
	assert.Equal(t, 1, report.Checked)
	assert.Zero(t, report.Found)
	assert.Zero(t, report.Fixed)
	assert.Empty(t, report.Fixes)
	requireConsistentPair(t, repo, alice.ID, bob.ID)

	require.Len(t, audits.records, 1)
	assert.Equal(t, alice.ID.Hex(), audits.records[0].UserID)
}

func TestAuditRepairsMissingFollowerMirror(t *testing.T) {
	auditSvc, relSvc, repo, _ := newAuditFixture(t)
	alice := createUser(t, repo, "Alice")
	bob := createUser(t, repo, "Bob")

	_, err := relSvc.Follow(context.Background(), alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)

	// Drop Bob's side of the mirror: Alice still follows, Bob doesn't know.
	require.NoError(t, repo.Corrupt(bob.ID, func(u *models.User) {
		u.Followers = []primitive.ObjectID{}
	}))

	report, err := auditSvc.AuditUser(context.Background(), alice.ID.Hex())
	require.NoError(t, err)

	assert.False(t, report.Consistent)
	assert.Equal(t, 1, report.Found)
	assert.Equal(t, 1, report.Fixed)
	require.Len(t, report.Fixes, 1)
	assert.Equal(t, models.FixAddedMissingFollower, report.Fixes[0].Type)
	assert.Equal(t, bob.ID.Hex(), report.Fixes[0].UserID)
	assert.Equal(t, alice.ID.Hex(), report.Fixes[0].OtherID)

	requireConsistentPair(t, repo, alice.ID, bob.ID)
}

func TestAuditRepairsMissingFollowingMirror(t *testing.T) {
	auditSvc, relSvc, repo, _ := newAuditFixture(t)
	alice := createUser(t, repo, "Alice")
	bob := createUser(t, repo, "Bob")

	_, err := relSvc.Follow(context.Background(), alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)

	// Drop Alice's side: Bob lists her as a follower, she lost the reference.
	require.NoError(t, repo.Corrupt(alice.ID, func(u *models.User) {
		u.Following = []primitive.ObjectID{}
	}))

	// Auditing Bob walks his followers and restores Alice's following entry.
	report, err := auditSvc.AuditUser(context.Background(), bob.ID.Hex())
	require.NoError(t, err)

	require.Len(t, report.Fixes, 1)
	assert.Equal(t, models.FixAddedMissingFollowing, report.Fixes[0].Type)
	assert.Equal(t, alice.ID.Hex(), report.Fixes[0].UserID)
	assert.Equal(t, bob.ID.Hex(), report.Fixes[0].OtherID)

	requireConsistentPair(t, repo, alice.ID, bob.ID)
}

func TestAuditPrunesDanglingReferences(t *testing.T) {
	auditSvc, relSvc, repo, _ := newAuditFixture(t)
	alice := createUser(t, repo, "Alice")
	bob := createUser(t, repo, "Bob")
	carol := createUser(t, repo, "Carol")

	// Alice follows Bob; Carol follows Alice. Then both counterparts vanish
	// without their references being cleaned up.
	_, err := relSvc.Follow(context.Background(), alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)
	_, err = relSvc.Follow(context.Background(), carol.ID.Hex(), alice.ID.Hex())
	require.NoError(t, err)
	require.NoError(t, repo.DeleteUser(context.Background(), bob.ID))
	require.NoError(t, repo.DeleteUser(context.Background(), carol.ID))

	report, err := auditSvc.AuditUser(context.Background(), alice.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 2, report.Fixed)
	types := []string{report.Fixes[0].Type, report.Fixes[1].Type}
	assert.Contains(t, types, models.FixRemovedNonexistentFollowing)
	assert.Contains(t, types, models.FixRemovedNonexistentFollower)

	stored, err := repo.GetUserByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Following)
	assert.Empty(t, stored.Followers)
}

func TestAuditIsIdempotent(t *testing.T) {
	auditSvc, relSvc, repo, _ := newAuditFixture(t)
	alice := createUser(t, repo, "Alice")
	bob := createUser(t, repo, "Bob")

	_, err := relSvc.Follow(context.Background(), alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)
	require.NoError(t, repo.Corrupt(bob.ID, func(u *models.User) {
		u.Followers = []primitive.ObjectID{}
	}))

	first, err := auditSvc.AuditUser(context.Background(), alice.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, 1, first.Fixed)

	second, err := auditSvc.AuditUser(context.Background(), alice.ID.Hex())
	require.NoError(t, err)
	assert.True(t, second.Consistent)
	assert.Zero(t, second.Found)
	assert.Zero(t, second.Fixed)
}

func TestAuditRepairDoesNotTouchHealthyRelationships(t *testing.T) {
	auditSvc, relSvc, repo, _ := newAuditFixture(t)
	alice := createUser(t, repo, "Alice")
	bob := createUser(t, repo, "Bob")
	carol := createUser(t, repo, "Carol")

	_, err := relSvc.Follow(context.Background(), alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)
	_, err = relSvc.Follow(context.Background(), alice.ID.Hex(), carol.ID.Hex())
	require.NoError(t, err)
	require.NoError(t, repo.Corrupt(bob.ID, func(u *models.User) {
		u.Followers = []primitive.ObjectID{}
	}))

	report, err := auditSvc.AuditUser(context.Background(), alice.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Fixed)
	requireConsistentPair(t, repo, alice.ID, bob.ID)
	requireConsistentPair(t, repo, alice.ID, carol.ID)
}

func TestAuditValidation(t *testing.T) {
	auditSvc, _, _, _ := newAuditFixture(t)

	_, err := auditSvc.AuditUser(context.Background(), "not-hex")
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = auditSvc.AuditUser(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuditWithoutRecordStore(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	auditSvc := NewAuditService(repo, nil, testLogger())
	alice := createUser(t, repo, "Alice")

	report, err := auditSvc.AuditUser(context.Background(), alice.ID.Hex())
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestAuditRecordCapturesFixDetails(t *testing.T) {
	auditSvc, relSvc, repo, audits := newAuditFixture(t)
	alice := createUser(t, repo, "Alice")
	bob := createUser(t, repo, "Bob")

	_, err := relSvc.Follow(context.Background(), alice.ID.Hex(), bob.ID.Hex())
	require.NoError(t, err)
	require.NoError(t, repo.Corrupt(bob.ID, func(u *models.User) {
		u.Followers = []primitive.ObjectID{}
	}))

	_, err = auditSvc.AuditUser(context.Background(), alice.ID.Hex())
	require.NoError(t, err)

	require.Len(t, audits.records, 1)
	record := audits.records[0]
	assert.Equal(t, alice.ID.Hex(), record.UserID)
	assert.Equal(t, 1, record.Checked)
	assert.Equal(t, 1, record.Found)
	assert.Equal(t, 1, record.Fixed)
	assert.Contains(t, record.Details, models.FixAddedMissingFollower)
}
