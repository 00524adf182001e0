package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/devlink/backend/internal/models"
	"github.com/devlink/backend/internal/repositories"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditService detects and repairs drift in the mirrored follow sets: a
// reference whose mirror is missing on the other document, or a reference to
// a user that no longer exists. An existing reference is treated as
// authoritative, so repairs only ever add the missing mirror or prune a
// dangling reference; a confirmed two-sided relationship is never removed.
// Running the audit on an already consistent user is a no-op.
type AuditService struct {
	userRepository  repositories.UserRepository
	auditRepository repositories.AuditRecordRepository
	logger          *logrus.Logger
}

// NewAuditService creates a new AuditService. auditRepo may be nil, in which
// case runs are logged but not persisted.
func NewAuditService(userRepo repositories.UserRepository, auditRepo repositories.AuditRecordRepository, logger *logrus.Logger) *AuditService {
	return &AuditService{
		userRepository:  userRepo,
		auditRepository: auditRepo,
		logger:          logger,
	}
}

// AuditUser checks every relationship reference on the user's document in
// both directions, repairs what it finds, and returns a diagnostic report.
func (s *AuditService) AuditUser(ctx context.Context, userID string) (*models.AuditReport, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepository.GetUserByID(ctx, objID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	report := &models.AuditReport{UserID: userID}

	// Every user this user follows must list them back as a follower.
	for _, followingID := range user.Following {
		report.Checked++
		other, err := s.userRepository.GetUserByID(ctx, followingID)
		if err != nil {
			if !errors.Is(err, repositories.ErrUserNotFound) {
				return nil, fmt.Errorf("load followed user %s: %w", followingID.Hex(), err)
			}
			if err := s.userRepository.RemoveFollowing(ctx, user.ID, followingID); err != nil {
				return nil, fmt.Errorf("prune dangling following %s: %w", followingID.Hex(), err)
			}
			s.recordFix(report, models.AuditFix{
				Type:    models.FixRemovedNonexistentFollowing,
				UserID:  user.ID.Hex(),
				OtherID: followingID.Hex(),
			})
			continue
		}
		if !other.HasFollower(user.ID) {
			if err := s.userRepository.AddFollower(ctx, other.ID, user.ID); err != nil {
				return nil, fmt.Errorf("repair missing follower on %s: %w", other.ID.Hex(), err)
			}
			s.recordFix(report, models.AuditFix{
				Type:    models.FixAddedMissingFollower,
				UserID:  other.ID.Hex(),
				OtherID: user.ID.Hex(),
			})
		}
	}

	// Every follower must list this user in their own following set.
	for _, followerID := range user.Followers {
		report.Checked++
		other, err := s.userRepository.GetUserByID(ctx, followerID)
		if err != nil {
			if !errors.Is(err, repositories.ErrUserNotFound) {
				return nil, fmt.Errorf("load follower %s: %w", followerID.Hex(), err)
			}
			if err := s.userRepository.RemoveFollower(ctx, user.ID, followerID); err != nil {
				return nil, fmt.Errorf("prune dangling follower %s: %w", followerID.Hex(), err)
			}
			s.recordFix(report, models.AuditFix{
				Type:    models.FixRemovedNonexistentFollower,
				UserID:  user.ID.Hex(),
				OtherID: followerID.Hex(),
			})
			continue
		}
		if !other.IsFollowing(user.ID) {
			if err := s.userRepository.AddFollowing(ctx, other.ID, user.ID); err != nil {
				return nil, fmt.Errorf("repair missing following on %s: %w", other.ID.Hex(), err)
			}
			s.recordFix(report, models.AuditFix{
				Type:    models.FixAddedMissingFollowing,
				UserID:  other.ID.Hex(),
				OtherID: user.ID.Hex(),
			})
		}
	}

	report.Consistent = report.Found == 0
	s.persistRun(report)

	return report, nil
}

func (s *AuditService) recordFix(report *models.AuditReport, fix models.AuditFix) {
	report.Found++
	report.Fixed++
	report.Fixes = append(report.Fixes, fix)

	s.logger.WithFields(logrus.Fields{
		"audited_user": report.UserID,
		"fix_type":     fix.Type,
		"document":     fix.UserID,
		"reference":    fix.OtherID,
	}).Warn("inconsistent follow relationship repaired")
}

// persistRun stores the audit outcome for operational visibility. A storage
// failure here must not fail the audit itself: the repairs already happened.
func (s *AuditService) persistRun(report *models.AuditReport) {
	if s.auditRepository == nil {
		return
	}

	details, err := json.Marshal(report.Fixes)
	if err != nil {
		s.logger.WithError(err).Error("failed to encode audit fixes")
		details = []byte("[]")
	}

	record := &models.AuditRecord{
		UserID:  report.UserID,
		Checked: report.Checked,
		Found:   report.Found,
		Fixed:   report.Fixed,
		Details: string(details),
	}
	if err := s.auditRepository.CreateAuditRecord(record); err != nil {
		s.logger.WithError(err).WithField("audited_user", report.UserID).Error("failed to persist audit record")
	}
}
