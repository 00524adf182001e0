package models

import "time"

// Audit fix types recorded by the consistency auditor.
const (
	FixAddedMissingFollower        = "added_missing_follower"
	FixAddedMissingFollowing       = "added_missing_following"
	FixRemovedNonexistentFollower  = "removed_nonexistent_follower"
	FixRemovedNonexistentFollowing = "removed_nonexistent_following"
)

// AuditRecord is one run of the relationship consistency auditor (PostgreSQL).
// Inconsistencies are always auto-repaired and never surfaced to end users;
// this table is the operational trail of what was found and fixed.
type AuditRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index"` // hex ObjectID of the audited user
	Checked   int       `json:"checked"`              // relationship references examined
	Found     int       `json:"found"`                // inconsistencies detected
	Fixed     int       `json:"fixed"`                // inconsistencies repaired
	Details   string    `json:"details" gorm:"type:text"` // JSON-encoded list of AuditFix
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// AuditFix describes a single repair applied by the auditor.
type AuditFix struct {
	Type    string `json:"type"`     // one of the Fix* constants
	UserID  string `json:"user_id"`  // document that was corrected
	OtherID string `json:"other_id"` // the reference involved
}

// AuditReport is the diagnostic result of auditing one user's relationships.
type AuditReport struct {
	UserID     string     `json:"user_id"`
	Checked    int        `json:"checked"`
	Found      int        `json:"found"`
	Fixed      int        `json:"fixed"`
	Consistent bool       `json:"consistent"` // true when nothing needed repair
	Fixes      []AuditFix `json:"fixes,omitempty"`
}
