package repositories

import (
	"github.com/devlink/backend/internal/models"
	"gorm.io/gorm"
)

// AuditRecordRepository defines the interface for audit run persistence
type AuditRecordRepository interface {
	CreateAuditRecord(record *models.AuditRecord) error
	GetByUserID(userID string, page, limit int) ([]models.AuditRecord, int64, error)
	GetRecent(limit int) ([]models.AuditRecord, error)
}

type postgresAuditRecordRepository struct {
	db *gorm.DB
}

func NewPostgresAuditRecordRepository(db *gorm.DB) AuditRecordRepository {
	return &postgresAuditRecordRepository{db: db}
}

func (r *postgresAuditRecordRepository) CreateAuditRecord(record *models.AuditRecord) error {
	return r.db.Create(record).Error
}

func (r *postgresAuditRecordRepository) GetByUserID(userID string, page, limit int) ([]models.AuditRecord, int64, error) {
	var records []models.AuditRecord
	var total int64

	r.db.Model(&models.AuditRecord{}).Where("user_id = ?", userID).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&records).Error

	return records, total, err
}

func (r *postgresAuditRecordRepository) GetRecent(limit int) ([]models.AuditRecord, error) {
	var records []models.AuditRecord
	err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
