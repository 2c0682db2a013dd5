package repositories

import (
	"github.com/arman306/storyloop/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokenRepository defines the interface for device token operations
type DeviceTokenRepository interface {
	SaveToken(userID, token string) error
	GetTokensByUserID(userID string) ([]string, error)
	DeleteToken(token string) error
}

// PostgresDeviceTokenRepository implements DeviceTokenRepository for
// PostgreSQL
type PostgresDeviceTokenRepository struct {
	db *gorm.DB
}

// NewPostgresDeviceTokenRepository creates a new PostgresDeviceTokenRepository
func NewPostgresDeviceTokenRepository(db *gorm.DB) *PostgresDeviceTokenRepository {
	return &PostgresDeviceTokenRepository{db: db}
}

// SaveToken upserts a device token for a user
func (r *PostgresDeviceTokenRepository) SaveToken(userID, token string) error {
	record := &models.DeviceToken{UserID: userID, Token: token}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id"}),
	}).Create(record).Error
}

// GetTokensByUserID returns all device tokens registered for a user
func (r *PostgresDeviceTokenRepository) GetTokensByUserID(userID string) ([]string, error) {
	var tokens []string
	err := r.db.Model(&models.DeviceToken{}).Where("user_id = ?", userID).Pluck("token", &tokens).Error
	return tokens, err
}

// DeleteToken removes a device token
func (r *PostgresDeviceTokenRepository) DeleteToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&models.DeviceToken{}).Error
}
