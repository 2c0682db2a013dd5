package repositories

import (
	"time"

	"github.com/arman306/storyloop/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewRepository defines the interface for the append-only view log. Rows
// here are analytics records; nothing ever updates or prunes them, not even
// the expiration sweep.
type ViewRepository interface {
	AppendView(storyID, viewerID string) error
	CountViews(storyID string) (int64, error)
}

// PostgresViewRepository implements ViewRepository for PostgreSQL
type PostgresViewRepository struct {
	db *gorm.DB
}

// NewPostgresViewRepository creates a new PostgresViewRepository
func NewPostgresViewRepository(db *gorm.DB) *PostgresViewRepository {
	return &PostgresViewRepository{db: db}
}

// AppendView records a first view. A duplicate (story, viewer) pair is a
// no-op thanks to the unique index.
func (r *PostgresViewRepository) AppendView(storyID, viewerID string) error {
	view := &models.StoryView{
		StoryID:  storyID,
		ViewerID: viewerID,
		ViewedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(view).Error
}

// CountViews returns the number of distinct viewers logged for a story
func (r *PostgresViewRepository) CountViews(storyID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.StoryView{}).Where("story_id = ?", storyID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
