package models

import "time"

// StoryView is an append-only analytics record of a first view (PostgreSQL).
// The expiration sweep never prunes this table, so view history outlives the
// story document itself.
type StoryView struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	StoryID  string    `json:"story_id" gorm:"index;uniqueIndex:idx_story_viewer"`
	ViewerID string    `json:"viewer_id" gorm:"index;uniqueIndex:idx_story_viewer"`
	ViewedAt time.Time `json:"viewed_at"`
}

// TableName overrides the gorm default
func (StoryView) TableName() string {
	return "story_views"
}
