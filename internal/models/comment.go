package models

import "time"

// Comment represents a comment on a story (PostgreSQL). Rows are append-only
// and deliberately survive the parent story's expiration.
type Comment struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	StoryID         string    `json:"story_id" gorm:"index"`
	AuthorID        string    `json:"author_id" gorm:"index"`
	AuthorName      string    `json:"author_name"`
	AuthorAvatarURL string    `json:"author_avatar_url,omitempty"`
	Text            string    `json:"text" gorm:"size:500"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName overrides the gorm default
func (Comment) TableName() string {
	return "story_comments"
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}
