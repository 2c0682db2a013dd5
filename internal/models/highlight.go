package models

import "time"

// Highlight is a named album of stories pinned past their expiry (MongoDB).
// Stories referenced here are exempt from the expiration sweep.
type Highlight struct {
	ID            string    `json:"id" bson:"_id"`
	OwnerID       string    `json:"owner_id" bson:"owner_id"`
	Title         string    `json:"title" bson:"title"`
	CoverImageURL string    `json:"cover_image_url,omitempty" bson:"cover_image_url,omitempty"`
	StoryIDs      []string  `json:"story_ids" bson:"story_ids"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// CreateHighlightRequest defines the request body for creating a highlight
type CreateHighlightRequest struct {
	Title         string `json:"title" validate:"required,min=1,max=50"`
	CoverImageURL string `json:"cover_image_url,omitempty" validate:"omitempty,url"`
}
