package models

import "time"

// Media types a story can carry.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// StoryTTL is how long a story stays visible after creation.
const StoryTTL = 24 * time.Hour

// StorySchemaVersion is stamped on every document so the layout can be
// migrated on read when it changes.
const StorySchemaVersion = 1

// Story represents an ephemeral story stored in MongoDB
type Story struct {
	ID              string    `json:"id" bson:"_id"`
	OwnerID         string    `json:"owner_id" bson:"owner_id"`
	OwnerName       string    `json:"owner_name" bson:"owner_name"`
	OwnerAvatarURL  string    `json:"owner_avatar_url,omitempty" bson:"owner_avatar_url,omitempty"`
	MediaType       string    `json:"media_type" bson:"media_type"` // "image" or "video"
	MediaURL        string    `json:"media_url" bson:"media_url"`
	MediaObject     string    `json:"-" bson:"media_object"` // object-storage key, kept for blob cleanup
	ThumbnailURL    string    `json:"thumbnail_url,omitempty" bson:"thumbnail_url,omitempty"`
	ThumbnailObject string    `json:"-" bson:"thumbnail_object,omitempty"`
	Caption         string    `json:"caption,omitempty" bson:"caption,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt       time.Time `json:"expires_at" bson:"expires_at"`
	ViewCount       int       `json:"view_count" bson:"view_count"`
	ViewerIDs       []string  `json:"-" bson:"viewer_ids"`
	Likes           []string  `json:"-" bson:"likes"`
	LikesCount      int       `json:"likes_count" bson:"likes_count"`
	IsHighlighted   bool      `json:"is_highlighted" bson:"is_highlighted"`
	HighlightID     string    `json:"highlight_id,omitempty" bson:"highlight_id,omitempty"`
	SharingEnabled  bool      `json:"sharing_enabled" bson:"sharing_enabled"`
	PublicLink      string    `json:"public_link" bson:"public_link"`
	SchemaVersion   int       `json:"-" bson:"schema_version"`
}

// DisplayLikesCount derives the shown count from the like set so a lagging
// denormalized counter is never observable.
func (s *Story) DisplayLikesCount() int {
	return len(s.Likes)
}

// HasViewer reports whether viewerID already appears in the viewer set.
func (s *Story) HasViewer(viewerID string) bool {
	for _, id := range s.ViewerIDs {
		if id == viewerID {
			return true
		}
	}
	return false
}

// LikedBy reports whether userID appears in the like set.
func (s *Story) LikedBy(userID string) bool {
	for _, id := range s.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Expired reports whether the story is past its time-to-live at the given
// instant.
func (s *Story) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// CreateStoryRequest defines the multipart form fields accompanying a story
// upload
type CreateStoryRequest struct {
	MediaType string `form:"media_type" validate:"required,oneof=image video"`
	Caption   string `form:"caption" validate:"omitempty,max=500"`
}
