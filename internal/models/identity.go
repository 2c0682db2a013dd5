package models

// Identity describes the authenticated actor as supplied by the identity
// collaborator (Firebase token claims). The service performs no
// authentication of its own.
type Identity struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
