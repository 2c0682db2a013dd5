package models

import "time"

// DeviceToken links a user to an FCM device registration token
// (PostgreSQL)
type DeviceToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index"`
	Token     string    `json:"token" gorm:"uniqueIndex;size:512"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the gorm default
func (DeviceToken) TableName() string {
	return "device_tokens"
}

// RegisterDeviceRequest defines the request body for registering a device
// token
type RegisterDeviceRequest struct {
	Token string `json:"token" validate:"required"`
}
