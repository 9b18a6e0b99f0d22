package models

import "time"

// DriveConnection is the stored row for one user's delegated Drive authorization.
// Token columns hold sealed values; use db.ConnectionStore to read them.
type DriveConnection struct {
	UserID         string    `gorm:"primaryKey;size:255"`
	AccessToken    string    `gorm:"type:text;not null"`
	RefreshToken   string    `gorm:"type:text;not null;default:''"`
	TokenExpiresAt time.Time `gorm:"not null"`
	Email          *string   `gorm:"size:320"`
	ConnectedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time
}

func (DriveConnection) TableName() string {
	return "drive_connections"
}

// Credential is the decrypted view of a DriveConnection.
type Credential struct {
	UserID         string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
	Email          string
	ConnectedAt    time.Time
}

// Usable reports whether the access token is still valid at now with the given safety margin.
func (c *Credential) Usable(now time.Time, buffer time.Duration) bool {
	return c.TokenExpiresAt.Sub(now) > buffer
}

// ConnectionStatus is the display-only view used by the status endpoint.
type ConnectionStatus struct {
	Connected   bool       `json:"connected"`
	Email       string     `json:"email,omitempty"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
}
