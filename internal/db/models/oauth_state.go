package models

import "time"

// OAuthState records one in-flight authorization attempt. Rows are single-use.
type OAuthState struct {
	State       string    `gorm:"primaryKey;size:64"`
	UserID      string    `gorm:"size:255;not null"`
	RedirectURI string    `gorm:"type:text;not null"`
	CreatedAt   time.Time
	ExpiresAt   time.Time `gorm:"index"`
}

func (OAuthState) TableName() string {
	return "oauth_states"
}
