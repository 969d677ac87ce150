package models

import (
	"time"
)

// OAuthToken is an issued access token record. ClientID references the
// surrogate client id so rows survive api-key rotation and can be removed
// when the client is deleted.
type OAuthToken struct {
	ID           uint    `gorm:"primaryKey"`
	ClientID     uint    `gorm:"index;not null"`
	APIKey       string  `gorm:"column:api_key;not null"`
	GrantType    string  `gorm:"not null"` // grant that minted the token, drives refresh policy
	UserID       *string // nil for client-credentials tokens without an impersonated user
	AccessToken  string  `gorm:"uniqueIndex;not null"`
	RefreshToken *string
	Scopes       string
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (OAuthToken) TableName() string {
	return "rest_oauth_tokens"
}
