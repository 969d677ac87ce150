package models

import (
	"time"
)

// Client is a registered REST API consumer ("API key") of the LMS add-on.
// Grant types follow RFC 6749: client credentials, authorization code,
// implicit and resource owner password credentials, each toggled per client.
type Client struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	APIKey    string `gorm:"column:api_key;uniqueIndex;not null" json:"api_key"`
	APISecret string `gorm:"column:api_secret;not null" json:"-"` // bcrypt hash, plain value returned only on creation

	Description    string `json:"description"`
	RedirectionURI string `gorm:"column:oauth2_redirection_uri" json:"oauth2_redirection_uri"`

	GTClientCredentials bool `gorm:"column:oauth2_gt_client_active" json:"oauth2_gt_client_active"`
	GTAuthCode          bool `gorm:"column:oauth2_gt_authcode_active" json:"oauth2_gt_authcode_active"`
	GTImplicit          bool `gorm:"column:oauth2_gt_implicit_active" json:"oauth2_gt_implicit_active"`
	GTResourceOwner     bool `gorm:"column:oauth2_gt_resourceowner_active" json:"oauth2_gt_resourceowner_active"`

	// ClientCredentialsUserID is the LMS user impersonated by tokens issued
	// through the client-credentials grant. Zero means not configured.
	ClientCredentialsUserID uint `gorm:"column:oauth2_gt_client_user" json:"oauth2_gt_client_user"`

	UserRestrictionActive bool `gorm:"column:oauth2_user_restriction_active" json:"oauth2_user_restriction_active"`
	IPRestrictionActive   bool `gorm:"column:ip_restriction_active" json:"ip_restriction_active"`

	ConsentMessageActive bool   `gorm:"column:oauth2_consent_message_active" json:"oauth2_consent_message_active"`
	ConsentMessage       string `gorm:"column:oauth2_consent_message" json:"oauth2_consent_message"`

	AuthCodeRefreshActive      bool `gorm:"column:oauth2_authcode_refresh_active" json:"oauth2_authcode_refresh_active"`
	ResourceOwnerRefreshActive bool `gorm:"column:oauth2_resource_refresh_active" json:"oauth2_resource_refresh_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Client) TableName() string {
	return "rest_clients"
}
