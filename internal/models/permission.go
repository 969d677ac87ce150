package models

// Permission grants a client access to one route pattern + HTTP verb.
// Patterns are stored with the trailing slash stripped.
type Permission struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ClientID uint   `gorm:"index;not null" json:"client_id"`
	Pattern  string `gorm:"not null" json:"pattern"`
	Verb     string `gorm:"not null" json:"verb"`
}

func (Permission) TableName() string {
	return "rest_client_permissions"
}
