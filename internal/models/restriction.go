package models

// AllowedUser maps a client to one LMS user permitted to authenticate via the
// authcode, implicit and resource-owner grants while the client's user
// restriction is active. The set is always replaced as a whole.
type AllowedUser struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ClientID uint `gorm:"index;not null" json:"client_id"`
	UserID   uint `gorm:"not null" json:"user_id"`
}

func (AllowedUser) TableName() string {
	return "rest_client_users"
}

// AllowedIP maps a client to one source address permitted to use its tokens
// while the client's IP restriction is active. Addresses are stored trimmed.
type AllowedIP struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ClientID uint   `gorm:"index;not null" json:"client_id"`
	IP       string `gorm:"not null" json:"ip"`
}

func (AllowedIP) TableName() string {
	return "rest_client_ips"
}
