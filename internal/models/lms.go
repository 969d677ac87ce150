package models

import (
	"time"
)

// AdminRoleID is the LMS role that marks a user as administrator.
const AdminRoleID uint = 2

// LMSUser mirrors the host LMS user table as far as the add-on needs it:
// login resolution, password verification and the admin-role check.
type LMSUser struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Login     string `gorm:"uniqueIndex;not null" json:"login"`
	Password  string `gorm:"not null" json:"-"` // bcrypt hash
	FullName  string `json:"full_name"`
	RoleID    uint   `json:"role_id"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LMSUser) TableName() string {
	return "lms_users"
}

// ObjectReference maps LMS reference ids to object ids. One object may be
// referenced from several places in the repository tree.
type ObjectReference struct {
	RefID uint `gorm:"primaryKey;column:ref_id" json:"ref_id"`
	ObjID uint `gorm:"index;column:obj_id;not null" json:"obj_id"`
}

func (ObjectReference) TableName() string {
	return "lms_object_references"
}
