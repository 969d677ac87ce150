package models

import (
	"time"
)

// Course is addressed by its reference id, matching how the LMS exposes
// repository objects to clients.
type Course struct {
	RefID       uint      `gorm:"primaryKey;autoIncrement;column:ref_id" json:"ref_id"`
	ParentRefID uint      `gorm:"column:parent_ref_id" json:"parent_ref_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	OwnerID     uint      `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "lms_courses"
}

// CourseItem is one content entry (file, folder, exercise, ...) of a course.
type CourseItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CourseRefID uint   `gorm:"index;not null" json:"course_ref_id"`
	Title       string `gorm:"not null" json:"title"`
	Type        string `json:"type"`
}

func (CourseItem) TableName() string {
	return "lms_course_items"
}

// CourseMember records a user's membership in a course.
type CourseMember struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseRefID uint      `gorm:"index;not null" json:"course_ref_id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	JoinedAt    time.Time `json:"joined_at"`
}

func (CourseMember) TableName() string {
	return "lms_course_members"
}
