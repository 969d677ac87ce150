package models

import (
	"time"
)

// NewsItem is a personal-desktop news entry shown to one LMS user.
type NewsItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (NewsItem) TableName() string {
	return "lms_news"
}
