package services

import (
	"github.com/campusware/lms-rest-api/internal/models"
	"gorm.io/gorm"
)

// NewsService reads personal-desktop news out of the LMS tables.
type NewsService interface {
	// GetPDNewsForUser retrieves the personal desktop news of one user
	GetPDNewsForUser(userID uint) ([]models.NewsItem, error)
}

type newsService struct {
	db *gorm.DB
}

// NewNewsService creates a new instance of NewsService
func NewNewsService(db *gorm.DB) NewsService {
	return &newsService{db: db}
}

func (s *newsService) GetPDNewsForUser(userID uint) ([]models.NewsItem, error) {
	var items []models.NewsItem
	if err := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
