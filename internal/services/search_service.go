package services

import (
	"strings"

	"github.com/campusware/lms-rest-api/internal/models"
	"gorm.io/gorm"
)

// SearchResults groups the hits of one search query by object type.
type SearchResults struct {
	Courses []models.Course   `json:"courses"`
	News    []models.NewsItem `json:"news"`
}

// SearchService performs the simple title/content search the mobile
// endpoints expose.
type SearchService interface {
	Search(query string) (SearchResults, error)
}

type searchService struct {
	db *gorm.DB
}

// NewSearchService creates a new instance of SearchService
func NewSearchService(db *gorm.DB) SearchService {
	return &searchService{db: db}
}

func (s *searchService) Search(query string) (SearchResults, error) {
	results := SearchResults{Courses: []models.Course{}, News: []models.NewsItem{}}
	query = strings.TrimSpace(query)
	if query == "" {
		return results, nil
	}
	pattern := "%" + query + "%"

	if err := s.db.Where("title LIKE ? OR description LIKE ?", pattern, pattern).
		Find(&results.Courses).Error; err != nil {
		return SearchResults{}, err
	}
	if err := s.db.Where("title LIKE ? OR content LIKE ?", pattern, pattern).
		Find(&results.News).Error; err != nil {
		return SearchResults{}, err
	}
	return results, nil
}
