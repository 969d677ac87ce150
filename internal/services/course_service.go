package services

import (
	"errors"
	"time"

	"github.com/campusware/lms-rest-api/internal/models"
	"gorm.io/gorm"
)

var ErrCourseNotFound = errors.New("course_not_found")

// CourseService provides the course pass-through operations: info, content
// listing, creation, deletion and membership changes.
type CourseService interface {
	GetCourseInfo(refID uint) (models.Course, error)
	GetCourseContent(refID uint) ([]models.CourseItem, error)
	CreateCourse(ownerID, parentRefID uint, title, description string) (uint, error)
	DeleteCourse(refID uint) error
	JoinCourse(userID, refID uint) error
	LeaveCourse(userID, refID uint) error
}

type courseService struct {
	db *gorm.DB
}

// NewCourseService creates a new instance of CourseService
func NewCourseService(db *gorm.DB) CourseService {
	return &courseService{db: db}
}

func (s *courseService) GetCourseInfo(refID uint) (models.Course, error) {
	var course models.Course
	if err := s.db.Where("ref_id = ?", refID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	return course, nil
}

func (s *courseService) GetCourseContent(refID uint) ([]models.CourseItem, error) {
	var items []models.CourseItem
	if err := s.db.Where("course_ref_id = ?", refID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *courseService) CreateCourse(ownerID, parentRefID uint, title, description string) (uint, error) {
	course := models.Course{
		ParentRefID: parentRefID,
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
	}
	if err := s.db.Create(&course).Error; err != nil {
		return 0, err
	}
	return course.RefID, nil
}

func (s *courseService) DeleteCourse(refID uint) error {
	result := s.db.Where("ref_id = ?", refID).Delete(&models.Course{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	// Membership and content rows go with the course
	if err := s.db.Where("course_ref_id = ?", refID).Delete(&models.CourseMember{}).Error; err != nil {
		return err
	}
	return s.db.Where("course_ref_id = ?", refID).Delete(&models.CourseItem{}).Error
}

func (s *courseService) JoinCourse(userID, refID uint) error {
	if _, err := s.GetCourseInfo(refID); err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.CourseMember{}).
		Where("course_ref_id = ? AND user_id = ?", refID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // already a member
	}

	member := models.CourseMember{CourseRefID: refID, UserID: userID, JoinedAt: time.Now()}
	return s.db.Create(&member).Error
}

func (s *courseService) LeaveCourse(userID, refID uint) error {
	result := s.db.Where("course_ref_id = ? AND user_id = ?", refID, userID).Delete(&models.CourseMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}
