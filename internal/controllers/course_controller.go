package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/campusware/lms-rest-api/internal/services"
	"github.com/gin-gonic/gin"
)

// CourseController handles the course pass-through endpoints.
type CourseController struct {
	service services.CourseService
}

func NewCourseController(service services.CourseService) *CourseController {
	return &CourseController{service: service}
}

// GetCourse godoc
// @Summary Course info and content
// @Tags Courses
// @Produce json
// @Param ref_id path int true "Course reference ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/courses/{ref_id} [get]
func (cc *CourseController) GetCourse(c *gin.Context) {
	refID, err := strconv.ParseUint(c.Param("ref_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_ref_id"})
		return
	}

	info, err := cc.service.GetCourseInfo(uint(refID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course_not_found"})
		return
	}
	content, err := cc.service.GetCourseContent(uint(refID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_retrieve_course"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"courseinfo":     info,
		"coursecontents": content,
	})
}

// CreateCourse godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param course body object{ref_id=int,title=string,description=string} true "Course details"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/courses [post]
func (cc *CourseController) CreateCourse(c *gin.Context) {
	var req struct {
		ParentRefID uint   `json:"ref_id"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	refID, err := cc.service.CreateCourse(c.GetUint("userID"), req.ParentRefID, req.Title, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "course_creation_failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ref_id": refID, "parent_ref_id": req.ParentRefID})
}

// DeleteCourse godoc
// @Summary Delete course
// @Tags Courses
// @Produce json
// @Param ref_id path int true "Course reference ID"
// @Success 204 "Course deleted"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/courses/{ref_id} [delete]
func (cc *CourseController) DeleteCourse(c *gin.Context) {
	refID, err := strconv.ParseUint(c.Param("ref_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_ref_id"})
		return
	}

	if err := cc.service.DeleteCourse(uint(refID)); err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "course_deletion_failed"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// JoinCourse godoc
// @Summary Join course
// @Description Subscribe the authenticated user to a course
// @Tags Courses
// @Produce json
// @Param ref_id path int true "Course reference ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/courses/{ref_id}/join [post]
func (cc *CourseController) JoinCourse(c *gin.Context) {
	refID, err := strconv.ParseUint(c.Param("ref_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_ref_id"})
		return
	}

	userID := c.GetUint("userID")
	if err := cc.service.JoinCourse(userID, uint(refID)); err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "join_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "ref_id": refID, "status": "joined"})
}

// LeaveCourse godoc
// @Summary Leave course
// @Description Remove the authenticated user from a course
// @Tags Courses
// @Produce json
// @Param ref_id path int true "Course reference ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/courses/{ref_id}/leave [post]
func (cc *CourseController) LeaveCourse(c *gin.Context) {
	refID, err := strconv.ParseUint(c.Param("ref_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_ref_id"})
		return
	}

	userID := c.GetUint("userID")
	if err := cc.service.LeaveCourse(userID, uint(refID)); err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_a_member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leave_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "ref_id": refID, "status": "left"})
}
