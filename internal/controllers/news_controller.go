package controllers

import (
	"net/http"
	"strconv"

	"github.com/campusware/lms-rest-api/internal/services"
	"github.com/gin-gonic/gin"
)

// NewsController handles the personal-desktop news endpoints.
type NewsController struct {
	service services.NewsService
}

func NewNewsController(service services.NewsService) *NewsController {
	return &NewsController{service: service}
}

// GetPDNews godoc
// @Summary Personal desktop news
// @Description Get the personal desktop news items of the authenticated user
// @Tags News
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/news/pdnews [get]
func (nc *NewsController) GetPDNews(c *gin.Context) {
	userID := c.GetUint("userID")
	items, err := nc.service.GetPDNewsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_retrieve_news"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "pdnews": items})
}

// GetPDNewsForUser godoc
// @Summary Personal desktop news of any user
// @Description Admin: get the personal desktop news items of the given user
// @Tags News
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/news/pdnews/{user_id} [get]
func (nc *NewsController) GetPDNewsForUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_user_id"})
		return
	}

	items, err := nc.service.GetPDNewsForUser(uint(userID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_retrieve_news"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "pdnews": items})
}
