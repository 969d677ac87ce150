package controllers

import (
	"net/http"

	"github.com/campusware/lms-rest-api/internal/services"
	"github.com/gin-gonic/gin"
)

// SearchController handles the simple search endpoint.
type SearchController struct {
	service services.SearchService
}

func NewSearchController(service services.SearchService) *SearchController {
	return &SearchController{service: service}
}

// Search godoc
// @Summary Search courses and news
// @Tags Search
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} services.SearchResults
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/search [get]
func (sc *SearchController) Search(c *gin.Context) {
	results, err := sc.service.Search(c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search_failed"})
		return
	}
	c.JSON(http.StatusOK, results)
}
