package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusware/lms-rest-api/internal/models"
	"github.com/campusware/lms-rest-api/internal/registry"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRegistry(t *testing.T) registry.ClientRegistry {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Client{},
		&models.Permission{},
		&models.AllowedUser{},
		&models.AllowedIP{},
	)
	require.NoError(t, err)

	return registry.NewClientRegistry(db)
}

// newTestRouter builds a router that injects the given apiKey into the
// context before the middleware under test, the way TokenAuth would.
func newTestRouter(apiKey string, mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if apiKey != "" {
			c.Set("apiKey", apiKey)
		}
	})
	router.Use(mw)
	router.GET("/api/v1/search", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func performRequest(router *gin.Engine, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIPRestrictionInactiveClientPasses(t *testing.T) {
	reg := setupRegistry(t)
	_, err := reg.CreateClient(registry.CreateClientInput{
		APIKey:      "open-client",
		APISecret:   "hash",
		AccessIPCSV: "10.0.0.1",
	})
	require.NoError(t, err)

	router := newTestRouter("open-client", IPRestriction(reg))
	w := performRequest(router, http.MethodGet, "/api/v1/search", "203.0.113.9:4711")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIPRestrictionAllowsListedAddress(t *testing.T) {
	reg := setupRegistry(t)
	_, err := reg.CreateClient(registry.CreateClientInput{
		APIKey:              "locked-client",
		APISecret:           "hash",
		IPRestrictionActive: true,
		AccessIPCSV:         "10.0.0.1, 10.0.0.2",
	})
	require.NoError(t, err)

	router := newTestRouter("locked-client", IPRestriction(reg))

	w := performRequest(router, http.MethodGet, "/api/v1/search", "10.0.0.2:4711")
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/search", "10.0.0.3:4711")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ip_not_allowed")
}

func TestIPRestrictionEmptyListBlocksEveryone(t *testing.T) {
	reg := setupRegistry(t)
	_, err := reg.CreateClient(registry.CreateClientInput{
		APIKey:              "empty-list-client",
		APISecret:           "hash",
		IPRestrictionActive: true,
	})
	require.NoError(t, err)

	router := newTestRouter("empty-list-client", IPRestriction(reg))
	w := performRequest(router, http.MethodGet, "/api/v1/search", "10.0.0.1:4711")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIPRestrictionWithoutAPIKeyPasses(t *testing.T) {
	reg := setupRegistry(t)

	router := newTestRouter("", IPRestriction(reg))
	w := performRequest(router, http.MethodGet, "/api/v1/search", "10.0.0.1:4711")
	assert.Equal(t, http.StatusOK, w.Code)
}
