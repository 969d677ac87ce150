package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/campusware/lms-rest-api/internal/lms"
	"github.com/campusware/lms-rest-api/internal/models"
	"github.com/campusware/lms-rest-api/internal/registry"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOAuthRouter(t *testing.T) (*gorm.DB, registry.ClientRegistry, *gin.Engine) {
	db := setupTestDB(t)
	reg := registry.NewClientRegistry(db)
	service := NewOAuthService(db, reg, lms.NewGormUserDirectory(db), testJWTSecret, time.Hour, 24*time.Hour)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/oauth/token", service.HandleToken)
	router.POST("/oauth/authorize", service.HandleAuthorize)
	router.GET("/oauth/consent", service.HandleConsentInfo)
	return db, reg, router
}

func postForm(router *gin.Engine, path string, form url.Values) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestClientCredentialsGrant(t *testing.T) {
	db, reg, router := setupOAuthRouter(t)

	userID := createLMSUser(t, db, "service", "irrelevant", 4)
	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:                  "cc-client",
		GTClientCredentials:     true,
		ClientCredentialsUserID: userID,
	}, "cc-secret")

	w, body := postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"cc-client"},
		"client_secret": {"cc-secret"},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])

	// Client-credentials tokens are never refreshable
	_, hasRefresh := body["refresh_token"]
	assert.False(t, hasRefresh)

	// The minting grant is stamped on the persisted row
	var row models.OAuthToken
	require.NoError(t, db.Where("access_token = ?", body["access_token"]).First(&row).Error)
	assert.Equal(t, "client_credentials", row.GrantType)
}

func TestClientCredentialsGrantDisabled(t *testing.T) {
	_, reg, router := setupOAuthRouter(t)

	createTestClient(t, reg, registry.CreateClientInput{APIKey: "plain-client"}, "plain-secret")

	w, body := postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"plain-client"},
		"client_secret": {"plain-secret"},
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized_client", body["error"])
}

func TestClientCredentialsWrongSecret(t *testing.T) {
	db, reg, router := setupOAuthRouter(t)

	userID := createLMSUser(t, db, "service", "irrelevant", 4)
	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:                  "cc-client",
		GTClientCredentials:     true,
		ClientCredentialsUserID: userID,
	}, "cc-secret")

	w, body := postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"cc-client"},
		"client_secret": {"wrong"},
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_client", body["error"])
}

func TestUnsupportedGrantType(t *testing.T) {
	_, _, router := setupOAuthRouter(t)

	w, body := postForm(router, "/oauth/token", url.Values{
		"grant_type": {"device_code"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unsupported_grant_type", body["error"])
}

func TestPasswordGrantWithRefresh(t *testing.T) {
	db, reg, router := setupOAuthRouter(t)

	createLMSUser(t, db, "jdoe", "secret", 4)
	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:                     "ro-client",
		GTResourceOwner:            true,
		ResourceOwnerRefreshActive: true,
	}, "ro-secret")

	w, body := postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {"ro-client"},
		"client_secret": {"ro-secret"},
		"username":      {"jdoe"},
		"password":      {"secret"},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
}

func TestPasswordGrantRefreshPolicyOff(t *testing.T) {
	db, reg, router := setupOAuthRouter(t)

	createLMSUser(t, db, "jdoe", "secret", 4)
	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:          "no-refresh-client",
		GTResourceOwner: true,
	}, "ro-secret")

	w, body := postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {"no-refresh-client"},
		"client_secret": {"ro-secret"},
		"username":      {"jdoe"},
		"password":      {"secret"},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["access_token"])
	_, hasRefresh := body["refresh_token"]
	assert.False(t, hasRefresh)
}

func TestPasswordGrantBadCredentials(t *testing.T) {
	db, reg, router := setupOAuthRouter(t)

	createLMSUser(t, db, "jdoe", "secret", 4)
	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:          "ro-client",
		GTResourceOwner: true,
	}, "ro-secret")

	w, body := postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {"ro-client"},
		"client_secret": {"ro-secret"},
		"username":      {"jdoe"},
		"password":      {"wrong"},
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_grant", body["error"])
}

func TestPasswordGrantUserRestriction(t *testing.T) {
	db, reg, router := setupOAuthRouter(t)

	createLMSUser(t, db, "jdoe", "secret", 4)
	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:                "restricted-client",
		GTResourceOwner:       true,
		UserRestrictionActive: true,
		AccessUserCSV:         "999",
	}, "ro-secret")

	w, body := postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {"restricted-client"},
		"client_secret": {"ro-secret"},
		"username":      {"jdoe"},
		"password":      {"secret"},
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized_client", body["error"])
}

func TestAuthorizeConsentFlow(t *testing.T) {
	db, reg, router := setupOAuthRouter(t)

	createLMSUser(t, db, "jdoe", "secret", 4)
	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:                "consent-client",
		GTAuthCode:            true,
		AuthCodeRefreshActive: true,
		ConsentMessage:        "This app will read your courses.",
		ConsentMessageActive:  true,
	}, "code-secret")

	authorizeForm := url.Values{
		"response_type": {"code"},
		"client_id":     {"consent-client"},
		"username":      {"jdoe"},
		"password":      {"secret"},
	}

	// First pass: the consent message comes back instead of a code
	w, body := postForm(router, "/oauth/authorize", authorizeForm)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["consent_required"])
	assert.Equal(t, "This app will read your courses.", body["consent_message"])

	// Second pass with consent given
	authorizeForm.Set("consented", "1")
	w, body = postForm(router, "/oauth/authorize", authorizeForm)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	code, _ := body["code"].(string)
	require.NotEmpty(t, code)

	// Exchange the code; the authcode refresh policy grants a refresh token
	w, body = postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {"consent-client"},
		"client_secret": {"code-secret"},
		"code":          {code},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	// Codes are single use
	w, body = postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {"consent-client"},
		"client_secret": {"code-secret"},
		"code":          {code},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_grant", body["error"])
}

func TestAuthorizeUnsupportedResponseType(t *testing.T) {
	_, reg, router := setupOAuthRouter(t)

	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:     "any-client",
		GTAuthCode: true,
	}, "x")

	w, body := postForm(router, "/oauth/authorize", url.Values{
		"response_type": {"id_token"},
		"client_id":     {"any-client"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unsupported_response_type", body["error"])
}

func TestAuthorizeGrantDisabled(t *testing.T) {
	db, reg, router := setupOAuthRouter(t)

	createLMSUser(t, db, "jdoe", "secret", 4)
	createTestClient(t, reg, registry.CreateClientInput{APIKey: "no-code-client"}, "x")

	w, body := postForm(router, "/oauth/authorize", url.Values{
		"response_type": {"code"},
		"client_id":     {"no-code-client"},
		"username":      {"jdoe"},
		"password":      {"secret"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized_client", body["error"])
}

func TestRefreshTokenGrantPolicy(t *testing.T) {
	db, reg, router := setupOAuthRouter(t)

	createLMSUser(t, db, "jdoe", "secret", 4)
	clientID := createTestClient(t, reg, registry.CreateClientInput{
		APIKey:                     "refresh-client",
		GTResourceOwner:            true,
		ResourceOwnerRefreshActive: true,
	}, "ro-secret")

	w, body := postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {"refresh-client"},
		"client_secret": {"ro-secret"},
		"username":      {"jdoe"},
		"password":      {"secret"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshToken, _ := body["refresh_token"].(string)
	require.NotEmpty(t, refreshToken)
	firstAccess := body["access_token"]

	// The refresh grant honors the policy of the minting grant
	w, body = postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {"refresh-client"},
		"client_secret": {"ro-secret"},
		"refresh_token": {refreshToken},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["access_token"])
	assert.NotEqual(t, firstAccess, body["access_token"])

	// The superseded token row is gone
	var count int64
	require.NoError(t, db.Model(&models.OAuthToken{}).
		Where("refresh_token = ?", refreshToken).Count(&count).Error)
	assert.Zero(t, count)

	// With the policy switched off, outstanding refresh tokens stop working
	newRefresh, _ := body["refresh_token"].(string)
	require.NotEmpty(t, newRefresh)
	require.NoError(t, reg.UpdateField(clientID, "oauth2_resource_refresh_active", "0"))

	w, body = postForm(router, "/oauth/token", url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {"refresh-client"},
		"client_secret": {"ro-secret"},
		"refresh_token": {newRefresh},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized_client", body["error"])
}

func TestConsentInfoEndpoint(t *testing.T) {
	_, reg, router := setupOAuthRouter(t)

	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:               "consent-client",
		ConsentMessage:       "Please agree.",
		ConsentMessageActive: true,
	}, "x")

	req := httptest.NewRequest(http.MethodGet, "/oauth/consent?api_key=consent-client", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["consent_message_active"])
	assert.Equal(t, "Please agree.", body["consent_message"])
}
