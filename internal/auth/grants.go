package auth

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campusware/lms-rest-api/internal/lms"
	"github.com/campusware/lms-rest-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const authCodeLifetime = 10 * time.Minute

// HandleToken handles the token endpoint for all four grant types
// @Summary Token Endpoint
// @Description Obtain an access token. The grant must be enabled for the client.
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Grant type: client_credentials, password, authorization_code or refresh_token"
// @Param client_id formData string true "Client api-key"
// @Param client_secret formData string true "Client secret"
// @Param username formData string false "Resource owner login (password grant)"
// @Param password formData string false "Resource owner password (password grant)"
// @Param code formData string false "Authorization code (authorization_code grant)"
// @Param refresh_token formData string false "Refresh token (refresh_token grant)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /oauth/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	params := o.resolveFormParams(c)

	switch c.PostForm("grant_type") {
	case "client_credentials":
		o.handleClientCredentials(c, params)
	case "password":
		o.handlePassword(c, params)
	case "authorization_code":
		o.handleAuthorizationCode(c, params)
	case "refresh_token":
		o.handleRefreshToken(c, params)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type"})
	}
}

// resolveFormParams applies the client_id naming fixup to the submitted form:
// the OAuth2 client_id arrives as api_key, the LMS tenant stays client_id.
func (o *OAuthService) resolveFormParams(c *gin.Context) map[string]string {
	raw := map[string]string{}
	for _, key := range []string{"client_id", "lms_client_id", "client_secret", "username", "password", "code", "redirect_uri", "refresh_token", "scope"} {
		if v, ok := c.GetPostForm(key); ok {
			raw[key] = v
		}
	}
	return lms.ResolveParams(raw, "")
}

func (o *OAuthService) handleClientCredentials(c *gin.Context, params map[string]string) {
	apiKey := params["api_key"]

	if !o.registry.IsClientCredentialsEnabled(apiKey) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized_client"})
		return
	}
	if !o.verifyClientSecret(c, apiKey, params["client_secret"]) {
		return
	}

	// Client-credentials tokens act as the user configured on the client
	impersonated, err := o.registry.GetClientCredentialsUser(apiKey)
	if err != nil || impersonated == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized_client"})
		return
	}

	ti, err := o.server.Manager.GenerateAccessToken(c, oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     apiKey,
		ClientSecret: params["client_secret"],
		UserID:       strconv.FormatUint(uint64(impersonated), 10),
		Scope:        params["scope"],
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_generation_failed"})
		return
	}
	o.recordGrantType(ti, "client_credentials")

	// Client-credentials tokens are never refreshable
	c.JSON(http.StatusOK, gin.H{
		"access_token": ti.GetAccess(),
		"token_type":   "Bearer",
		"expires_in":   int64(ti.GetAccessExpiresIn().Seconds()),
		"scope":        ti.GetScope(),
	})
}

func (o *OAuthService) handlePassword(c *gin.Context, params map[string]string) {
	apiKey := params["api_key"]

	if !o.registry.IsResourceOwnerEnabled(apiKey) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized_client"})
		return
	}
	if !o.verifyClientSecret(c, apiKey, params["client_secret"]) {
		return
	}

	userID, err := o.users.Authenticate(params["username"], params["password"])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_grant"})
		return
	}
	if !o.userAllowed(apiKey, userID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized_client"})
		return
	}

	ti, err := o.server.Manager.GenerateAccessToken(c, oauth2.PasswordCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     apiKey,
		ClientSecret: params["client_secret"],
		UserID:       strconv.FormatUint(uint64(userID), 10),
		Scope:        params["scope"],
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_generation_failed"})
		return
	}
	o.recordGrantType(ti, "password")

	response := gin.H{
		"access_token": ti.GetAccess(),
		"token_type":   "Bearer",
		"expires_in":   int64(ti.GetAccessExpiresIn().Seconds()),
		"scope":        ti.GetScope(),
	}
	if o.registry.IsResourceOwnerRefreshEnabled(apiKey) && ti.GetRefresh() != "" {
		response["refresh_token"] = ti.GetRefresh()
	}
	c.JSON(http.StatusOK, response)
}

func (o *OAuthService) handleAuthorizationCode(c *gin.Context, params map[string]string) {
	apiKey := params["api_key"]

	if !o.registry.IsAuthCodeEnabled(apiKey) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized_client"})
		return
	}
	if !o.verifyClientSecret(c, apiKey, params["client_secret"]) {
		return
	}

	var authCode models.OAuthCode
	if err := o.db.Where("code = ?", params["code"]).First(&authCode).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant"})
		return
	}
	if time.Now().After(authCode.ExpiresAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant"})
		return
	}
	if authCode.APIKey != apiKey {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant"})
		return
	}

	// The manager fetches, validates and consumes the code through the token
	// store; codes are single use.
	ti, err := o.server.Manager.GenerateAccessToken(c, oauth2.AuthorizationCode, &oauth2.TokenGenerateRequest{
		ClientID:     apiKey,
		ClientSecret: params["client_secret"],
		Code:         params["code"],
		RedirectURI:  params["redirect_uri"],
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant"})
		return
	}
	o.recordGrantType(ti, "authorization_code")

	response := gin.H{
		"access_token": ti.GetAccess(),
		"token_type":   "Bearer",
		"expires_in":   int64(ti.GetAccessExpiresIn().Seconds()),
		"scope":        ti.GetScope(),
	}
	if o.registry.IsAuthCodeRefreshEnabled(apiKey) && ti.GetRefresh() != "" {
		response["refresh_token"] = ti.GetRefresh()
	}
	c.JSON(http.StatusOK, response)
}

func (o *OAuthService) handleRefreshToken(c *gin.Context, params map[string]string) {
	apiKey := params["api_key"]

	if !o.verifyClientSecret(c, apiKey, params["client_secret"]) {
		return
	}

	var token models.OAuthToken
	if err := o.db.Where("refresh_token = ?", params["refresh_token"]).First(&token).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant"})
		return
	}
	if token.APIKey != apiKey {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant"})
		return
	}

	// Refresh policy is per minting grant
	switch token.GrantType {
	case "authorization_code":
		if !o.registry.IsAuthCodeRefreshEnabled(apiKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized_client"})
			return
		}
	case "password":
		if !o.registry.IsResourceOwnerRefreshEnabled(apiKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized_client"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant"})
		return
	}

	var userID string
	if token.UserID != nil {
		userID = *token.UserID
	}
	// The password token config shares lifetimes with the authcode config and
	// keeps the manager out of the authorization-code lookup path.
	ti, err := o.server.Manager.GenerateAccessToken(c, oauth2.PasswordCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     apiKey,
		ClientSecret: params["client_secret"],
		UserID:       userID,
		Scope:        token.Scopes,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_generation_failed"})
		return
	}
	o.recordGrantType(ti, token.GrantType)

	// The superseded access token is revoked
	o.db.Delete(&token)

	response := gin.H{
		"access_token": ti.GetAccess(),
		"token_type":   "Bearer",
		"expires_in":   int64(ti.GetAccessExpiresIn().Seconds()),
		"scope":        ti.GetScope(),
	}
	if ti.GetRefresh() != "" {
		response["refresh_token"] = ti.GetRefresh()
	}
	c.JSON(http.StatusOK, response)
}

// HandleAuthorize implements the authorization endpoint for the
// authorization-code and implicit grants. The resource owner authenticates
// with LMS credentials; when the client has an active consent message the
// request must carry consented=1, otherwise the message is returned.
// @Summary Authorization Endpoint
// @Description Authenticate a resource owner and issue a code or an implicit token
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param response_type formData string true "code or token"
// @Param client_id formData string true "Client api-key"
// @Param client_secret formData string false "Client secret, required for response_type=token"
// @Param username formData string true "Resource owner login"
// @Param password formData string true "Resource owner password"
// @Param consented formData string false "Set to 1 to accept the consent message"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /oauth/authorize [post]
func (o *OAuthService) HandleAuthorize(c *gin.Context) {
	params := o.resolveFormParams(c)
	apiKey := params["api_key"]
	responseType := c.PostForm("response_type")

	switch responseType {
	case "code":
		if !o.registry.IsAuthCodeEnabled(apiKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized_client"})
			return
		}
	case "token":
		if !o.registry.IsImplicitEnabled(apiKey) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized_client"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_response_type"})
		return
	}

	userID, err := o.users.Authenticate(params["username"], params["password"])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access_denied"})
		return
	}
	if !o.userAllowed(apiKey, userID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized_client"})
		return
	}

	if o.registry.IsConsentMessageEnabled(apiKey) && c.PostForm("consented") != "1" {
		c.JSON(http.StatusOK, gin.H{
			"consent_required": true,
			"consent_message":  o.registry.GetConsentMessage(apiKey),
		})
		return
	}

	userIDStr := strconv.FormatUint(uint64(userID), 10)
	if responseType == "code" {
		code := models.OAuthCode{
			Code:        uuid.New().String(),
			APIKey:      apiKey,
			UserID:      userIDStr,
			Scopes:      params["scope"],
			RedirectURI: params["redirect_uri"],
			ExpiresAt:   time.Now().Add(authCodeLifetime),
		}
		if err := o.db.Create(&code).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "code_generation_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": code.Code, "expires_in": int64(authCodeLifetime.Seconds())})
		return
	}

	if !o.verifyClientSecret(c, apiKey, params["client_secret"]) {
		return
	}
	ti, err := o.server.Manager.GenerateAccessToken(c, oauth2.Implicit, &oauth2.TokenGenerateRequest{
		ClientID:     apiKey,
		ClientSecret: params["client_secret"],
		UserID:       userIDStr,
		Scope:        params["scope"],
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_generation_failed"})
		return
	}
	o.recordGrantType(ti, "implicit")

	c.JSON(http.StatusOK, gin.H{
		"access_token": ti.GetAccess(),
		"token_type":   "Bearer",
		"expires_in":   int64(ti.GetAccessExpiresIn().Seconds()),
	})
}

// HandleConsentInfo returns the consent message configured for a client.
// @Summary Consent message
// @Description Returns whether a consent message is active for the client and its text
// @Tags OAuth2
// @Produce json
// @Param api_key query string true "Client api-key"
// @Success 200 {object} map[string]interface{}
// @Router /oauth/consent [get]
func (o *OAuthService) HandleConsentInfo(c *gin.Context) {
	apiKey := c.Query("api_key")
	if apiKey == "" {
		apiKey = c.Query("client_id")
	}
	c.JSON(http.StatusOK, gin.H{
		"consent_message_active": o.registry.IsConsentMessageEnabled(apiKey),
		"consent_message":        o.registry.GetConsentMessage(apiKey),
	})
}

func (o *OAuthService) verifyClientSecret(c *gin.Context, apiKey, secret string) bool {
	client, err := o.registry.GetClient(apiKey)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.APISecret), []byte(secret)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return false
	}
	return true
}

func (o *OAuthService) userAllowed(apiKey string, userID uint) bool {
	allowed, err := o.registry.GetAllowedUsers(apiKey)
	if err != nil {
		return false
	}
	if allowed.Unrestricted {
		return true
	}
	for _, id := range allowed.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// recordGrantType stamps the persisted token row with the grant that minted
// it, so the refresh_token grant can apply the per-grant refresh policy.
func (o *OAuthService) recordGrantType(ti oauth2.TokenInfo, grantType string) {
	o.db.Model(&models.OAuthToken{}).
		Where("access_token = ?", ti.GetAccess()).
		Update("grant_type", grantType)
}
