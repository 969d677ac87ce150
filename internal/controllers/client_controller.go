package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/campusware/lms-rest-api/internal/models"
	"github.com/campusware/lms-rest-api/internal/registry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ClientController exposes the administrative client-registry API.
type ClientController struct {
	registry registry.ClientRegistry
}

func NewClientController(reg registry.ClientRegistry) *ClientController {
	return &ClientController{registry: reg}
}

// createClientRequest accepts permissions either as a structured array or as
// the JSON-text form older admin tooling submits; the raw message is decoded
// at this boundary, never inside the registry.
type createClientRequest struct {
	APIKey         string `json:"api_key"`
	Description    string `json:"description"`
	RedirectionURI string `json:"oauth2_redirection_uri"`

	Permissions json.RawMessage `json:"permissions"`

	ConsentMessage       string `json:"oauth2_consent_message"`
	ConsentMessageActive bool   `json:"oauth2_consent_message_active"`

	GTClientCredentials     bool `json:"oauth2_gt_client_active"`
	GTAuthCode              bool `json:"oauth2_gt_authcode_active"`
	GTImplicit              bool `json:"oauth2_gt_implicit_active"`
	GTResourceOwner         bool `json:"oauth2_gt_resourceowner_active"`
	ClientCredentialsUserID uint `json:"oauth2_gt_client_user"`

	UserRestrictionActive bool   `json:"oauth2_user_restriction_active"`
	AccessUserCSV         string `json:"access_user_csv"`
	IPRestrictionActive   bool   `json:"ip_restriction_active"`
	AccessIPCSV           string `json:"access_ip_csv"`

	AuthCodeRefreshActive      bool `json:"oauth2_authcode_refresh_active"`
	ResourceOwnerRefreshActive bool `json:"oauth2_resource_refresh_active"`
}

// ListClients godoc
// @Summary List REST clients
// @Description Get all registered clients with permissions and allow-lists
// @Tags Clients
// @Produce json
// @Success 200 {array} registry.ClientRecord
// @Failure 500 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/admin/clients [get]
func (cc *ClientController) ListClients(c *gin.Context) {
	clients, err := cc.registry.ListClients()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "failed to retrieve clients"))
		return
	}
	c.JSON(http.StatusOK, clients)
}

// CreateClient godoc
// @Summary Register REST client
// @Description Register a new client; the plain secret is returned only once
// @Tags Clients
// @Accept json
// @Produce json
// @Param client body createClientRequest true "Client details"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/admin/clients [post]
func (cc *ClientController) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	perms, err := registry.ParsePermissionList(req.Permissions)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrClientInvalidData, "malformed permissions payload"))
		return
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = uuid.New().String()
	}

	// Generate client secret
	secret := uuid.New().String()
	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "secret generation failed"))
		return
	}

	id, err := cc.registry.CreateClient(registry.CreateClientInput{
		APIKey:                     apiKey,
		APISecret:                  string(hashedSecret),
		Description:                req.Description,
		RedirectionURI:             req.RedirectionURI,
		ConsentMessage:             req.ConsentMessage,
		ConsentMessageActive:       req.ConsentMessageActive,
		Permissions:                perms,
		GTClientCredentials:        req.GTClientCredentials,
		GTAuthCode:                 req.GTAuthCode,
		GTImplicit:                 req.GTImplicit,
		GTResourceOwner:            req.GTResourceOwner,
		ClientCredentialsUserID:    req.ClientCredentialsUserID,
		UserRestrictionActive:      req.UserRestrictionActive,
		AccessUserCSV:              req.AccessUserCSV,
		IPRestrictionActive:        req.IPRestrictionActive,
		AccessIPCSV:                req.AccessIPCSV,
		AuthCodeRefreshActive:      req.AuthCodeRefreshActive,
		ResourceOwnerRefreshActive: req.ResourceOwnerRefreshActive,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "client creation failed"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         id,
		"api_key":    apiKey,
		"api_secret": secret, // Return plain secret only once
	})
}

// UpdateClientField godoc
// @Summary Update one client field
// @Description Update a single client attribute; permissions and allow-list CSVs are replaced as a whole
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param update body object{field=string,value=string} true "Field update"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/admin/clients/{id} [put]
func (cc *ClientController) UpdateClientField(c *gin.Context) {
	clientID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "invalid client id"))
		return
	}

	var req struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	err = cc.registry.UpdateField(uint(clientID), req.Field, req.Value)
	switch {
	case errors.Is(err, registry.ErrUnknownField):
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrUnknownField, "field cannot be updated",
			map[string]interface{}{"field": req.Field}))
	case errors.Is(err, registry.ErrMalformedPermissionPayload):
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrClientInvalidData, "malformed permissions payload"))
	case errors.Is(err, registry.ErrUpdateFailed):
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrClientNotFound, "no client with this id"))
	case err != nil:
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "update failed"))
	default:
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	}
}

// DeleteClient godoc
// @Summary Delete REST client
// @Description Delete a client and cascade over permissions, allow-lists and issued tokens
// @Tags Clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 204 "Client deleted successfully"
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/admin/clients/{id} [delete]
func (cc *ClientController) DeleteClient(c *gin.Context) {
	clientID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "invalid client id"))
		return
	}

	if err := cc.registry.DeleteClient(uint(clientID)); err != nil {
		if errors.Is(err, registry.ErrDeleteFailed) {
			c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrClientNotFound, "no client with this id"))
			return
		}
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "delete failed"))
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// ListPermissions godoc
// @Summary List client permissions
// @Tags Permissions
// @Produce json
// @Param id path string true "Client api-key"
// @Success 200 {array} models.Permission
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/admin/clients/{id}/permissions [get]
func (cc *ClientController) ListPermissions(c *gin.Context) {
	perms, err := cc.registry.ListPermissions(c.Param("id"))
	if err != nil {
		if errors.Is(err, registry.ErrUnknownClient) {
			c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrClientNotFound, "no client with this api-key"))
			return
		}
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "failed to retrieve permissions"))
		return
	}
	c.JSON(http.StatusOK, perms)
}

// AddPermission godoc
// @Summary Add a route permission
// @Description Grant the client access to one route pattern and verb
// @Tags Permissions
// @Accept json
// @Produce json
// @Param id path string true "Client api-key"
// @Param permission body object{pattern=string,verb=string} true "Permission"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/admin/clients/{id}/permissions [post]
func (cc *ClientController) AddPermission(c *gin.Context) {
	var req struct {
		Pattern string `json:"pattern" binding:"required"`
		Verb    string `json:"verb" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	id, err := cc.registry.AddPermission(c.Param("id"), req.Pattern, req.Verb)
	switch {
	case errors.Is(err, registry.ErrUnknownClient):
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrClientNotFound, "no client with this api-key"))
	case errors.Is(err, registry.ErrDuplicatePermission):
		c.JSON(http.StatusConflict, models.NewAPIError(models.ErrPermissionDuplicate, "permission already granted"))
	case err != nil:
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "permission creation failed"))
	default:
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

// GetPermission godoc
// @Summary Get one permission
// @Tags Permissions
// @Produce json
// @Param id path int true "Permission ID"
// @Success 200 {object} models.Permission
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/admin/permissions/{id} [get]
func (cc *ClientController) GetPermission(c *gin.Context) {
	permID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "invalid permission id"))
		return
	}

	perm, found, err := cc.registry.GetPermission(uint(permID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "failed to retrieve permission"))
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "no permission with this id"))
		return
	}
	c.JSON(http.StatusOK, perm)
}

// DeletePermission godoc
// @Summary Delete one permission
// @Tags Permissions
// @Produce json
// @Param id path int true "Permission ID"
// @Success 200 {object} map[string]int64
// @Security BearerAuth
// @Router /api/v1/admin/permissions/{id} [delete]
func (cc *ClientController) DeletePermission(c *gin.Context) {
	permID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "invalid permission id"))
		return
	}

	// Deleting an absent permission is not an error; the count says what happened
	removed, err := cc.registry.DeletePermission(uint(permID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "permission deletion failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
