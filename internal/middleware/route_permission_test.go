package middleware

import (
	"net/http"
	"testing"

	"github.com/campusware/lms-rest-api/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutePermissionAllowsGrantedRoute(t *testing.T) {
	reg := setupRegistry(t)
	_, err := reg.CreateClient(registry.CreateClientInput{
		APIKey:    "granted-client",
		APISecret: "hash",
		Permissions: []registry.PermissionEntry{
			{Pattern: "/api/v1/search", Verb: "GET"},
		},
	})
	require.NoError(t, err)

	router := newTestRouter("granted-client", RoutePermission(reg))
	w := performRequest(router, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutePermissionTrailingSlashNormalized(t *testing.T) {
	reg := setupRegistry(t)
	// Stored with a trailing slash, normalized on write and on lookup
	_, err := reg.CreateClient(registry.CreateClientInput{
		APIKey:    "slash-client",
		APISecret: "hash",
		Permissions: []registry.PermissionEntry{
			{Pattern: "/api/v1/search/", Verb: "GET"},
		},
	})
	require.NoError(t, err)

	router := newTestRouter("slash-client", RoutePermission(reg))
	w := performRequest(router, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutePermissionRejectsUngrantedVerb(t *testing.T) {
	reg := setupRegistry(t)
	_, err := reg.CreateClient(registry.CreateClientInput{
		APIKey:    "get-only-client",
		APISecret: "hash",
		Permissions: []registry.PermissionEntry{
			{Pattern: "/api/v1/search", Verb: "POST"},
		},
	})
	require.NoError(t, err)

	router := newTestRouter("get-only-client", RoutePermission(reg))
	w := performRequest(router, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "route_not_permitted")
}

func TestRoutePermissionRejectsClientWithoutGrants(t *testing.T) {
	reg := setupRegistry(t)
	_, err := reg.CreateClient(registry.CreateClientInput{
		APIKey:    "bare-client",
		APISecret: "hash",
	})
	require.NoError(t, err)

	router := newTestRouter("bare-client", RoutePermission(reg))
	w := performRequest(router, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoutePermissionRequiresAPIKey(t *testing.T) {
	reg := setupRegistry(t)

	router := newTestRouter("", RoutePermission(reg))
	w := performRequest(router, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "no_client_for_token")
}
