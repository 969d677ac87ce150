package lms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveParams(t *testing.T) {
	testCases := []struct {
		name     string
		params   map[string]string
		override string
		expected map[string]string
	}{
		{
			name:   "oauth2 client_id becomes api_key",
			params: map[string]string{"client_id": "my-app"},
			expected: map[string]string{
				"client_id": "my-app",
				"api_key":   "my-app",
			},
		},
		{
			name: "lms_client_id becomes the tenant client_id",
			params: map[string]string{
				"client_id":     "my-app",
				"lms_client_id": "campus01",
			},
			expected: map[string]string{
				"client_id":     "campus01",
				"lms_client_id": "campus01",
				"api_key":       "my-app",
			},
		},
		{
			name: "explicit override wins over both",
			params: map[string]string{
				"client_id":     "my-app",
				"lms_client_id": "campus01",
			},
			override: "campus02",
			expected: map[string]string{
				"client_id":     "campus02",
				"lms_client_id": "campus01",
				"api_key":       "my-app",
			},
		},
		{
			name:     "no client parameters at all",
			params:   map[string]string{"username": "root"},
			expected: map[string]string{"username": "root"},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			result := ResolveParams(tt.params, tt.override)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestResolveParamsDoesNotMutateInput(t *testing.T) {
	params := map[string]string{"client_id": "my-app", "lms_client_id": "campus01"}
	_ = ResolveParams(params, "campus02")

	assert.Equal(t, "my-app", params["client_id"])
	assert.Equal(t, "campus01", params["lms_client_id"])
	_, hasAPIKey := params["api_key"]
	assert.False(t, hasAPIKey)
}
