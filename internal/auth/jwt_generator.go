package auth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/campusware/lms-rest-api/internal/lms"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LMSJWTAccessGenerate generates JWT access tokens whose claims carry the
// authenticated LMS user id, the resolved role and the client api-key.
type LMSJWTAccessGenerate struct {
	SignedKey    []byte
	SignedMethod jwt.SigningMethod
	Users        lms.UserDirectory
}

// NewLMSJWTAccessGenerate creates a new JWT access token generator
func NewLMSJWTAccessGenerate(key []byte, method jwt.SigningMethod, users lms.UserDirectory) *LMSJWTAccessGenerate {
	return &LMSJWTAccessGenerate{
		SignedKey:    key,
		SignedMethod: method,
		Users:        users,
	}
}

// Token generates a JWT access token. Called by the OAuth2 library.
func (g *LMSJWTAccessGenerate) Token(ctx context.Context, data *oauth2.GenerateBasic, isGenRefresh bool) (string, string, error) {
	// jti keeps tokens unique even when two are minted for the same client
	// and user within one second
	claims := jwt.MapClaims{
		"aud": data.Client.GetID(),
		"jti": uuid.New().String(),
		"iat": data.TokenInfo.GetAccessCreateAt().Unix(),
		"exp": data.TokenInfo.GetAccessCreateAt().Add(data.TokenInfo.GetAccessExpiresIn()).Unix(),
	}

	// For the client-credentials grant GenerateBasic.UserID is empty and the
	// impersonated user comes from the client configuration.
	userID := data.UserID
	if userID == "" {
		userID = data.Client.GetUserID()
	}
	if userID == "" {
		return "", "", fmt.Errorf("cannot generate token: no user ID available")
	}
	claims["uid"] = userID

	// Resolve the role from the LMS directory so a stale token can never
	// carry a role the user no longer has at issuance time.
	role, err := g.getUserRole(userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve user role: %w", err)
	}
	claims["role"] = role

	if data.TokenInfo.GetScope() != "" {
		claims["scope"] = data.TokenInfo.GetScope()
	}

	token := jwt.NewWithClaims(g.SignedMethod, claims)
	access, err := token.SignedString(g.SignedKey)
	if err != nil {
		return "", "", err
	}

	refresh := ""
	if isGenRefresh {
		refreshClaims := jwt.MapClaims{
			"id":  data.TokenInfo.GetAccess(),
			"exp": data.TokenInfo.GetRefreshCreateAt().Add(data.TokenInfo.GetRefreshExpiresIn()).Unix(),
		}
		t := jwt.NewWithClaims(g.SignedMethod, refreshClaims)
		refresh, err = t.SignedString(g.SignedKey)
		if err != nil {
			return "", "", err
		}
	}

	return access, refresh, nil
}

func (g *LMSJWTAccessGenerate) getUserRole(userIDStr string) (string, error) {
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		return "", fmt.Errorf("invalid user ID format: %w", err)
	}

	admin, err := g.Users.IsAdmin(uint(userID))
	if err != nil {
		return "", err
	}
	if admin {
		return "admin", nil
	}
	return "user", nil
}
