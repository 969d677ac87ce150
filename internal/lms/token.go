package lms

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTTokenInspector reads the tenant claim out of a JWT without verifying the
// signature. Callers use the result only to pick which tenant store to open;
// the token is verified against that store's secret afterwards.
type JWTTokenInspector struct {
	Claim string
}

func NewJWTTokenInspector() *JWTTokenInspector {
	return &JWTTokenInspector{Claim: "client_id"}
}

func (i *JWTTokenInspector) TenantFromToken(raw string) (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("cannot parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims format")
	}
	tenant, ok := claims[i.Claim].(string)
	if !ok || tenant == "" {
		return "", fmt.Errorf("token carries no %s claim", i.Claim)
	}
	return tenant, nil
}
