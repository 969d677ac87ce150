package auth

import (
	"context"
	"testing"
	"time"

	"github.com/campusware/lms-rest-api/internal/lms"
	"github.com/campusware/lms-rest-api/internal/models"
	"github.com/campusware/lms-rest-api/internal/registry"
	"github.com/go-oauth2/oauth2/v4"
	oauthmodels "github.com/go-oauth2/oauth2/v4/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret-key-32-characters"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Client{},
		&models.Permission{},
		&models.AllowedUser{},
		&models.AllowedIP{},
		&models.OAuthToken{},
		&models.OAuthCode{},
		&models.LMSUser{},
	)
	require.NoError(t, err)

	return db
}

func createTestClient(t *testing.T, reg registry.ClientRegistry, input registry.CreateClientInput, plainSecret string) uint {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainSecret), bcrypt.MinCost)
	require.NoError(t, err)
	input.APISecret = string(hashed)

	id, err := reg.CreateClient(input)
	require.NoError(t, err)
	return id
}

func createLMSUser(t *testing.T, db *gorm.DB, login, password string, roleID uint) uint {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.LMSUser{Login: login, Password: string(hashed), RoleID: roleID}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func TestOAuthServiceInitialization(t *testing.T) {
	db := setupTestDB(t)
	reg := registry.NewClientRegistry(db)

	oauthService := NewOAuthService(db, reg, lms.NewGormUserDirectory(db), testJWTSecret, time.Hour, 24*time.Hour)
	assert.NotNil(t, oauthService)
	assert.NotNil(t, oauthService.GetServer())
}

func TestRegistryClientStore(t *testing.T) {
	db := setupTestDB(t)
	reg := registry.NewClientRegistry(db)

	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:                  "store-client",
		ClientCredentialsUserID: 7,
	}, "store-secret")

	store := NewRegistryClientStore(reg)
	info, err := store.GetByID(context.Background(), "store-client")
	require.NoError(t, err)

	assert.Equal(t, "store-client", info.GetID())
	assert.Equal(t, "7", info.GetUserID())
	assert.False(t, info.IsPublic())

	verifier, ok := info.(oauth2.ClientPasswordVerifier)
	require.True(t, ok)
	assert.True(t, verifier.VerifyPassword("store-secret"))
	assert.False(t, verifier.VerifyPassword("wrong-secret"))

	_, err = store.GetByID(context.Background(), "no-such-client")
	assert.ErrorIs(t, err, registry.ErrUnknownClient)
}

func TestJWTTokenGeneration(t *testing.T) {
	db := setupTestDB(t)
	reg := registry.NewClientRegistry(db)
	users := lms.NewGormUserDirectory(db)

	adminID := createLMSUser(t, db, "root", "homer", models.AdminRoleID)
	createTestClient(t, reg, registry.CreateClientInput{
		APIKey:                  "jwt-client",
		GTClientCredentials:     true,
		ClientCredentialsUserID: adminID,
	}, "jwt-secret")

	oauthService := NewOAuthService(db, reg, users, testJWTSecret, time.Hour, 24*time.Hour)

	tokenInfo, err := oauthService.GetServer().Manager.GenerateAccessToken(
		context.Background(),
		oauth2.ClientCredentials,
		&oauth2.TokenGenerateRequest{
			ClientID:     "jwt-client",
			ClientSecret: "jwt-secret",
			UserID:       "1",
			Scope:        "read",
		},
	)
	require.NoError(t, err)
	require.NotNil(t, tokenInfo)
	require.NotEmpty(t, tokenInfo.GetAccess())

	// The access token is a JWT carrying the impersonated user and its role
	token, err := jwt.Parse(tokenInfo.GetAccess(), func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)

	assert.Equal(t, "jwt-client", claims["aud"])
	assert.Equal(t, "1", claims["uid"])
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "read", claims["scope"])
}

func TestGormTokenStoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	reg := registry.NewClientRegistry(db)

	clientID := createTestClient(t, reg, registry.CreateClientInput{APIKey: "ts-client"}, "x")
	store := NewGormTokenStore(db, reg)
	ctx := context.Background()

	info := &oauthmodels.Token{
		ClientID:        "ts-client",
		UserID:          "42",
		Access:          "access-token-1",
		AccessCreateAt:  time.Now(),
		AccessExpiresIn: time.Hour,
		Refresh:         "refresh-token-1",
		Scope:           "read",
	}
	require.NoError(t, store.Create(ctx, info))

	// The persisted row carries the surrogate client id for cascades
	var row models.OAuthToken
	require.NoError(t, db.Where("access_token = ?", "access-token-1").First(&row).Error)
	assert.Equal(t, clientID, row.ClientID)

	got, err := store.GetByAccess(ctx, "access-token-1")
	require.NoError(t, err)
	assert.Equal(t, "ts-client", got.GetClientID())
	assert.Equal(t, "42", got.GetUserID())
	assert.Equal(t, "refresh-token-1", got.GetRefresh())

	got, err = store.GetByRefresh(ctx, "refresh-token-1")
	require.NoError(t, err)
	assert.Equal(t, "access-token-1", got.GetAccess())

	require.NoError(t, store.RemoveByAccess(ctx, "access-token-1"))
	_, err = store.GetByAccess(ctx, "access-token-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormTokenStoreExpiredCode(t *testing.T) {
	db := setupTestDB(t)
	reg := registry.NewClientRegistry(db)
	store := NewGormTokenStore(db, reg)
	ctx := context.Background()

	code := models.OAuthCode{
		Code:      "expired-code",
		APIKey:    "any-client",
		UserID:    "42",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&code).Error)

	_, err := store.GetByCode(ctx, "expired-code")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGormTokenStoreUnknownClient(t *testing.T) {
	db := setupTestDB(t)
	reg := registry.NewClientRegistry(db)
	store := NewGormTokenStore(db, reg)

	info := &oauthmodels.Token{
		ClientID: "no-such-client",
		Access:   "orphan-token",
	}
	err := store.Create(context.Background(), info)
	assert.ErrorIs(t, err, registry.ErrUnknownClient)
}
