package auth

import (
	"time"

	"github.com/campusware/lms-rest-api/internal/lms"
	"github.com/campusware/lms-rest-api/internal/registry"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// OAuthService issues tokens for the four grant types, consulting the client
// registry for grant gating, user restrictions and refresh policies.
type OAuthService struct {
	server   *server.Server
	db       *gorm.DB
	registry registry.ClientRegistry
	users    lms.UserDirectory
}

func NewOAuthService(db *gorm.DB, reg registry.ClientRegistry, users lms.UserDirectory, jwtSecret string, accessTTL, refreshTTL time.Duration) *OAuthService {
	manager := manage.NewDefaultManager()

	// Refresh tokens are generated for the two grants that may carry them;
	// whether they are handed out is decided per client by the refresh policy.
	refreshable := &manage.Config{
		AccessTokenExp:    accessTTL,
		RefreshTokenExp:   refreshTTL,
		IsGenerateRefresh: true,
	}
	manager.SetPasswordTokenCfg(refreshable)
	manager.SetAuthorizeCodeTokenCfg(refreshable)
	manager.SetClientTokenCfg(&manage.Config{AccessTokenExp: accessTTL})
	manager.SetImplicitTokenCfg(&manage.Config{AccessTokenExp: accessTTL})

	// Use JWT for access tokens
	manager.MapAccessGenerate(NewLMSJWTAccessGenerate([]byte(jwtSecret), jwt.SigningMethodHS512, users))

	// Configure token store
	tokenStore := NewGormTokenStore(db, reg)
	manager.MustTokenStorage(tokenStore, nil)

	// Configure client store
	clientStore := NewRegistryClientStore(reg)
	manager.MapClientStorage(clientStore)

	srv := server.NewDefaultServer(manager)
	srv.SetAllowGetAccessRequest(true)
	srv.SetClientInfoHandler(server.ClientFormHandler)

	return &OAuthService{
		server:   srv,
		db:       db,
		registry: reg,
		users:    users,
	}
}

func (o *OAuthService) GetServer() *server.Server {
	return o.server
}
