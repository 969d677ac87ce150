package auth

import (
	"context"
	"strconv"
	"time"

	internalmodels "github.com/campusware/lms-rest-api/internal/models"
	"github.com/campusware/lms-rest-api/internal/registry"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// clientInfo adapts a registry client row to the oauth2.ClientInfo contract.
// The OAuth2 client id is the api_key; the stored secret is a bcrypt hash,
// so the store also implements ClientPasswordVerifier.
type clientInfo struct {
	client internalmodels.Client
}

func (c *clientInfo) GetID() string     { return c.client.APIKey }
func (c *clientInfo) GetSecret() string { return c.client.APISecret }
func (c *clientInfo) GetDomain() string { return c.client.RedirectionURI }
func (c *clientInfo) IsPublic() bool    { return false }

func (c *clientInfo) GetUserID() string {
	if c.client.ClientCredentialsUserID == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(c.client.ClientCredentialsUserID), 10)
}

// VerifyPassword checks a plain client secret against the stored bcrypt hash.
func (c *clientInfo) VerifyPassword(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.client.APISecret), []byte(secret)) == nil
}

// RegistryClientStore exposes registry clients to the go-oauth2 manager.
type RegistryClientStore struct {
	registry registry.ClientRegistry
}

func NewRegistryClientStore(reg registry.ClientRegistry) *RegistryClientStore {
	return &RegistryClientStore{registry: reg}
}

func (s *RegistryClientStore) GetByID(ctx context.Context, id string) (oauth2.ClientInfo, error) {
	client, err := s.registry.GetClient(id)
	if err != nil {
		return nil, err
	}
	return &clientInfo{client: client}, nil
}

// GormTokenStore persists issued tokens and authorization codes. Token rows
// carry the surrogate client id so DeleteClient can cascade over them.
type GormTokenStore struct {
	db       *gorm.DB
	registry registry.ClientRegistry
}

func NewGormTokenStore(db *gorm.DB, reg registry.ClientRegistry) *GormTokenStore {
	return &GormTokenStore{db: db, registry: reg}
}

func (s *GormTokenStore) Create(ctx context.Context, info oauth2.TokenInfo) error {
	if info.GetCode() != "" {
		code := &internalmodels.OAuthCode{
			Code:                info.GetCode(),
			APIKey:              info.GetClientID(),
			UserID:              info.GetUserID(),
			CodeChallenge:       info.GetCodeChallenge(),
			CodeChallengeMethod: info.GetCodeChallengeMethod().String(),
			RedirectURI:         info.GetRedirectURI(),
			Scopes:              info.GetScope(),
			ExpiresAt:           info.GetCodeCreateAt().Add(info.GetCodeExpiresIn()),
		}
		return s.db.Create(code).Error
	}

	clientID, err := s.registry.ResolveClientID(info.GetClientID())
	if err != nil {
		return err
	}

	userID := info.GetUserID()
	refreshToken := info.GetRefresh()
	token := &internalmodels.OAuthToken{
		ClientID:     clientID,
		APIKey:       info.GetClientID(),
		UserID:       &userID,
		AccessToken:  info.GetAccess(),
		RefreshToken: &refreshToken,
		Scopes:       info.GetScope(),
		ExpiresAt:    time.Now().Add(info.GetAccessExpiresIn()),
	}
	return s.db.Create(token).Error
}

func (s *GormTokenStore) RemoveByAccess(ctx context.Context, access string) error {
	return s.db.Where("access_token = ?", access).Delete(&internalmodels.OAuthToken{}).Error
}

func (s *GormTokenStore) RemoveByRefresh(ctx context.Context, refresh string) error {
	return s.db.Where("refresh_token = ?", refresh).Delete(&internalmodels.OAuthToken{}).Error
}

func (s *GormTokenStore) GetByAccess(ctx context.Context, access string) (oauth2.TokenInfo, error) {
	var token internalmodels.OAuthToken
	if err := s.db.Where("access_token = ?", access).First(&token).Error; err != nil {
		return nil, err
	}
	return tokenInfoFromRow(&token), nil
}

func (s *GormTokenStore) GetByRefresh(ctx context.Context, refresh string) (oauth2.TokenInfo, error) {
	var token internalmodels.OAuthToken
	if err := s.db.Where("refresh_token = ?", refresh).First(&token).Error; err != nil {
		return nil, err
	}
	return tokenInfoFromRow(&token), nil
}

func (s *GormTokenStore) GetByCode(ctx context.Context, code string) (oauth2.TokenInfo, error) {
	var oauthCode internalmodels.OAuthCode
	if err := s.db.Where("code = ?", code).First(&oauthCode).Error; err != nil {
		return nil, err
	}

	// Expired codes are treated as absent
	if time.Now().After(oauthCode.ExpiresAt) {
		return nil, gorm.ErrRecordNotFound
	}

	return &models.Token{
		ClientID:            oauthCode.APIKey,
		UserID:              oauthCode.UserID,
		Code:                oauthCode.Code,
		CodeCreateAt:        oauthCode.CreatedAt,
		CodeExpiresIn:       oauthCode.ExpiresAt.Sub(oauthCode.CreatedAt),
		CodeChallenge:       oauthCode.CodeChallenge,
		CodeChallengeMethod: oauthCode.CodeChallengeMethod,
		RedirectURI:         oauthCode.RedirectURI,
		Scope:               oauthCode.Scopes,
	}, nil
}

func (s *GormTokenStore) RemoveByCode(ctx context.Context, code string) error {
	return s.db.Where("code = ?", code).Delete(&internalmodels.OAuthCode{}).Error
}

func tokenInfoFromRow(token *internalmodels.OAuthToken) oauth2.TokenInfo {
	info := &models.Token{
		ClientID:        token.APIKey,
		Access:          token.AccessToken,
		AccessExpiresIn: time.Until(token.ExpiresAt),
		Scope:           token.Scopes,
	}
	if token.UserID != nil {
		info.UserID = *token.UserID
	}
	if token.RefreshToken != nil {
		info.Refresh = *token.RefreshToken
	}
	return info
}
