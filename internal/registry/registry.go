package registry

import (
	"errors"
	"strconv"
	"strings"

	"github.com/campusware/lms-rest-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// ClientRecord is one client enriched for administrative listings: the full
// permission list plus the allow-lists joined back into their CSV form.
type ClientRecord struct {
	models.Client
	Permissions   []models.Permission `json:"permissions"`
	AccessUserCSV string              `json:"access_user_csv"`
	AccessIPCSV   string              `json:"access_ip_csv"`
}

// AllowedUsers is the result of a user-restriction lookup. When the client
// has no active user restriction the set is Unrestricted and UserIDs is nil;
// an active restriction with an empty set really means "nobody".
type AllowedUsers struct {
	Unrestricted bool   `json:"unrestricted"`
	UserIDs      []uint `json:"user_ids,omitempty"`
}

// CreateClientInput carries every client attribute accepted at registration.
// APISecret is stored as given; callers hash it first.
type CreateClientInput struct {
	APIKey         string
	APISecret      string
	Description    string
	RedirectionURI string

	ConsentMessage       string
	ConsentMessageActive bool

	Permissions []PermissionEntry

	GTClientCredentials     bool
	GTAuthCode              bool
	GTImplicit              bool
	GTResourceOwner         bool
	ClientCredentialsUserID uint

	UserRestrictionActive bool
	AccessUserCSV         string
	IPRestrictionActive   bool
	AccessIPCSV           string

	AuthCodeRefreshActive      bool
	ResourceOwnerRefreshActive bool
}

// ClientRegistry owns the lifecycle of registered API clients and answers the
// authorization questions the OAuth2 flow and the route layer consult.
type ClientRegistry interface {
	ListClients() ([]ClientRecord, error)
	CreateClient(input CreateClientInput) (uint, error)
	DeleteClient(clientID uint) error
	UpdateField(clientID uint, field, value string) error

	UpdatePermissions(clientID uint, perms []PermissionEntry) error
	UpdateAllowedUsers(clientID uint, csv string) error
	UpdateAllowedIPs(clientID uint, csv string) error

	AddPermission(apiKey, pattern, verb string) (uint, error)
	DeletePermission(permID uint) (int64, error)
	GetPermission(permID uint) (models.Permission, bool, error)
	ListPermissions(apiKey string) ([]models.Permission, error)
	HasPermission(apiKey, pattern, verb string) bool

	ResolveClientID(apiKey string) (uint, error)
	ResolveAPIKey(clientID uint) (string, error)
	GetClient(apiKey string) (models.Client, error)

	IsGrantTypeEnabled(apiKey, grantTypeFlag string) bool
	IsClientCredentialsEnabled(apiKey string) bool
	IsAuthCodeEnabled(apiKey string) bool
	IsImplicitEnabled(apiKey string) bool
	IsResourceOwnerEnabled(apiKey string) bool
	IsConsentMessageEnabled(apiKey string) bool
	GetConsentMessage(apiKey string) string
	IsAuthCodeRefreshEnabled(apiKey string) bool
	IsResourceOwnerRefreshEnabled(apiKey string) bool
	IsIPRestrictionEnabled(apiKey string) bool

	GetClientCredentialsUser(apiKey string) (uint, error)
	GetAllowedUsers(apiKey string) (AllowedUsers, error)
	GetAllowedIPs(apiKey string) ([]string, error)
}

type clientRegistry struct {
	db *gorm.DB
}

// NewClientRegistry creates a registry over the given database handle.
func NewClientRegistry(db *gorm.DB) ClientRegistry {
	return &clientRegistry{db: db}
}

func (r *clientRegistry) ListClients() ([]ClientRecord, error) {
	var clients []models.Client
	if err := r.db.Order("id asc").Find(&clients).Error; err != nil {
		return nil, err
	}

	records := make([]ClientRecord, 0, len(clients))
	for _, client := range clients {
		var perms []models.Permission
		if err := r.db.Where("client_id = ?", client.ID).Find(&perms).Error; err != nil {
			return nil, err
		}

		var users []models.AllowedUser
		if err := r.db.Where("client_id = ?", client.ID).Find(&users).Error; err != nil {
			return nil, err
		}
		userCSV := make([]string, 0, len(users))
		for _, u := range users {
			userCSV = append(userCSV, strconv.FormatUint(uint64(u.UserID), 10))
		}

		var ips []models.AllowedIP
		if err := r.db.Where("client_id = ?", client.ID).Find(&ips).Error; err != nil {
			return nil, err
		}
		ipCSV := make([]string, 0, len(ips))
		for _, ip := range ips {
			ipCSV = append(ipCSV, ip.IP)
		}

		records = append(records, ClientRecord{
			Client:        client,
			Permissions:   perms,
			AccessUserCSV: strings.Join(userCSV, ","),
			AccessIPCSV:   strings.Join(ipCSV, ","),
		})
	}
	return records, nil
}

func (r *clientRegistry) CreateClient(input CreateClientInput) (uint, error) {
	client := models.Client{
		APIKey:                     input.APIKey,
		APISecret:                  input.APISecret,
		Description:                input.Description,
		RedirectionURI:             input.RedirectionURI,
		ConsentMessage:             input.ConsentMessage,
		ConsentMessageActive:       input.ConsentMessageActive,
		GTClientCredentials:        input.GTClientCredentials,
		GTAuthCode:                 input.GTAuthCode,
		GTImplicit:                 input.GTImplicit,
		GTResourceOwner:            input.GTResourceOwner,
		ClientCredentialsUserID:    input.ClientCredentialsUserID,
		UserRestrictionActive:      input.UserRestrictionActive,
		IPRestrictionActive:        input.IPRestrictionActive,
		AuthCodeRefreshActive:      input.AuthCodeRefreshActive,
		ResourceOwnerRefreshActive: input.ResourceOwnerRefreshActive,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&client).Error; err != nil {
			return err
		}
		if err := replacePermissions(tx, client.ID, input.Permissions); err != nil {
			return err
		}
		if err := replaceAllowedUsers(tx, client.ID, input.AccessUserCSV); err != nil {
			return err
		}
		return replaceAllowedIPs(tx, client.ID, input.AccessIPCSV)
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(logrus.Fields{
		"client_id": client.ID,
		"api_key":   client.APIKey,
	}).Info("Registered new REST client")
	return client.ID, nil
}

func (r *clientRegistry) DeleteClient(clientID uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.First(&client, clientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeleteFailed
			}
			return err
		}
		if err := tx.Delete(&models.Client{}, clientID).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", clientID).Delete(&models.Permission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", clientID).Delete(&models.AllowedUser{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", clientID).Delete(&models.AllowedIP{}).Error; err != nil {
			return err
		}
		return tx.Where("client_id = ?", clientID).Delete(&models.OAuthToken{}).Error
	})
	if err != nil {
		return err
	}

	log.WithField("client_id", clientID).Info("Deleted REST client")
	return nil
}

// clientColumns maps the external field names accepted by UpdateField to
// column identifiers and value kinds. Unknown names are rejected before any
// query is built.
var clientColumns = map[string]struct {
	column string
	kind   string // "text", "int" or "bool"
}{
	"api_key": {"api_key", "text"},
	"api_secret": {"api_secret", "text"},
	"description": {"description", "text"},
	"oauth2_redirection_uri": {"oauth2_redirection_uri", "text"},
	"oauth2_consent_message": {"oauth2_consent_message", "text"},
	"oauth2_consent_message_active": {"oauth2_consent_message_active", "bool"},
	"oauth2_gt_client_active": {"oauth2_gt_client_active", "bool"},
	"oauth2_gt_authcode_active": {"oauth2_gt_authcode_active", "bool"},
	"oauth2_gt_implicit_active": {"oauth2_gt_implicit_active", "bool"},
	"oauth2_gt_resourceowner_active": {"oauth2_gt_resourceowner_active", "bool"},
	"oauth2_gt_client_user": {"oauth2_gt_client_user", "int"},
	"oauth2_user_restriction_active": {"oauth2_user_restriction_active", "bool"},
	"oauth2_authcode_refresh_active": {"oauth2_authcode_refresh_active", "bool"},
	"oauth2_resource_refresh_active": {"oauth2_resource_refresh_active", "bool"},
	"ip_restriction_active": {"ip_restriction_active", "bool"},
}

func (r *clientRegistry) UpdateField(clientID uint, field, value string) error {
	switch strings.ToLower(field) {
	case "permissions":
		perms, err := ParsePermissionList([]byte(value))
		if err != nil {
			return err
		}
		return r.UpdatePermissions(clientID, perms)
	case "access_user_csv":
		return r.UpdateAllowedUsers(clientID, value)
	case "access_ip_csv":
		return r.UpdateAllowedIPs(clientID, value)
	}

	spec, ok := clientColumns[strings.ToLower(field)]
	if !ok {
		return ErrUnknownField
	}

	var typed interface{}
	switch spec.kind {
	case "bool":
		typed = value == "1" || strings.EqualFold(value, "true")
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return ErrUpdateFailed
		}
		typed = n
	default:
		typed = value
	}

	result := r.db.Model(&models.Client{}).Where("id = ?", clientID).Update(spec.column, typed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUpdateFailed
	}
	return nil
}

func (r *clientRegistry) UpdatePermissions(clientID uint, perms []PermissionEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return replacePermissions(tx, clientID, perms)
	})
}

func (r *clientRegistry) UpdateAllowedUsers(clientID uint, csv string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return replaceAllowedUsers(tx, clientID, csv)
	})
}

func (r *clientRegistry) UpdateAllowedIPs(clientID uint, csv string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return replaceAllowedIPs(tx, clientID, csv)
	})
}

func (r *clientRegistry) AddPermission(apiKey, pattern, verb string) (uint, error) {
	clientID, err := r.ResolveClientID(apiKey)
	if err != nil {
		return 0, err
	}
	pattern = strings.TrimRight(pattern, "/")

	var count int64
	err = r.db.Model(&models.Permission{}).
		Where("client_id = ? AND pattern = ? AND verb = ?", clientID, pattern, verb).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, ErrDuplicatePermission
	}

	perm := models.Permission{ClientID: clientID, Pattern: pattern, Verb: verb}
	if err := r.db.Create(&perm).Error; err != nil {
		return 0, err
	}
	return perm.ID, nil
}

func (r *clientRegistry) DeletePermission(permID uint) (int64, error) {
	result := r.db.Delete(&models.Permission{}, permID)
	return result.RowsAffected, result.Error
}

func (r *clientRegistry) GetPermission(permID uint) (models.Permission, bool, error) {
	var perm models.Permission
	if err := r.db.First(&perm, permID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Permission{}, false, nil
		}
		return models.Permission{}, false, err
	}
	return perm, true, nil
}

func (r *clientRegistry) ListPermissions(apiKey string) ([]models.Permission, error) {
	clientID, err := r.ResolveClientID(apiKey)
	if err != nil {
		return nil, err
	}
	var perms []models.Permission
	if err := r.db.Where("client_id = ?", clientID).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *clientRegistry) HasPermission(apiKey, pattern, verb string) bool {
	client, ok := r.fetchClient(apiKey)
	if !ok {
		return false
	}
	pattern = strings.TrimRight(pattern, "/")

	var count int64
	err := r.db.Model(&models.Permission{}).
		Where("client_id = ? AND pattern = ? AND verb = ?", client.ID, pattern, verb).
		Count(&count).Error
	return err == nil && count > 0
}

func (r *clientRegistry) ResolveClientID(apiKey string) (uint, error) {
	client, ok := r.fetchClient(apiKey)
	if !ok {
		return 0, ErrUnknownClient
	}
	return client.ID, nil
}

func (r *clientRegistry) ResolveAPIKey(clientID uint) (string, error) {
	var client models.Client
	if err := r.db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUnknownClient
		}
		return "", err
	}
	return client.APIKey, nil
}

func (r *clientRegistry) GetClient(apiKey string) (models.Client, error) {
	client, ok := r.fetchClient(apiKey)
	if !ok {
		return models.Client{}, ErrUnknownClient
	}
	return client, nil
}

// IsGrantTypeEnabled is the general form of the grant-type queries. The flag
// is named by its external field name, resolved against the same allow-list
// as UpdateField. Unknown clients and unknown flags read as "off".
func (r *clientRegistry) IsGrantTypeEnabled(apiKey, grantTypeFlag string) bool {
	client, ok := r.fetchClient(apiKey)
	if !ok {
		return false
	}
	switch strings.ToLower(grantTypeFlag) {
	case "oauth2_gt_client_active":
		return client.GTClientCredentials
	case "oauth2_gt_authcode_active":
		return client.GTAuthCode
	case "oauth2_gt_implicit_active":
		return client.GTImplicit
	case "oauth2_gt_resourceowner_active":
		return client.GTResourceOwner
	default:
		return false
	}
}

func (r *clientRegistry) IsClientCredentialsEnabled(apiKey string) bool {
	return r.IsGrantTypeEnabled(apiKey, "oauth2_gt_client_active")
}

func (r *clientRegistry) IsAuthCodeEnabled(apiKey string) bool {
	return r.IsGrantTypeEnabled(apiKey, "oauth2_gt_authcode_active")
}

func (r *clientRegistry) IsImplicitEnabled(apiKey string) bool {
	return r.IsGrantTypeEnabled(apiKey, "oauth2_gt_implicit_active")
}

func (r *clientRegistry) IsResourceOwnerEnabled(apiKey string) bool {
	return r.IsGrantTypeEnabled(apiKey, "oauth2_gt_resourceowner_active")
}

func (r *clientRegistry) IsConsentMessageEnabled(apiKey string) bool {
	client, ok := r.fetchClient(apiKey)
	return ok && client.ConsentMessageActive
}

func (r *clientRegistry) GetConsentMessage(apiKey string) string {
	client, ok := r.fetchClient(apiKey)
	if !ok {
		return ""
	}
	return client.ConsentMessage
}

func (r *clientRegistry) IsAuthCodeRefreshEnabled(apiKey string) bool {
	client, ok := r.fetchClient(apiKey)
	return ok && client.AuthCodeRefreshActive
}

func (r *clientRegistry) IsResourceOwnerRefreshEnabled(apiKey string) bool {
	client, ok := r.fetchClient(apiKey)
	return ok && client.ResourceOwnerRefreshActive
}

func (r *clientRegistry) IsIPRestrictionEnabled(apiKey string) bool {
	client, ok := r.fetchClient(apiKey)
	return ok && client.IPRestrictionActive
}

func (r *clientRegistry) GetClientCredentialsUser(apiKey string) (uint, error) {
	client, ok := r.fetchClient(apiKey)
	if !ok {
		return 0, ErrUnknownClient
	}
	return client.ClientCredentialsUserID, nil
}

func (r *clientRegistry) GetAllowedUsers(apiKey string) (AllowedUsers, error) {
	client, ok := r.fetchClient(apiKey)
	if !ok {
		return AllowedUsers{}, ErrUnknownClient
	}
	if !client.UserRestrictionActive {
		return AllowedUsers{Unrestricted: true}, nil
	}

	var rows []models.AllowedUser
	if err := r.db.Where("client_id = ?", client.ID).Find(&rows).Error; err != nil {
		return AllowedUsers{}, err
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	return AllowedUsers{UserIDs: ids}, nil
}

func (r *clientRegistry) GetAllowedIPs(apiKey string) ([]string, error) {
	client, ok := r.fetchClient(apiKey)
	if !ok {
		return nil, ErrUnknownClient
	}
	var rows []models.AllowedIP
	if err := r.db.Where("client_id = ?", client.ID).Find(&rows).Error; err != nil {
		return nil, err
	}
	ips := make([]string, 0, len(rows))
	for _, row := range rows {
		ips = append(ips, row.IP)
	}
	return ips, nil
}

func (r *clientRegistry) fetchClient(apiKey string) (models.Client, bool) {
	var client models.Client
	if err := r.db.Where("api_key = ?", apiKey).First(&client).Error; err != nil {
		return models.Client{}, false
	}
	return client, true
}

// replacePermissions deletes every permission row of the client and inserts
// the given entries. Patterns are stored with the trailing slash stripped.
func replacePermissions(tx *gorm.DB, clientID uint, perms []PermissionEntry) error {
	if err := tx.Where("client_id = ?", clientID).Delete(&models.Permission{}).Error; err != nil {
		return err
	}
	for _, entry := range perms {
		perm := models.Permission{
			ClientID: clientID,
			Pattern:  strings.TrimRight(entry.Pattern, "/"),
			Verb:     entry.Verb,
		}
		if err := tx.Create(&perm).Error; err != nil {
			return err
		}
	}
	return nil
}

// replaceAllowedUsers rebuilds the allowed-user set from a comma-separated
// id list. An empty list clears the set; whether that means "nobody" or "no
// restriction" is decided by the client's restriction flag, not here.
func replaceAllowedUsers(tx *gorm.DB, clientID uint, csv string) error {
	if err := tx.Where("client_id = ?", clientID).Delete(&models.AllowedUser{}).Error; err != nil {
		return err
	}
	for _, part := range splitCSV(csv) {
		userID, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			log.WithFields(logrus.Fields{
				"client_id": clientID,
				"entry":     part,
			}).Warn("Skipping non-numeric allowed-user entry")
			continue
		}
		row := models.AllowedUser{ClientID: clientID, UserID: uint(userID)}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func replaceAllowedIPs(tx *gorm.DB, clientID uint, csv string) error {
	if err := tx.Where("client_id = ?", clientID).Delete(&models.AllowedIP{}).Error; err != nil {
		return err
	}
	for _, ip := range splitCSV(csv) {
		row := models.AllowedIP{ClientID: clientID, IP: ip}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
