// Package lms holds the interfaces the REST add-on needs from the host LMS.
// The add-on never reaches into LMS subsystems directly; everything is
// injected so the registry and route layer can be tested against fakes.
package lms

import "errors"

var (
	ErrNoObject = errors.New("no LMS object for this reference")
	ErrNoUser   = errors.New("no LMS user with this id or name")
)

// UserDirectory resolves LMS user identities and answers the admin-role check.
type UserDirectory interface {
	UserName(userID uint) (string, error)
	UserID(login string) (uint, error)
	IsAdmin(userID uint) (bool, error)
	// Authenticate verifies a resource owner's credentials and returns the
	// user id on success. Used as the backend for the password grant.
	Authenticate(login, password string) (uint, error)
}

// ObjectResolver translates between LMS reference ids and object ids.
type ObjectResolver interface {
	ObjID(refID uint) (uint, error)
	RefID(objID uint) (uint, error)
	RefIDs(objID uint) ([]uint, error)
}

// TokenInspector extracts the tenant (LMS installation) identifier embedded
// in a serialized token without consulting a live store. Needed during
// bootstrap, before the tenant's database connection exists.
type TokenInspector interface {
	TenantFromToken(raw string) (string, error)
}
