package lms

import (
	"errors"

	"github.com/campusware/lms-rest-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GormUserDirectory answers identity questions from the mirrored LMS user
// table. It satisfies UserDirectory.
type GormUserDirectory struct {
	db *gorm.DB
}

func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

func (d *GormUserDirectory) UserName(userID uint) (string, error) {
	var user models.LMSUser
	if err := d.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoUser
		}
		return "", err
	}
	return user.Login, nil
}

func (d *GormUserDirectory) UserID(login string) (uint, error) {
	var user models.LMSUser
	if err := d.db.Where("login = ?", login).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoUser
		}
		return 0, err
	}
	return user.ID, nil
}

func (d *GormUserDirectory) IsAdmin(userID uint) (bool, error) {
	var user models.LMSUser
	if err := d.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.RoleID == models.AdminRoleID, nil
}

func (d *GormUserDirectory) Authenticate(login, password string) (uint, error) {
	var user models.LMSUser
	if err := d.db.Where("login = ?", login).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoUser
		}
		return 0, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return 0, ErrNoUser
	}
	return user.ID, nil
}

// GormObjectResolver resolves reference ids against the mirrored
// object-reference table. It satisfies ObjectResolver.
type GormObjectResolver struct {
	db *gorm.DB
}

func NewGormObjectResolver(db *gorm.DB) *GormObjectResolver {
	return &GormObjectResolver{db: db}
}

func (r *GormObjectResolver) ObjID(refID uint) (uint, error) {
	var ref models.ObjectReference
	if err := r.db.Where("ref_id = ?", refID).First(&ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoObject
		}
		return 0, err
	}
	return ref.ObjID, nil
}

func (r *GormObjectResolver) RefID(objID uint) (uint, error) {
	var ref models.ObjectReference
	if err := r.db.Where("obj_id = ?", objID).First(&ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoObject
		}
		return 0, err
	}
	return ref.RefID, nil
}

func (r *GormObjectResolver) RefIDs(objID uint) ([]uint, error) {
	var refs []models.ObjectReference
	if err := r.db.Where("obj_id = ?", objID).Find(&refs).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.RefID)
	}
	return ids, nil
}
