// Package directory answers identity questions for the chat core: whether a
// user exists and whether two users are allowed to message each other.
package directory

import (
	"errors"

	"gorm.io/gorm"

	"convo_backend/internal/models"
	"convo_backend/internal/repositories"
)

type Directory interface {
	ResolveUser(db *gorm.DB, userID string) (*models.User, error)
	ResolveUsers(db *gorm.DB, userIDs []string) ([]models.User, error)
	// CanMessage reports whether a direct conversation between the two users
	// is allowed. A block in either direction forbids it.
	CanMessage(db *gorm.DB, userID, otherID string) (bool, error)
}

type GormDirectory struct {
	users repositories.UserRepository
}

func NewGormDirectory(users repositories.UserRepository) *GormDirectory {
	return &GormDirectory{users: users}
}

func (d *GormDirectory) ResolveUser(db *gorm.DB, userID string) (*models.User, error) {
	user, err := d.users.FindByID(db, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, repositories.ErrUserNotFound
	}
	return user, nil
}

func (d *GormDirectory) ResolveUsers(db *gorm.DB, userIDs []string) ([]models.User, error) {
	users, err := d.users.FindByIDs(db, userIDs)
	if err != nil {
		return nil, err
	}
	active := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Status == models.UserStatusActive {
			active = append(active, u)
		}
	}
	if len(active) != len(userIDs) {
		return nil, repositories.ErrUserNotFound
	}
	return active, nil
}

func (d *GormDirectory) CanMessage(db *gorm.DB, userID, otherID string) (bool, error) {
	if _, err := d.ResolveUser(db, otherID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, err
		}
		return false, err
	}
	blocked, err := d.users.BlockExists(db, userID, otherID)
	if err != nil {
		return false, err
	}
	return !blocked, nil
}
