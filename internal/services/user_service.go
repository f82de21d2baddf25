package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"convo_backend/internal/auth"
	"convo_backend/internal/models"
	"convo_backend/internal/repositories"
	"convo_backend/pkg/apperrors"
)

type UserService interface {
	Register(db *gorm.DB, name, email, password string) (*models.User, string, error)
	Login(db *gorm.DB, email, password string) (*models.User, string, error)
	GetByID(db *gorm.DB, id string) (*models.User, error)
	Block(db *gorm.DB, blockerID, blockedID string) error
	Unblock(db *gorm.DB, blockerID, blockedID string) error
}

type UserServiceImpl struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) UserService {
	return &UserServiceImpl{users: users}
}

func (s *UserServiceImpl) Register(db *gorm.DB, name, email, password string) (*models.User, string, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return nil, "", apperrors.NewBadRequestError(err.Error())
	}

	if _, err := s.users.FindByEmail(db, email); err == nil {
		return nil, "", apperrors.ErrEmailAlreadyExists
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, "", apperrors.InternalError(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}

	user := &models.User{
		BaseModel:    models.BaseModel{ID: uuid.New().String()},
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
	}
	if err := s.users.Create(db, user); err != nil {
		return nil, "", apperrors.InternalError(err)
	}

	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}
	return user, token, nil
}

func (s *UserServiceImpl) Login(db *gorm.DB, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(db, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", apperrors.InternalError(err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return nil, "", apperrors.NewForbiddenError("Account is suspended")
	}

	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, "", apperrors.InternalError(err)
	}
	return user, token, nil
}

func (s *UserServiceImpl) GetByID(db *gorm.DB, id string) (*models.User, error) {
	user, err := s.users.FindByID(db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *UserServiceImpl) Block(db *gorm.DB, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return apperrors.NewBadRequestError("Cannot block yourself")
	}
	if _, err := s.users.FindByID(db, blockedID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	block := &models.UserBlock{
		ID:        uuid.New().String(),
		BlockerID: blockerID,
		BlockedID: blockedID,
	}
	if err := s.users.CreateBlock(db, block); err != nil {
		// Blocking twice is idempotent.
		var pgUnique interface{ SQLState() string }
		if errors.As(err, &pgUnique) && pgUnique.SQLState() == "23505" {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *UserServiceImpl) Unblock(db *gorm.DB, blockerID, blockedID string) error {
	if err := s.users.RemoveBlock(db, blockerID, blockedID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}
