package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pavitra93/go-hr-management-system/shared/models"
)

// CreateUser inserts a user. A duplicate email returns ErrConflict.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.conn(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// EmailTaken reports whether any organisation already has a user with email
func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.User{}).
		Where("email = ?", models.NormalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

// FindUserByEmail is the global (not organisation-scoped) login lookup
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.conn(ctx).
		Preload("Organisation").
		Where("email = ?", models.NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUser loads a user and its organisation by id
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Preload("Organisation").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ListUsers returns the users of one organisation, oldest first
func (s *Store) ListUsers(ctx context.Context, organisationID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.conn(ctx).
		Where("organisation_id = ?", organisationID).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
