package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pavitra93/go-hr-management-system/shared/models"
)

// CreateOrganisation inserts a new tenant root
func (s *Store) CreateOrganisation(ctx context.Context, org *models.Organisation) error {
	if err := s.conn(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("create organisation: %w", err)
	}
	return nil
}

// GetOrganisation loads an organisation by id
func (s *Store) GetOrganisation(ctx context.Context, id uuid.UUID) (*models.Organisation, error) {
	var org models.Organisation
	if err := s.conn(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, notFound(err)
	}
	return &org, nil
}

// GetOrganisationView loads an organisation with its users, oldest first
func (s *Store) GetOrganisationView(ctx context.Context, id uuid.UUID) (*models.OrganisationView, error) {
	org, err := s.GetOrganisation(ctx, id)
	if err != nil {
		return nil, err
	}

	users, err := s.ListUsers(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &models.OrganisationView{Organisation: *org, Users: make([]models.UserSummary, 0, len(users))}
	for i := range users {
		view.Users = append(view.Users, users[i].Summary())
	}
	return view, nil
}

// DeleteOrganisation removes an organisation; the foreign keys cascade to its
// users, employees, teams, memberships and logs.
func (s *Store) DeleteOrganisation(ctx context.Context, id uuid.UUID) error {
	res := s.conn(ctx).Where("id = ?", id).Delete(&models.Organisation{})
	if res.Error != nil {
		return fmt.Errorf("delete organisation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
