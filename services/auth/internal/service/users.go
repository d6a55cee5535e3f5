package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/repo"
)

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsers is restricted to admins.
func (s *AuthService) ListUsers(ctx context.Context, isAdmin bool, page pagination.Page) (*pagination.Result[models.User], error) {
	if !isAdmin {
		return nil, ErrForbidden
	}
	total, users, err := s.Repo.ListUsers(ctx, page)
	if err != nil {
		return nil, err
	}
	return &pagination.Result[models.User]{Data: users, Meta: pagination.NewMeta(page, total)}, nil
}
