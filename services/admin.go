package services

import (
	"context"

	"storefront/apperror"
	"storefront/clock"
	"storefront/models"
	"storefront/repository"
)

const recentOrdersLimit = 5

type Dashboard struct {
	Stats        models.DashboardStats `json:"stats"`
	RecentOrders []models.Order        `json:"recentOrders"`
}

// AdminService covers the admin views that span collections and user
// management.
type AdminService struct {
	store *repository.Store
	clock clock.Clock
}

func NewAdminService(store *repository.Store, clk clock.Clock) *AdminService {
	if clk == nil {
		clk = clock.Real()
	}
	return &AdminService{store: store, clock: clk}
}

func (s *AdminService) Stats(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	if d.Stats.TotalOrders, err = s.store.Orders.Count(ctx); err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	if d.Stats.TotalProducts, err = s.store.Products.Count(ctx); err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	if d.Stats.TotalUsers, err = s.store.Users.Count(ctx); err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	if d.Stats.TotalSales, err = s.store.Orders.TotalSales(ctx); err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	if d.RecentOrders, err = s.store.Orders.List(ctx, recentOrdersLimit); err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	return &d, nil
}

// Users lists every user, newest first.
func (s *AdminService) Users(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	return users, nil
}

// UpdateUserRole sets the role of another user.
func (s *AdminService) UpdateUserRole(ctx context.Context, actor models.Actor, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apperror.Validation("Invalid role")
	}
	oid, err := ParseID(userID, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users.FindByID(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	if user.ID == actor.UserID {
		return nil, apperror.Validation("You cannot change your own role")
	}

	user.Role = role
	user.UpdatedAt = s.clock.Now()
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, storeErr(err, "User not found")
	}
	return user, nil
}

// DeleteUser removes another user.
func (s *AdminService) DeleteUser(ctx context.Context, actor models.Actor, userID string) error {
	oid, err := ParseID(userID, "user")
	if err != nil {
		return err
	}
	user, err := s.store.Users.FindByID(ctx, oid)
	if err != nil {
		return storeErr(err, "User not found")
	}
	if user.ID == actor.UserID {
		return apperror.Validation("You cannot delete yourself")
	}
	if err := s.store.Users.Delete(ctx, oid); err != nil {
		return storeErr(err, "User not found")
	}
	return nil
}
