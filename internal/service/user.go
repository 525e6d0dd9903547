package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/agri-backoffice/internal/dto"
	"github.com/flicky/agri-backoffice/internal/model"
	"github.com/flicky/agri-backoffice/internal/repository"
)

type UserService struct {
	users    repository.UserRepository
	vendors  repository.VendorRepository
	notifier *Notifier
	now      func() time.Time
}

func NewUserService(users repository.UserRepository, vendors repository.VendorRepository, notifier *Notifier) *UserService {
	return &UserService{users: users, vendors: vendors, notifier: notifier, now: time.Now}
}

// List returns users matching search over name, email, phone and region.
func (s *UserService) List(ctx context.Context, search string) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		if term != "" && !containsFold(term, u.Name, u.Email, u.Phone, u.Region) {
			continue
		}
		out = append(out, toUserResponse(u))
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*dto.UserResponse, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	set := func(key string, dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
			fields[key] = *dst
		}
	}
	set("name", &u.Name, req.Name)
	set("phone", &u.Phone, req.Phone)
	set("region", &u.Region, req.Region)
	set("agroEcologicalZone", &u.AgroEcologicalZone, req.AgroEcologicalZone)
	set("address", &u.Address, req.Address)
	if req.Disabled != nil {
		u.Disabled = *req.Disabled
		fields["disabled"] = u.Disabled
	}
	if req.Name != nil && u.Name == "" {
		return nil, invalid("name", "must not be empty")
	}
	if len(fields) == 0 {
		resp := toUserResponse(u)
		return &resp, nil
	}

	u.UpdatedAt = s.now().UTC()
	fields["updatedAt"] = u.UpdatedAt
	if err := s.write(ctx, id, fields); err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

// Promote gives the user the vendor role and makes sure an approved vendor
// record exists for them.
func (s *UserService) Promote(ctx context.Context, id string, confirmed bool, actorID string) (*dto.UserResponse, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.HasAdminRights() {
		return nil, invalid("role", "administrators cannot be promoted to vendor")
	}

	now := s.now().UTC()
	if u.EffectiveRole() != model.RoleVendor {
		if err := s.write(ctx, id, map[string]any{"role": model.RoleVendor, "updatedAt": now}); err != nil {
			return nil, err
		}
		u.Role, u.UpdatedAt = model.RoleVendor, now
	}

	existing, err := s.vendors.GetByUserID(ctx, id)
	if err != nil {
		return nil, err
	}
	vendorID := ""
	if existing == nil {
		v := &model.Vendor{
			ID:          uuid.NewString(),
			UserID:      u.ID,
			Name:        u.Name,
			Email:       u.Email,
			PhoneNumber: u.Phone,
			Address:     u.Address,
			Status:      model.VendorStatusApproved,
			ApprovedAt:  &now,
			ApprovedBy:  actorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.vendors.Create(ctx, v); err != nil {
			return nil, fmt.Errorf("create vendor record: %w", err)
		}
		vendorID = v.ID
	} else {
		vendorID = existing.ID
	}

	s.notifier.Notify(ctx, model.NewEvent(model.EventUserPromoted, "user", id, actorID, map[string]any{
		"vendor_id": vendorID,
	}))
	resp := toUserResponse(u)
	return &resp, nil
}

func (s *UserService) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *UserService) find(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *UserService) write(ctx context.Context, id string, fields map[string]any) error {
	if err := s.users.Update(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
