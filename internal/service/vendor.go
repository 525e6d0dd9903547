package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flicky/agri-backoffice/internal/dto"
	"github.com/flicky/agri-backoffice/internal/model"
	"github.com/flicky/agri-backoffice/internal/repository"
)

type VendorService struct {
	vendors  repository.VendorRepository
	notifier *Notifier
	now      func() time.Time
}

func NewVendorService(vendors repository.VendorRepository, notifier *Notifier) *VendorService {
	return &VendorService{vendors: vendors, notifier: notifier, now: time.Now}
}

// List applies the status filter in the store and the search term in memory.
func (s *VendorService) List(ctx context.Context, filter, search string) ([]dto.VendorResponse, error) {
	status, err := model.ParseVendorFilter(filter)
	if err != nil {
		return nil, invalid("filter", err.Error())
	}
	vendors, err := s.vendors.List(ctx, status)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]dto.VendorResponse, 0, len(vendors))
	for i := range vendors {
		v := &vendors[i]
		if term != "" && !containsFold(term, v.Name, v.Email, v.PhoneNumber) {
			continue
		}
		out = append(out, toVendorResponse(v, false))
	}
	return out, nil
}

func (s *VendorService) Get(ctx context.Context, id string) (*dto.VendorResponse, error) {
	v, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toVendorResponse(v, true)
	return &resp, nil
}

func (s *VendorService) Approve(ctx context.Context, id, actorID string) (*dto.VendorResponse, error) {
	v, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := decide(v, model.VendorStatusApproved); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.decideWrite(ctx, id, map[string]any{
		"status":     string(model.VendorStatusApproved),
		"approvedBy": actorID,
		"approvedAt": now,
		"updatedAt":  now,
	}); err != nil {
		return nil, err
	}
	v.Status, v.ApprovedBy, v.ApprovedAt, v.UpdatedAt = model.VendorStatusApproved, actorID, &now, now

	s.notifier.Notify(ctx, model.NewEvent(model.EventVendorApproved, "vendor", id, actorID, nil))
	resp := toVendorResponse(v, true)
	return &resp, nil
}

// Reject records a decision with a mandatory reason. A blank reason aborts
// before anything is read or written.
func (s *VendorService) Reject(ctx context.Context, id, actorID, reason string) (*dto.VendorResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	v, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := decide(v, model.VendorStatusRejected); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.decideWrite(ctx, id, map[string]any{
		"status":          string(model.VendorStatusRejected),
		"rejectedBy":      actorID,
		"rejectedAt":      now,
		"rejectionReason": reason,
		"updatedAt":       now,
	}); err != nil {
		return nil, err
	}
	v.Status, v.RejectedBy, v.RejectedAt, v.RejectionReason, v.UpdatedAt = model.VendorStatusRejected, actorID, &now, reason, now

	s.notifier.Notify(ctx, model.NewEvent(model.EventVendorRejected, "vendor", id, actorID, map[string]any{
		"reason": reason,
	}))
	resp := toVendorResponse(v, true)
	return &resp, nil
}

func (s *VendorService) find(ctx context.Context, id string) (*model.Vendor, error) {
	v, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrVendorNotFound
	}
	return v, nil
}

// decideWrite stores a decision conditionally on the vendor still being
// pending, so a concurrent decision cannot be overwritten.
func (s *VendorService) decideWrite(ctx context.Context, id string, fields map[string]any) error {
	if err := s.vendors.Decide(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: vendor %s is no longer pending", ErrVendorDecided, id)
		}
		return fmt.Errorf("update vendor: %w", err)
	}
	return nil
}

func decide(v *model.Vendor, to model.VendorStatus) error {
	if err := model.ValidateVendorTransition(v.Status, to); err != nil {
		return fmt.Errorf("%w: %w", ErrVendorDecided, err)
	}
	return nil
}

// containsFold reports whether any field contains the lower-cased term.
func containsFold(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func toVendorResponse(v *model.Vendor, detail bool) dto.VendorResponse {
	status := v.Status.Normalize()
	resp := dto.VendorResponse{
		ID:              v.ID,
		UserID:          v.UserID,
		Name:            v.Name,
		Email:           v.Email,
		PhoneNumber:     v.PhoneNumber,
		Address:         v.Address,
		Status:          status,
		StatusLabel:     status.Label(),
		ApprovedAt:      v.ApprovedAt,
		ApprovedBy:      v.ApprovedBy,
		RejectedAt:      v.RejectedAt,
		RejectedBy:      v.RejectedBy,
		RejectionReason: v.RejectionReason,
		CreatedAt:       v.CreatedAt,
	}
	if detail {
		resp.Documents = v.Documents()
	}
	return resp
}
