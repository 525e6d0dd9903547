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

// defaultSubsidyMonths is the length of a subsidy created without dates.
const defaultSubsidyMonths = 6

type SubsidyService struct {
	subsidies repository.SubsidyRepository
	now       func() time.Time
}

func NewSubsidyService(subsidies repository.SubsidyRepository) *SubsidyService {
	return &SubsidyService{subsidies: subsidies, now: time.Now}
}

// List returns every subsidy with its status derived at read time.
func (s *SubsidyService) List(ctx context.Context) ([]dto.SubsidyResponse, error) {
	subsidies, err := s.subsidies.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]dto.SubsidyResponse, 0, len(subsidies))
	for i := range subsidies {
		out = append(out, toSubsidyResponse(&subsidies[i], now))
	}
	return out, nil
}

func (s *SubsidyService) Create(ctx context.Context, req dto.SubsidyRequest) (*dto.SubsidyResponse, error) {
	now := s.now().UTC()
	sub := &model.Subsidy{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if err := applySubsidy(sub, req); err != nil {
		return nil, err
	}
	if sub.StartDate == nil {
		sub.StartDate = &now
	}
	if sub.EndDate == nil {
		end := sub.StartDate.AddDate(0, defaultSubsidyMonths, 0)
		sub.EndDate = &end
	}
	if err := checkSubsidyRange(sub); err != nil {
		return nil, err
	}
	if err := s.subsidies.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subsidy: %w", err)
	}
	resp := toSubsidyResponse(sub, s.now())
	return &resp, nil
}

// Update replaces the editable fields; omitted dates keep their stored value.
func (s *SubsidyService) Update(ctx context.Context, id string, req dto.SubsidyRequest) (*dto.SubsidyResponse, error) {
	sub, err := s.subsidies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubsidyNotFound
	}
	if err := applySubsidy(sub, req); err != nil {
		return nil, err
	}
	if err := checkSubsidyRange(sub); err != nil {
		return nil, err
	}
	sub.UpdatedAt = s.now().UTC()
	if err := s.subsidies.Update(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubsidyNotFound
		}
		return nil, fmt.Errorf("update subsidy: %w", err)
	}
	resp := toSubsidyResponse(sub, s.now())
	return &resp, nil
}

func (s *SubsidyService) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.subsidies.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSubsidyNotFound
		}
		return fmt.Errorf("delete subsidy: %w", err)
	}
	return nil
}

func applySubsidy(sub *model.Subsidy, req dto.SubsidyRequest) error {
	name, typ := strings.TrimSpace(req.Name), strings.TrimSpace(req.Type)
	if name == "" {
		return invalid("name", "is required")
	}
	if typ == "" {
		return invalid("type", "is required")
	}
	amount, err := parseAmount("amount", req.Amount, true)
	if err != nil {
		return err
	}

	sub.Name, sub.Type, sub.Amount = name, typ, *amount
	sub.Beneficiaries = cleanList(req.Beneficiaries)
	if req.StartDate != nil {
		t := req.StartDate.UTC()
		sub.StartDate = &t
	}
	if req.EndDate != nil {
		t := req.EndDate.UTC()
		sub.EndDate = &t
	}
	return nil
}

func checkSubsidyRange(sub *model.Subsidy) error {
	if sub.StartDate != nil && sub.EndDate != nil && sub.EndDate.Before(*sub.StartDate) {
		return invalid("end_date", "must not be before start_date")
	}
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toSubsidyResponse(sub *model.Subsidy, now time.Time) dto.SubsidyResponse {
	status := sub.StatusAt(now)
	return dto.SubsidyResponse{
		ID:            sub.ID,
		Name:          sub.Name,
		Type:          sub.Type,
		Amount:        sub.Amount,
		Beneficiaries: sub.Beneficiaries,
		StartDate:     sub.StartDate,
		EndDate:       sub.EndDate,
		Status:        status,
		StatusLabel:   status.Label(),
	}
}
