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

type TrainingService struct {
	training repository.TrainingRepository
	now      func() time.Time
}

func NewTrainingService(training repository.TrainingRepository) *TrainingService {
	return &TrainingService{training: training, now: time.Now}
}

func (s *TrainingService) List(ctx context.Context) ([]dto.TrainingResponse, error) {
	units, err := s.training.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TrainingResponse, 0, len(units))
	for i := range units {
		out = append(out, toTrainingResponse(&units[i]))
	}
	return out, nil
}

func (s *TrainingService) Create(ctx context.Context, req dto.TrainingRequest) (*dto.TrainingResponse, error) {
	now := s.now().UTC()
	t := &model.Training{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if err := applyTraining(t, req); err != nil {
		return nil, err
	}
	if err := s.training.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create training: %w", err)
	}
	resp := toTrainingResponse(t)
	return &resp, nil
}

func (s *TrainingService) Update(ctx context.Context, id string, req dto.TrainingRequest) (*dto.TrainingResponse, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyTraining(t, req); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now().UTC()
	if err := s.training.Update(ctx, t); err != nil {
		return nil, s.writeErr("update training", err)
	}
	resp := toTrainingResponse(t)
	return &resp, nil
}

func (s *TrainingService) SetPublished(ctx context.Context, id string, published bool) (*dto.TrainingResponse, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	t.IsPublished = published
	t.UpdatedAt = s.now().UTC()
	if err := s.training.SetPublished(ctx, id, published, t.UpdatedAt); err != nil {
		return nil, s.writeErr("publish training", err)
	}
	resp := toTrainingResponse(t)
	return &resp, nil
}

func (s *TrainingService) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.training.Delete(ctx, id); err != nil {
		return s.writeErr("delete training", err)
	}
	return nil
}

func (s *TrainingService) find(ctx context.Context, id string) (*model.Training, error) {
	t, err := s.training.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTrainingNotFound
	}
	return t, nil
}

func (s *TrainingService) writeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTrainingNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func applyTraining(t *model.Training, req dto.TrainingRequest) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return invalid("title", "is required")
	}
	if req.Duration < 0 {
		return invalid("duration", "must not be negative")
	}
	t.Title = title
	t.Category = strings.TrimSpace(req.Category)
	t.Duration = req.Duration
	t.Content = req.Content
	t.MediaURLs = cleanList(req.MediaURLs)
	t.IsPublished = req.IsPublished
	return nil
}

func toTrainingResponse(t *model.Training) dto.TrainingResponse {
	return dto.TrainingResponse{
		ID:          t.ID,
		Title:       t.Title,
		Category:    t.Category,
		Duration:    t.Duration,
		Content:     t.Content,
		MediaURLs:   t.MediaURLs,
		IsPublished: t.IsPublished,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
