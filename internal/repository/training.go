package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/flicky/agri-backoffice/internal/model"
)

type TrainingRepository interface {
	List(ctx context.Context) ([]model.Training, error)
	GetByID(ctx context.Context, id string) (*model.Training, error)
	Create(ctx context.Context, training *model.Training) error
	Update(ctx context.Context, training *model.Training) error
	SetPublished(ctx context.Context, id string, published bool, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type mongoTrainingRepo struct{ c collection[model.Training] }

func NewTrainingRepository(store DocumentStore) TrainingRepository {
	return &mongoTrainingRepo{c: collection[model.Training]{store: store, name: CollectionTraining}}
}

func (r *mongoTrainingRepo) List(ctx context.Context) ([]model.Training, error) {
	units, err := r.c.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("list training: %w", err)
	}
	return units, nil
}

func (r *mongoTrainingRepo) GetByID(ctx context.Context, id string) (*model.Training, error) {
	t, err := r.c.get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get training: %w", err)
	}
	return t, nil
}

func (r *mongoTrainingRepo) Create(ctx context.Context, t *model.Training) error {
	if err := r.c.add(ctx, t); err != nil {
		return fmt.Errorf("create training: %w", err)
	}
	return nil
}

func (r *mongoTrainingRepo) Update(ctx context.Context, t *model.Training) error {
	err := r.c.update(ctx, t.ID, map[string]any{
		"title":       t.Title,
		"category":    t.Category,
		"duration":    t.Duration,
		"content":     t.Content,
		"mediaUrls":   t.MediaURLs,
		"isPublished": t.IsPublished,
		"updatedAt":   t.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update training: %w", err)
	}
	return nil
}

func (r *mongoTrainingRepo) SetPublished(ctx context.Context, id string, published bool, updatedAt time.Time) error {
	if err := r.c.update(ctx, id, map[string]any{"isPublished": published, "updatedAt": updatedAt}); err != nil {
		return fmt.Errorf("set training published: %w", err)
	}
	return nil
}

func (r *mongoTrainingRepo) Delete(ctx context.Context, id string) error {
	if err := r.c.delete(ctx, id); err != nil {
		return fmt.Errorf("delete training: %w", err)
	}
	return nil
}
