package repository

import (
	"context"
	"fmt"

	"github.com/flicky/agri-backoffice/internal/model"
)

type WeatherRepository interface {
	Latest(ctx context.Context, limit int64) ([]model.WeatherAlert, error)
}

type mongoWeatherRepo struct{ c collection[model.WeatherAlert] }

func NewWeatherRepository(store DocumentStore) WeatherRepository {
	return &mongoWeatherRepo{c: collection[model.WeatherAlert]{store: store, name: CollectionWeatherAlerts}}
}

func (r *mongoWeatherRepo) Latest(ctx context.Context, limit int64) ([]model.WeatherAlert, error) {
	alerts, err := r.c.find(ctx, Query{OrderBy: "createdAt", Descending: true, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list weather alerts: %w", err)
	}
	return alerts, nil
}
