package service

import (
	"context"

	"github.com/flicky/agri-backoffice/internal/dto"
	"github.com/flicky/agri-backoffice/internal/repository"
)

const weatherAlertLimit = 20

type WeatherService struct {
	alerts repository.WeatherRepository
}

func NewWeatherService(alerts repository.WeatherRepository) *WeatherService {
	return &WeatherService{alerts: alerts}
}

func (s *WeatherService) Latest(ctx context.Context) ([]dto.WeatherAlertResponse, error) {
	alerts, err := s.alerts.Latest(ctx, weatherAlertLimit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.WeatherAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, dto.WeatherAlertResponse{
			ID: a.ID, Title: a.Title, Region: a.Region, Type: a.Type,
			Description: a.Description, Severity: a.Severity, RiskLevel: a.RiskLevel,
			CreatedAt: a.CreatedAt,
		})
	}
	return out, nil
}
