package model

import "time"

type WeatherAlert struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Region      string    `bson:"region"`
	Type        string    `bson:"type"`
	Description string    `bson:"description"`
	Severity    string    `bson:"severity"`
	RiskLevel   string    `bson:"riskLevel,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
}
