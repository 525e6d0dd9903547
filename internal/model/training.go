package model

import "time"

type Training struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Category    string    `bson:"category"`
	Duration    int       `bson:"duration"`
	Content     string    `bson:"content"`
	MediaURLs   []string  `bson:"mediaUrls"`
	IsPublished bool      `bson:"isPublished"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}
