package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var errConnClosed = errors.New("connection closed")

// backendCheck pings one dependency; a nil error means ready.
type backendCheck struct {
	name string
	ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks []backendCheck
}

func NewHealthHandler(mongoClient *mongo.Client, dbPool *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp.Connection) *HealthHandler {
	return newHealthHandler(
		backendCheck{"mongo", func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) }},
		backendCheck{"postgres", dbPool.Ping},
		backendCheck{"redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		backendCheck{"rabbitmq", func(context.Context) error {
			if amqpConn.IsClosed() {
				return errConnClosed
			}
			return nil
		}},
	)
}

func newHealthHandler(checks ...backendCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz pings every backend and reports each one, so a single outage does
// not hide the state of the others.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	body := gin.H{"status": "ok"}
	code := http.StatusOK
	for _, chk := range h.checks {
		if err := chk.ping(ctx); err != nil {
			body[chk.name] = "unavailable"
			body["status"] = "error"
			code = http.StatusServiceUnavailable
			continue
		}
		body[chk.name] = "connected"
	}
	c.JSON(code, body)
}
