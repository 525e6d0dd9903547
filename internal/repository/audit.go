package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/agri-backoffice/internal/model"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id          UUID PRIMARY KEY,
	event_id    UUID NOT NULL UNIQUE,
	action      TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	actor_id    TEXT NOT NULL DEFAULT '',
	data        JSONB,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_log_entity_idx ON audit_log (entity_type, entity_id, created_at DESC);
`

// EnsureAuditSchema creates the audit table when it does not exist yet.
func EnsureAuditSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

type AuditRepository interface {
	Insert(ctx context.Context, entry *model.AuditEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]model.AuditEntry, error)
	Ping(ctx context.Context) error
}

type pgAuditRepo struct{ pool *pgxpool.Pool }

func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &pgAuditRepo{pool: pool}
}

// Insert is idempotent on the event id: replaying an event is a no-op.
func (r *pgAuditRepo) Insert(ctx context.Context, e *model.AuditEntry) error {
	e.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, event_id, action, entity_type, entity_id, actor_id, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (event_id) DO NOTHING`,
		e.ID, e.EventID, e.Action, e.EntityType, e.EntityID, e.ActorID, e.Data, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *pgAuditRepo) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]model.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, event_id, action, entity_type, entity_id, actor_id, data, created_at
		 FROM audit_log WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY created_at DESC LIMIT $3`,
		entityType, entityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.Action, &e.EntityType, &e.EntityID, &e.ActorID, &e.Data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func (r *pgAuditRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
