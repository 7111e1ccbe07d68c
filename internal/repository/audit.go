package repository

import (
	"context"

	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/pkg/e"
)

type AuditRepository struct {
	db DB
}

func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Save сохраняет запись аудита; повторная доставка той же записи игнорируется
func (r *AuditRepository) Save(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, actor, action, target, outcome, client_ip, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.Actor,
		entry.Action,
		entry.Target,
		entry.Outcome,
		entry.ClientIP,
		entry.OccurredAt,
	)
	if err != nil {
		return e.WrapError("failed to save audit entry", err)
	}
	return nil
}
