package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry - запись журнала действий привилегированного домена
type AuditEntry struct {
	ID         uuid.UUID `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Target     string    `json:"target,omitempty"`
	Outcome    string    `json:"outcome"`
	ClientIP   string    `json:"client_ip,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
