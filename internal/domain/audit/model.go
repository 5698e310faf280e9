// Package audit provides the append-only audit trail: before/after
// state snapshots for any entity mutation, keyed by entity type and id.
// Entries are immutable once written; there is no update or delete.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
)

// Action is the audited operation kind.
type Action string

const (
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionLogin         Action = "login"
	ActionPasswordReset Action = "password_reset"
)

// IsValid reports whether a is a member of the closed action set.
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionLogin, ActionPasswordReset:
		return true
	}
	return false
}

// Entry is a single audit record. BeforeJSON/AfterJSON are opaque
// snapshots; stock-affecting operations embed a schemaVersion field in
// the payload so the shape can evolve without breaking replay.
type Entry struct {
	ID         id.ID           `db:"id" json:"id"`
	Timestamp  time.Time       `db:"ts" json:"timestamp"`
	UserID     id.ID           `db:"user_id" json:"userId"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   id.ID           `db:"entity_id" json:"entityId"`
	Action     Action          `db:"action" json:"action"`
	BeforeJSON json.RawMessage `db:"before_json" json:"before,omitempty"`
	AfterJSON  json.RawMessage `db:"after_json" json:"after,omitempty"`
}

// Validate implements entity.Validatable.
func (e *Entry) Validate(ctx context.Context) error {
	if e.EntityType == "" {
		return apperror.NewValidation("entity type is required").WithDetail("field", "entityType")
	}
	if id.IsNil(e.EntityID) {
		return apperror.NewValidation("entity id is required").WithDetail("field", "entityId")
	}
	if !e.Action.IsValid() {
		return apperror.NewValidation("invalid audit action").
			WithDetail("field", "action").
			WithDetail("value", string(e.Action))
	}
	return nil
}

// Repository is the append-only store for audit entries.
// Append assigns the identifier and timestamp server-side; caller-supplied
// values are overwritten. There is no update or delete operation.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByEntity(ctx context.Context, entityType string, entityID id.ID) ([]*Entry, error)
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
}
