// Package ledger provides the append-only stock ledger: one signed
// quantity-delta event per item mutation. The ledger is the source of
// truth for how an item's balance came to be; summing its deltas for an
// item reproduces the current quantity on hand. Corrections are made by
// appending a compensating entry, never by editing history.
package ledger

import (
	"context"
	"time"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/core/types"
)

// ReasonCode explains why a quantity changed. Closed set.
type ReasonCode string

const (
	ReasonAdd         ReasonCode = "add"
	ReasonRemove      ReasonCode = "remove"
	ReasonBulkAdd     ReasonCode = "bulk_add"
	ReasonBulkRemove  ReasonCode = "bulk_remove"
	ReasonEditAdjust  ReasonCode = "edit_adjust"
	ReasonDeleteItem  ReasonCode = "delete_item"
	ReasonInitialLoad ReasonCode = "initial_load"
)

// IsValid reports whether r is a member of the closed reason set.
func (r ReasonCode) IsValid() bool {
	switch r {
	case ReasonAdd, ReasonRemove, ReasonBulkAdd, ReasonBulkRemove,
		ReasonEditAdjust, ReasonDeleteItem, ReasonInitialLoad:
		return true
	}
	return false
}

// StockTransaction is a single immutable ledger entry.
type StockTransaction struct {
	ID         id.ID          `db:"id" json:"id"`
	Timestamp  time.Time      `db:"ts" json:"timestamp"`
	UserID     id.ID          `db:"user_id" json:"userId"`
	ItemID     id.ID          `db:"item_id" json:"itemId"`
	QtyDelta   types.Quantity `db:"qty_delta" json:"qtyDelta"`
	ReasonCode ReasonCode     `db:"reason_code" json:"reasonCode"`
	Note       *string        `db:"note" json:"note,omitempty"`
}

// Validate implements entity.Validatable.
func (t *StockTransaction) Validate(ctx context.Context) error {
	if id.IsNil(t.ItemID) {
		return apperror.NewValidation("item id is required").WithDetail("field", "itemId")
	}
	if id.IsNil(t.UserID) {
		return apperror.NewValidation("user id is required").WithDetail("field", "userId")
	}
	if !t.ReasonCode.IsValid() {
		return apperror.NewValidation("invalid reason code").
			WithDetail("field", "reasonCode").
			WithDetail("value", string(t.ReasonCode))
	}
	if t.QtyDelta.IsZero() {
		return apperror.NewValidation("quantity delta must be non-zero").WithDetail("field", "qtyDelta")
	}
	return nil
}

// Repository is the append-only store for ledger entries.
// Append assigns the identifier and timestamp server-side; caller-supplied
// values are overwritten. There is no update or delete operation.
// List projections return entries newest first.
type Repository interface {
	Append(ctx context.Context, entry *StockTransaction) error
	ListByItem(ctx context.Context, itemID id.ID) ([]*StockTransaction, error)
	ListRecent(ctx context.Context, limit int) ([]*StockTransaction, error)
}
