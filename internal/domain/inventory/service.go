// Package inventory orchestrates the item registry, stock ledger and
// audit trail as one unit of work per operation. Each public operation
// either fully completes (item write + ledger append + audit append,
// committed together) or leaves no partial trace visible to subsequent
// reads. Conflict detection is purely optimistic: no locks are held
// between read and write, and a version mismatch at write time is
// surfaced to the caller, never retried here.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/core/tx"
	"kota/internal/core/types"
	"kota/internal/domain/audit"
	"kota/internal/domain/item"
	"kota/internal/domain/ledger"
	"kota/internal/domain/location"
	"kota/pkg/logger"
)

// snapshotSchemaVersion tags audit payloads so their shape can evolve.
const snapshotSchemaVersion = 1

// entityTypeItem is the audit trail tag for item mutations.
const entityTypeItem = "item"

// Service provides the inventory operations. The acting user is an
// explicit parameter on every call; the service holds no ambient
// current-user state.
type Service struct {
	items   item.Repository
	entries ledger.Repository
	audits  audit.Repository
	bins    location.BinRepository
	txm     tx.Manager
}

// NewService creates the inventory service.
func NewService(
	items item.Repository,
	entries ledger.Repository,
	audits audit.Repository,
	bins location.BinRepository,
	txm tx.Manager,
) *Service {
	return &Service{
		items:   items,
		entries: entries,
		audits:  audits,
		bins:    bins,
		txm:     txm,
	}
}

// itemSnapshot is the audit payload for create/delete/edit of an item.
type itemSnapshot struct {
	SchemaVersion   int            `json:"schemaVersion"`
	ID              id.ID          `json:"id"`
	Description     string         `json:"description"`
	ManufacturerSKU *string        `json:"manufacturerSku,omitempty"`
	QtyOnHand       types.Quantity `json:"qtyOnHand"`
	MinQty          types.Quantity `json:"minQty"`
	BinID           id.ID          `json:"binId"`
	Notes           *string        `json:"notes,omitempty"`
	Version         int            `json:"version"`
}

// qtySnapshot is the audit payload for add/remove stock operations.
type qtySnapshot struct {
	SchemaVersion int            `json:"schemaVersion"`
	QtyOnHand     types.Quantity `json:"qtyOnHand"`
}

func snapshotItem(it *item.Item) json.RawMessage {
	b, _ := json.Marshal(itemSnapshot{
		SchemaVersion:   snapshotSchemaVersion,
		ID:              it.ID,
		Description:     it.Description,
		ManufacturerSKU: it.ManufacturerSKU,
		QtyOnHand:       it.QtyOnHand,
		MinQty:          it.MinQty,
		BinID:           it.BinID,
		Notes:           it.Notes,
		Version:         it.Version,
	})
	return b
}

func snapshotQty(q types.Quantity) json.RawMessage {
	b, _ := json.Marshal(qtySnapshot{SchemaVersion: snapshotSchemaVersion, QtyOnHand: q})
	return b
}

// GetItem retrieves an item by id.
func (s *Service) GetItem(ctx context.Context, itemID id.ID) (*item.Item, error) {
	return s.items.GetByID(ctx, itemID)
}

// ListItems returns the item grid (items joined with location names).
func (s *Service) ListItems(ctx context.Context) ([]*item.GridRow, error) {
	return s.items.ListGrid(ctx)
}

// ListLowStock returns items at or below their minimum threshold.
func (s *Service) ListLowStock(ctx context.Context) ([]*item.GridRow, error) {
	return s.items.ListLowStock(ctx)
}

// GetItemLocation resolves the full Site→Bin path for an item.
func (s *Service) GetItemLocation(ctx context.Context, itemID id.ID) (*location.Path, error) {
	return s.items.GetLocation(ctx, itemID)
}

// ListTransactionsByItem returns the item's ledger entries, newest first.
func (s *Service) ListTransactionsByItem(ctx context.Context, itemID id.ID) ([]*ledger.StockTransaction, error) {
	return s.entries.ListByItem(ctx, itemID)
}

// ListRecentTransactions returns the most recent ledger entries.
func (s *Service) ListRecentTransactions(ctx context.Context, limit int) ([]*ledger.StockTransaction, error) {
	return s.entries.ListRecent(ctx, limit)
}

// CreateItem registers a new item. The draft's identifier, version and
// timestamps are assigned here. When the starting quantity is positive
// an initial_load ledger entry records it, so the ledger reconciles from
// the very first row.
func (s *Service) CreateItem(ctx context.Context, draft *item.Item, actorID id.ID) (*item.Item, error) {
	if draft.Description == "" {
		return nil, apperror.NewValidation("description is required").WithDetail("field", "description")
	}
	created := item.New(draft.Description, draft.BinID)
	created.ManufacturerSKU = draft.ManufacturerSKU
	created.QtyOnHand = draft.QtyOnHand
	created.MinQty = draft.MinQty
	created.Notes = draft.Notes

	if err := created.Validate(ctx); err != nil {
		return nil, err
	}

	ok, err := s.bins.Exists(ctx, created.BinID)
	if err != nil {
		return nil, fmt.Errorf("check bin: %w", err)
	}
	if !ok {
		return nil, apperror.NewNotFound("bin", created.BinID.String())
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.items.Create(ctx, created); err != nil {
			return fmt.Errorf("create item: %w", err)
		}

		if created.QtyOnHand.IsPositive() {
			note := "Initial inventory load"
			entry := &ledger.StockTransaction{
				UserID:     actorID,
				ItemID:     created.ID,
				QtyDelta:   created.QtyOnHand,
				ReasonCode: ledger.ReasonInitialLoad,
				Note:       &note,
			}
			if err := s.entries.Append(ctx, entry); err != nil {
				return fmt.Errorf("append initial load: %w", err)
			}
		}

		return s.audits.Append(ctx, &audit.Entry{
			UserID:     actorID,
			EntityType: entityTypeItem,
			EntityID:   created.ID,
			Action:     audit.ActionCreate,
			AfterJSON:  snapshotItem(created),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "item created",
		"item_id", created.ID,
		"qty_on_hand", created.QtyOnHand,
		"actor_id", actorID,
	)
	return created, nil
}

// UpdateItem applies a full-state edit carrying the version the caller
// last read. A concurrent edit since that read fails the conditional
// write with CONCURRENT_MODIFICATION and nothing is changed. When the
// edit alters the quantity on hand, an edit_adjust ledger entry records
// the difference so the ledger keeps reconciling.
func (s *Service) UpdateItem(ctx context.Context, updated *item.Item, actorID id.ID) (*item.Item, error) {
	if err := updated.Validate(ctx); err != nil {
		return nil, err
	}

	existing, err := s.items.GetByID(ctx, updated.ID)
	if err != nil {
		return nil, err
	}

	if existing.BinID != updated.BinID {
		ok, err := s.bins.Exists(ctx, updated.BinID)
		if err != nil {
			return nil, fmt.Errorf("check bin: %w", err)
		}
		if !ok {
			return nil, apperror.NewNotFound("bin", updated.BinID.String())
		}
	}

	before := snapshotItem(existing)
	delta := updated.QtyOnHand.Sub(existing.QtyOnHand)

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.items.Update(ctx, updated); err != nil {
			return err
		}

		if !delta.IsZero() {
			note := "Quantity adjusted by item edit"
			entry := &ledger.StockTransaction{
				UserID:     actorID,
				ItemID:     updated.ID,
				QtyDelta:   delta,
				ReasonCode: ledger.ReasonEditAdjust,
				Note:       &note,
			}
			if err := s.entries.Append(ctx, entry); err != nil {
				return fmt.Errorf("append edit adjust: %w", err)
			}
		}

		return s.audits.Append(ctx, &audit.Entry{
			UserID:     actorID,
			EntityType: entityTypeItem,
			EntityID:   updated.ID,
			Action:     audit.ActionUpdate,
			BeforeJSON: before,
			AfterJSON:  snapshotItem(updated),
		})
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// AddStock increases an item's quantity by qty (> 0).
func (s *Service) AddStock(ctx context.Context, itemID id.ID, qty types.Quantity, note *string, actorID id.ID) (*item.Item, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "qty")
	}
	return s.adjustStock(ctx, itemID, qty, ledger.ReasonAdd, note, actorID)
}

// RemoveStock decreases an item's quantity by qty (> 0). Fails with
// INSUFFICIENT_STOCK when the freshly-read balance is below qty; the
// version check on the conditional write closes the gap between that
// check and the write.
func (s *Service) RemoveStock(ctx context.Context, itemID id.ID, qty types.Quantity, note *string, actorID id.ID) (*item.Item, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "qty")
	}
	return s.adjustStock(ctx, itemID, qty.Neg(), ledger.ReasonRemove, note, actorID)
}

// adjustStock applies a signed delta. The read, the conditional write
// keyed on the read version, the ledger append and the audit append all
// happen in one transaction.
func (s *Service) adjustStock(
	ctx context.Context,
	itemID id.ID,
	delta types.Quantity,
	reason ledger.ReasonCode,
	note *string,
	actorID id.ID,
) (*item.Item, error) {
	if !delta.Abs().IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "qty")
	}

	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	newQty := it.QtyOnHand.Add(delta)
	if newQty.IsNegative() {
		return nil, apperror.NewInsufficientStock(
			itemID.String(),
			delta.Abs().String(),
			it.QtyOnHand.String(),
		)
	}

	before := snapshotQty(it.QtyOnHand)
	it.QtyOnHand = newQty

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.items.Update(ctx, it); err != nil {
			return err
		}

		entry := &ledger.StockTransaction{
			UserID:     actorID,
			ItemID:     itemID,
			QtyDelta:   delta,
			ReasonCode: reason,
			Note:       note,
		}
		if err := s.entries.Append(ctx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}

		return s.audits.Append(ctx, &audit.Entry{
			UserID:     actorID,
			EntityType: entityTypeItem,
			EntityID:   itemID,
			Action:     audit.ActionUpdate,
			BeforeJSON: before,
			AfterJSON:  snapshotQty(newQty),
		})
	})
	if err != nil {
		return nil, err
	}

	return it, nil
}

// DeleteItem removes an item's current-state row. A positive balance is
// first zeroed with a compensating delete_item ledger entry, so the
// ledger reflects quantity returning to zero before the row disappears.
func (s *Service) DeleteItem(ctx context.Context, itemID id.ID, actorID id.ID) error {
	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}

	before := snapshotItem(it)

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if it.QtyOnHand.IsPositive() {
			note := "Item deleted"
			entry := &ledger.StockTransaction{
				UserID:     actorID,
				ItemID:     itemID,
				QtyDelta:   it.QtyOnHand.Neg(),
				ReasonCode: ledger.ReasonDeleteItem,
				Note:       &note,
			}
			if err := s.entries.Append(ctx, entry); err != nil {
				return fmt.Errorf("append delete entry: %w", err)
			}
		}

		if err := s.items.Delete(ctx, itemID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}

		return s.audits.Append(ctx, &audit.Entry{
			UserID:     actorID,
			EntityType: entityTypeItem,
			EntityID:   itemID,
			Action:     audit.ActionDelete,
			BeforeJSON: before,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "item deleted", "item_id", itemID, "actor_id", actorID)
	return nil
}

// BulkResult is the per-item outcome of a bulk operation.
type BulkResult struct {
	ItemID id.ID `json:"itemId"`
	Err    error `json:"-"`
}

// Failed reports whether this item's operation failed.
func (r BulkResult) Failed() bool { return r.Err != nil }

// BulkAddStock applies AddStock to each id independently, in the given
// order. The batch is not atomic: a failure on one id does not roll
// back earlier items, and processing continues with the next id.
func (s *Service) BulkAddStock(ctx context.Context, itemIDs []id.ID, qty types.Quantity, actorID id.ID) []BulkResult {
	if !qty.IsPositive() {
		return s.bulk(itemIDs, func(id.ID) error {
			return apperror.NewValidation("quantity must be positive").WithDetail("field", "qty")
		})
	}
	note := fmt.Sprintf("Bulk add of %s", qty.String())
	return s.bulk(itemIDs, func(itemID id.ID) error {
		_, err := s.adjustStock(ctx, itemID, qty, ledger.ReasonBulkAdd, &note, actorID)
		return err
	})
}

// BulkRemoveStock applies RemoveStock to each id independently.
func (s *Service) BulkRemoveStock(ctx context.Context, itemIDs []id.ID, qty types.Quantity, actorID id.ID) []BulkResult {
	if !qty.IsPositive() {
		return s.bulk(itemIDs, func(id.ID) error {
			return apperror.NewValidation("quantity must be positive").WithDetail("field", "qty")
		})
	}
	note := fmt.Sprintf("Bulk remove of %s", qty.String())
	return s.bulk(itemIDs, func(itemID id.ID) error {
		_, err := s.adjustStock(ctx, itemID, qty.Neg(), ledger.ReasonBulkRemove, &note, actorID)
		return err
	})
}

// BulkDeleteItems applies DeleteItem to each id independently.
func (s *Service) BulkDeleteItems(ctx context.Context, itemIDs []id.ID, actorID id.ID) []BulkResult {
	return s.bulk(itemIDs, func(itemID id.ID) error {
		return s.DeleteItem(ctx, itemID, actorID)
	})
}

func (s *Service) bulk(itemIDs []id.ID, op func(id.ID) error) []BulkResult {
	results := make([]BulkResult, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		results = append(results, BulkResult{ItemID: itemID, Err: op(itemID)})
	}
	return results
}
