package item

import (
	"context"

	"kota/internal/core/id"
	"kota/internal/domain/location"
)

// Repository persists the item current-state row.
type Repository interface {
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	// Create inserts a new item row. The item must already carry
	// version 1 and creation timestamps.
	Create(ctx context.Context, item *Item) error

	// Update performs the conditional write: it succeeds only if the
	// stored row's version still equals item.Version (the version the
	// caller last read). On success the stored and in-memory version
	// become item.Version+1 and UpdatedAt is refreshed. On mismatch it
	// returns a CONCURRENT_MODIFICATION error and writes nothing.
	Update(ctx context.Context, item *Item) error

	// Delete removes the current-state row. Ledger history referencing
	// the item is left untouched.
	Delete(ctx context.Context, itemID id.ID) error

	// ListGrid returns all items with joined location names, ordered by
	// description.
	ListGrid(ctx context.Context) ([]*GridRow, error)

	// ListLowStock returns items whose quantity on hand is at or below
	// their minimum threshold.
	ListLowStock(ctx context.Context) ([]*GridRow, error)

	// GetLocation resolves the full Site→Bin path for an item.
	GetLocation(ctx context.Context, itemID id.ID) (*location.Path, error)
}
