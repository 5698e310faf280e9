// Package item provides the item registry: the current-state row for
// each stocked item. The registry exclusively owns this row; the stock
// ledger and audit trail only append records referencing it. The
// version counter is the sole concurrency token for updates.
package item

import (
	"context"

	"kota/internal/core/apperror"
	"kota/internal/core/entity"
	"kota/internal/core/id"
	"kota/internal/core/types"
)

const (
	maxDescriptionLen = 255
	maxSKULen         = 64
)

// Item is a stocked inventory item placed in a bin.
type Item struct {
	entity.Versioned

	Description     string         `db:"description" json:"description"`
	ManufacturerSKU *string        `db:"manufacturer_sku" json:"manufacturerSku,omitempty"`
	QtyOnHand       types.Quantity `db:"qty_on_hand" json:"qtyOnHand"`
	MinQty          types.Quantity `db:"min_qty" json:"minQty"`
	BinID           id.ID          `db:"bin_id" json:"binId"`
	Notes           *string        `db:"notes" json:"notes,omitempty"`
}

// New creates an Item with a generated ID, version 1 and current timestamps.
func New(description string, binID id.ID) *Item {
	return &Item{
		Versioned:   entity.NewVersioned(),
		Description: description,
		BinID:       binID,
		QtyOnHand:   types.ZeroQuantity(),
		MinQty:      types.ZeroQuantity(),
	}
}

// Validate implements entity.Validatable.
func (i *Item) Validate(ctx context.Context) error {
	if i.Description == "" {
		return apperror.NewValidation("description is required").WithDetail("field", "description")
	}
	if len(i.Description) > maxDescriptionLen {
		return apperror.NewValidation("description is too long").
			WithDetail("field", "description").
			WithDetail("max_length", maxDescriptionLen)
	}
	if i.ManufacturerSKU != nil && len(*i.ManufacturerSKU) > maxSKULen {
		return apperror.NewValidation("manufacturer SKU is too long").
			WithDetail("field", "manufacturerSku").
			WithDetail("max_length", maxSKULen)
	}
	if i.QtyOnHand.IsNegative() {
		return apperror.NewValidation("quantity on hand must not be negative").
			WithDetail("field", "qtyOnHand")
	}
	if i.MinQty.IsNegative() {
		return apperror.NewValidation("minimum quantity must not be negative").
			WithDetail("field", "minQty")
	}
	if id.IsNil(i.BinID) {
		return apperror.NewValidation("bin reference is required").WithDetail("field", "binId")
	}
	return nil
}

// IsLowStock reports whether the on-hand quantity has reached the
// minimum threshold.
func (i *Item) IsLowStock() bool {
	return i.QtyOnHand.LessThanOrEqual(i.MinQty)
}

// GridRow is the flattened listing projection: item fields joined with
// the names of its location chain.
type GridRow struct {
	ID              id.ID          `db:"id" json:"id"`
	ManufacturerSKU *string        `db:"manufacturer_sku" json:"manufacturerSku,omitempty"`
	Description     string         `db:"description" json:"description"`
	QtyOnHand       types.Quantity `db:"qty_on_hand" json:"qtyOnHand"`
	MinQty          types.Quantity `db:"min_qty" json:"minQty"`
	Site            string         `db:"site" json:"site"`
	Building        string         `db:"building" json:"building"`
	Room            string         `db:"room" json:"room"`
	Area            *string        `db:"area" json:"area,omitempty"`
	StorageUnit     string         `db:"storage_unit" json:"storageUnit"`
	Bin             string         `db:"bin" json:"bin"`
	Notes           *string        `db:"notes" json:"notes,omitempty"`
	Version         int            `db:"version" json:"version"`
}
