package dto

import (
	"kota/internal/core/types"
	"kota/internal/domain/inventory"
)

// CreateItemRequest registers a new item.
type CreateItemRequest struct {
	Description     string          `json:"description" binding:"required"`
	ManufacturerSKU *string         `json:"manufacturerSku"`
	QtyOnHand       *types.Quantity `json:"qtyOnHand"`
	MinQty          *types.Quantity `json:"minQty"`
	BinID           string          `json:"binId" binding:"required"`
	Notes           *string         `json:"notes"`
}

// UpdateItemRequest carries a full-state edit. Version must be the
// value the client last read; a stale version is rejected.
type UpdateItemRequest struct {
	Description     string          `json:"description" binding:"required"`
	ManufacturerSKU *string         `json:"manufacturerSku"`
	QtyOnHand       *types.Quantity `json:"qtyOnHand"`
	MinQty          *types.Quantity `json:"minQty"`
	BinID           string          `json:"binId" binding:"required"`
	Notes           *string         `json:"notes"`
	Version         int             `json:"version" binding:"required"`
}

// AdjustStockRequest adds or removes stock.
type AdjustStockRequest struct {
	Qty  types.Quantity `json:"qty" binding:"required"`
	Note *string        `json:"note"`
}

// BulkStockRequest applies one adjustment to many items.
type BulkStockRequest struct {
	ItemIDs []string       `json:"itemIds" binding:"required,min=1"`
	Qty     types.Quantity `json:"qty" binding:"required"`
}

// BulkDeleteRequest deletes many items.
type BulkDeleteRequest struct {
	ItemIDs []string `json:"itemIds" binding:"required,min=1"`
}

// BulkResultResponse is the per-item outcome of a bulk operation.
type BulkResultResponse struct {
	ItemID string `json:"itemId"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// NewBulkResultResponses maps service outcomes to the wire shape.
func NewBulkResultResponses(results []inventory.BulkResult) []BulkResultResponse {
	out := make([]BulkResultResponse, 0, len(results))
	for _, res := range results {
		item := BulkResultResponse{ItemID: res.ItemID.String(), OK: !res.Failed()}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		out = append(out, item)
	}
	return out
}
