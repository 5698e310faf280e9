package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"kota/internal/core/apperror"
	"kota/internal/core/entity"
	"kota/internal/core/id"
	"kota/internal/core/types"
	"kota/internal/domain/item"
	"kota/internal/domain/inventory"
	"kota/internal/infrastructure/http/v1/dto"
)

// ItemHandler serves the item registry, stock and ledger endpoints.
type ItemHandler struct {
	*BaseHandler
	svc *inventory.Service
}

// NewItemHandler creates the item handler.
func NewItemHandler(svc *inventory.Service) *ItemHandler {
	return &ItemHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

func qtyOrZero(q *types.Quantity) types.Quantity {
	if q == nil {
		return types.ZeroQuantity()
	}
	return *q
}

// Create handles POST /items.
func (h *ItemHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	binID, err := id.Parse(req.BinID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid bin id").WithDetail("field", "binId"))
		return
	}

	draft := &item.Item{
		Description:     req.Description,
		ManufacturerSKU: req.ManufacturerSKU,
		QtyOnHand:       qtyOrZero(req.QtyOnHand),
		MinQty:          qtyOrZero(req.MinQty),
		BinID:           binID,
		Notes:           req.Notes,
	}

	created, err := h.svc.CreateItem(c.Request.Context(), draft, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created.ID.String())
}

// Get handles GET /items/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	it, err := h.svc.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, it)
}

// List handles GET /items.
func (h *ItemHandler) List(c *gin.Context) {
	rows, err := h.svc.ListItems(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rows)
}

// ListLowStock handles GET /items/low-stock.
func (h *ItemHandler) ListLowStock(c *gin.Context) {
	rows, err := h.svc.ListLowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rows)
}

// GetLocation handles GET /items/:id/location.
func (h *ItemHandler) GetLocation(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	path, err := h.svc.GetItemLocation(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.PathResponse{
		SiteName:        path.SiteName,
		BuildingName:    path.BuildingName,
		RoomName:        path.RoomName,
		AreaName:        path.AreaName,
		StorageUnitName: path.StorageUnitName,
		BinName:         path.BinName,
		Names:           path.Names(),
	})
}

// Update handles PUT /items/:id.
func (h *ItemHandler) Update(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	binID, err := id.Parse(req.BinID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid bin id").WithDetail("field", "binId"))
		return
	}

	updated := &item.Item{
		Versioned: entity.Versioned{
			Base:    entity.Base{ID: itemID},
			Version: req.Version,
		},
		Description:     req.Description,
		ManufacturerSKU: req.ManufacturerSKU,
		QtyOnHand:       qtyOrZero(req.QtyOnHand),
		MinQty:          qtyOrZero(req.MinQty),
		BinID:           binID,
		Notes:           req.Notes,
	}
	// Version stays as submitted: it is the expected version for the
	// conditional write, not the next one.
	updated.UpdatedAt = time.Now().UTC()

	result, err := h.svc.UpdateItem(c.Request.Context(), updated, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// AddStock handles POST /items/:id/add.
func (h *ItemHandler) AddStock(c *gin.Context) {
	h.adjust(c, h.svc.AddStock)
}

// RemoveStock handles POST /items/:id/remove.
func (h *ItemHandler) RemoveStock(c *gin.Context) {
	h.adjust(c, h.svc.RemoveStock)
}

func (h *ItemHandler) adjust(
	c *gin.Context,
	op func(ctx context.Context, itemID id.ID, qty types.Quantity, note *string, actorID id.ID) (*item.Item, error),
) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	it, err := op(c.Request.Context(), itemID, req.Qty, req.Note, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, it)
}

// Delete handles DELETE /items/:id.
func (h *ItemHandler) Delete(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteItem(c.Request.Context(), itemID, actorID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// BulkAdd handles POST /items/bulk/add.
func (h *ItemHandler) BulkAdd(c *gin.Context) {
	var req dto.BulkStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.bulkStock(c, req, h.svc.BulkAddStock)
}

// BulkRemove handles POST /items/bulk/remove.
func (h *ItemHandler) BulkRemove(c *gin.Context) {
	var req dto.BulkStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.bulkStock(c, req, h.svc.BulkRemoveStock)
}

func (h *ItemHandler) bulkStock(
	c *gin.Context,
	req dto.BulkStockRequest,
	op func(ctx context.Context, itemIDs []id.ID, qty types.Quantity, actorID id.ID) []inventory.BulkResult,
) {
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	itemIDs, ok := h.parseIDs(c, req.ItemIDs)
	if !ok {
		return
	}

	results := op(c.Request.Context(), itemIDs, req.Qty, actorID)
	h.OK(c, dto.NewBulkResultResponses(results))
}

// BulkDelete handles POST /items/bulk/delete.
func (h *ItemHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	itemIDs, ok := h.parseIDs(c, req.ItemIDs)
	if !ok {
		return
	}

	results := h.svc.BulkDeleteItems(c.Request.Context(), itemIDs, actorID)
	h.OK(c, dto.NewBulkResultResponses(results))
}

func (h *ItemHandler) parseIDs(c *gin.Context, raw []string) ([]id.ID, bool) {
	itemIDs := make([]id.ID, 0, len(raw))
	for _, s := range raw {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid item id in list").WithDetail("value", s))
			return nil, false
		}
		itemIDs = append(itemIDs, parsed)
	}
	return itemIDs, true
}

// ListTransactions handles GET /items/:id/transactions.
func (h *ItemHandler) ListTransactions(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.svc.ListTransactionsByItem(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}

// ListRecentTransactions handles GET /transactions.
func (h *ItemHandler) ListRecentTransactions(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 100)

	entries, err := h.svc.ListRecentTransactions(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}
