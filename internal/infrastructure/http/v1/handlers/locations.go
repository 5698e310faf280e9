package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/domain/location"
	"kota/internal/infrastructure/http/v1/dto"
)

// LocationHandler serves the location hierarchy endpoints.
type LocationHandler struct {
	*BaseHandler
	svc *location.Service
}

// NewLocationHandler creates the location handler.
func NewLocationHandler(svc *location.Service) *LocationHandler {
	return &LocationHandler{BaseHandler: NewBaseHandler(), svc: svc}
}

// CreateSite handles POST /sites.
func (h *LocationHandler) CreateSite(c *gin.Context) {
	var req dto.CreateNodeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	site, err := h.svc.CreateSite(c.Request.Context(), req.Code, req.Name, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, site.ID.String())
}

// ListSites handles GET /sites.
func (h *LocationHandler) ListSites(c *gin.Context) {
	sites, err := h.svc.ListSites(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sites)
}

// DeleteSite handles DELETE /sites/:id.
func (h *LocationHandler) DeleteSite(c *gin.Context) {
	h.deleteNode(c, h.svc.DeleteSite)
}

// CreateBuilding handles POST /sites/:id/buildings.
func (h *LocationHandler) CreateBuilding(c *gin.Context) {
	h.createChild(c, func(parentID id.ID, req dto.CreateNodeRequest, actorID id.ID) (string, error) {
		b, err := h.svc.CreateBuilding(c.Request.Context(), parentID, req.Code, req.Name, actorID)
		if err != nil {
			return "", err
		}
		return b.ID.String(), nil
	})
}

// ListBuildings handles GET /sites/:id/buildings.
func (h *LocationHandler) ListBuildings(c *gin.Context) {
	siteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	buildings, err := h.svc.ListBuildings(c.Request.Context(), siteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, buildings)
}

// DeleteBuilding handles DELETE /buildings/:id.
func (h *LocationHandler) DeleteBuilding(c *gin.Context) {
	h.deleteNode(c, h.svc.DeleteBuilding)
}

// CreateRoom handles POST /buildings/:id/rooms.
func (h *LocationHandler) CreateRoom(c *gin.Context) {
	h.createChild(c, func(parentID id.ID, req dto.CreateNodeRequest, actorID id.ID) (string, error) {
		r, err := h.svc.CreateRoom(c.Request.Context(), parentID, req.Code, req.Name, actorID)
		if err != nil {
			return "", err
		}
		return r.ID.String(), nil
	})
}

// ListRooms handles GET /buildings/:id/rooms.
func (h *LocationHandler) ListRooms(c *gin.Context) {
	buildingID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	rooms, err := h.svc.ListRooms(c.Request.Context(), buildingID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rooms)
}

// DeleteRoom handles DELETE /rooms/:id.
func (h *LocationHandler) DeleteRoom(c *gin.Context) {
	h.deleteNode(c, h.svc.DeleteRoom)
}

// CreateArea handles POST /rooms/:id/areas.
func (h *LocationHandler) CreateArea(c *gin.Context) {
	h.createChild(c, func(parentID id.ID, req dto.CreateNodeRequest, actorID id.ID) (string, error) {
		a, err := h.svc.CreateArea(c.Request.Context(), parentID, req.Code, req.Name, actorID)
		if err != nil {
			return "", err
		}
		return a.ID.String(), nil
	})
}

// ListAreas handles GET /rooms/:id/areas.
func (h *LocationHandler) ListAreas(c *gin.Context) {
	roomID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	areas, err := h.svc.ListAreas(c.Request.Context(), roomID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, areas)
}

// DeleteArea handles DELETE /areas/:id.
func (h *LocationHandler) DeleteArea(c *gin.Context) {
	h.deleteNode(c, h.svc.DeleteArea)
}

// CreateStorageUnit handles POST /storage-units.
func (h *LocationHandler) CreateStorageUnit(c *gin.Context) {
	var req dto.CreateStorageUnitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}
	roomID, err := id.Parse(req.RoomID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid room id").WithDetail("field", "roomId"))
		return
	}
	var areaID *id.ID
	if req.AreaID != nil {
		parsed, err := id.Parse(*req.AreaID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid area id").WithDetail("field", "areaId"))
			return
		}
		areaID = &parsed
	}

	unit := &location.StorageUnit{
		RoomID: roomID,
		AreaID: areaID,
		Code:   req.Code,
		Name:   req.Name,
		Kind:   location.StorageUnitKind(req.Kind),
		Type:   location.StorageUnitType(req.Type),
	}

	created, err := h.svc.CreateStorageUnit(c.Request.Context(), unit, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created.ID.String())
}

// ListStorageUnits handles GET /rooms/:id/storage-units.
// Accepts an optional area query parameter to narrow the scope.
func (h *LocationHandler) ListStorageUnits(c *gin.Context) {
	roomID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var areaID *id.ID
	if raw := c.Query("area"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid area id").WithDetail("param", "area"))
			return
		}
		areaID = &parsed
	}

	units, err := h.svc.ListStorageUnits(c.Request.Context(), roomID, areaID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, units)
}

// DeleteStorageUnit handles DELETE /storage-units/:id.
func (h *LocationHandler) DeleteStorageUnit(c *gin.Context) {
	h.deleteNode(c, h.svc.DeleteStorageUnit)
}

// CreateBin handles POST /storage-units/:id/bins.
func (h *LocationHandler) CreateBin(c *gin.Context) {
	unitID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateBinRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	bin, err := h.svc.CreateBin(c.Request.Context(), unitID, req.Code, req.Name, location.BinKind(req.Kind), actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, bin.ID.String())
}

// ListBins handles GET /storage-units/:id/bins.
func (h *LocationHandler) ListBins(c *gin.Context) {
	unitID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	bins, err := h.svc.ListBins(c.Request.Context(), unitID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, bins)
}

// DeleteBin handles DELETE /bins/:id.
func (h *LocationHandler) DeleteBin(c *gin.Context) {
	h.deleteNode(c, h.svc.DeleteBin)
}

// GetBinPath handles GET /bins/:id/path.
func (h *LocationHandler) GetBinPath(c *gin.Context) {
	binID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	path, err := h.svc.GetFullPath(c.Request.Context(), binID)
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

// createChild parses the parent id and request body, then delegates.
func (h *LocationHandler) createChild(c *gin.Context, create func(parentID id.ID, req dto.CreateNodeRequest, actorID id.ID) (string, error)) {
	parentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateNodeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	createdID, err := create(parentID, req, actorID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, createdID)
}

func (h *LocationHandler) deleteNode(c *gin.Context, del func(ctx context.Context, nodeID id.ID, actorID id.ID) error) {
	nodeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.ActorID(c)
	if !ok {
		return
	}

	if err := del(c.Request.Context(), nodeID, actorID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
