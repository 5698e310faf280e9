package location

import (
	"context"
	"encoding/json"
	"fmt"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/core/tx"
	"kota/internal/domain/audit"
	"kota/pkg/logger"
)

// Service manages the location hierarchy. Creation checks the parent
// exists and that the code is free among siblings; deletion is rejected
// while dependents remain (the foreign keys enforce it, the repo maps
// the violation to a conflict error).
type Service struct {
	sites     SiteRepository
	buildings BuildingRepository
	rooms     RoomRepository
	areas     AreaRepository
	units     StorageUnitRepository
	bins      BinRepository
	audits    audit.Repository
	txm       tx.Manager
}

// NewService creates the location service.
func NewService(
	sites SiteRepository,
	buildings BuildingRepository,
	rooms RoomRepository,
	areas AreaRepository,
	units StorageUnitRepository,
	bins BinRepository,
	audits audit.Repository,
	txm tx.Manager,
) *Service {
	return &Service{
		sites:     sites,
		buildings: buildings,
		rooms:     rooms,
		areas:     areas,
		units:     units,
		bins:      bins,
		audits:    audits,
		txm:       txm,
	}
}

type nodeSnapshot struct {
	SchemaVersion int    `json:"schemaVersion"`
	ID            id.ID  `json:"id"`
	ParentID      *id.ID `json:"parentId,omitempty"`
	Code          string `json:"code"`
	Name          string `json:"name"`
}

func snapshotNode(nodeID id.ID, parentID *id.ID, code, name string) json.RawMessage {
	b, _ := json.Marshal(nodeSnapshot{
		SchemaVersion: 1,
		ID:            nodeID,
		ParentID:      parentID,
		Code:          code,
		Name:          name,
	})
	return b
}

// createNode wraps the create and its audit entry in one transaction.
func (s *Service) createNode(
	ctx context.Context,
	entityType string,
	actorID id.ID,
	snapshot json.RawMessage,
	nodeID id.ID,
	create func(ctx context.Context) error,
) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := create(ctx); err != nil {
			return err
		}
		return s.audits.Append(ctx, &audit.Entry{
			UserID:     actorID,
			EntityType: entityType,
			EntityID:   nodeID,
			Action:     audit.ActionCreate,
			AfterJSON:  snapshot,
		})
	})
}

func (s *Service) deleteNode(
	ctx context.Context,
	entityType string,
	actorID id.ID,
	snapshot json.RawMessage,
	nodeID id.ID,
	del func(ctx context.Context) error,
) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := del(ctx); err != nil {
			return err
		}
		return s.audits.Append(ctx, &audit.Entry{
			UserID:     actorID,
			EntityType: entityType,
			EntityID:   nodeID,
			Action:     audit.ActionDelete,
			BeforeJSON: snapshot,
		})
	})
}

// CreateSite creates a top-level site. Codes are unique across sites.
func (s *Service) CreateSite(ctx context.Context, code, name string, actorID id.ID) (*Site, error) {
	site := NewSite(code, name)
	if err := site.Validate(ctx); err != nil {
		return nil, err
	}
	exists, err := s.sites.ExistsCode(ctx, site.Code)
	if err != nil {
		return nil, fmt.Errorf("check site code: %w", err)
	}
	if exists {
		return nil, apperror.NewDuplicate("site", "code", site.Code)
	}
	err = s.createNode(ctx, "site", actorID, snapshotNode(site.ID, nil, site.Code, site.Name), site.ID,
		func(ctx context.Context) error { return s.sites.Create(ctx, site) })
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "site created", "site_id", site.ID, "code", site.Code)
	return site, nil
}

// CreateBuilding creates a building under a site. Codes are unique
// among the site's buildings.
func (s *Service) CreateBuilding(ctx context.Context, siteID id.ID, code, name string, actorID id.ID) (*Building, error) {
	b := NewBuilding(siteID, code, name)
	if err := b.Validate(ctx); err != nil {
		return nil, err
	}
	if _, err := s.sites.GetByID(ctx, siteID); err != nil {
		return nil, err
	}
	exists, err := s.buildings.ExistsCode(ctx, siteID, b.Code)
	if err != nil {
		return nil, fmt.Errorf("check building code: %w", err)
	}
	if exists {
		return nil, apperror.NewDuplicate("building", "code", b.Code)
	}
	err = s.createNode(ctx, "building", actorID, snapshotNode(b.ID, &siteID, b.Code, b.Name), b.ID,
		func(ctx context.Context) error { return s.buildings.Create(ctx, b) })
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateRoom creates a room under a building.
func (s *Service) CreateRoom(ctx context.Context, buildingID id.ID, code, name string, actorID id.ID) (*Room, error) {
	r := NewRoom(buildingID, code, name)
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}
	if _, err := s.buildings.GetByID(ctx, buildingID); err != nil {
		return nil, err
	}
	exists, err := s.rooms.ExistsCode(ctx, buildingID, r.Code)
	if err != nil {
		return nil, fmt.Errorf("check room code: %w", err)
	}
	if exists {
		return nil, apperror.NewDuplicate("room", "code", r.Code)
	}
	err = s.createNode(ctx, "room", actorID, snapshotNode(r.ID, &buildingID, r.Code, r.Name), r.ID,
		func(ctx context.Context) error { return s.rooms.Create(ctx, r) })
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateArea creates an optional area under a room.
func (s *Service) CreateArea(ctx context.Context, roomID id.ID, code, name string, actorID id.ID) (*Area, error) {
	a := NewArea(roomID, code, name)
	if err := a.Validate(ctx); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	exists, err := s.areas.ExistsCode(ctx, roomID, a.Code)
	if err != nil {
		return nil, fmt.Errorf("check area code: %w", err)
	}
	if exists {
		return nil, apperror.NewDuplicate("area", "code", a.Code)
	}
	err = s.createNode(ctx, "area", actorID, snapshotNode(a.ID, &roomID, a.Code, a.Name), a.ID,
		func(ctx context.Context) error { return s.areas.Create(ctx, a) })
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateStorageUnit creates a storage unit under a room, optionally
// scoped to an area within it. Code uniqueness is checked among units
// sharing the same room and area scope.
func (s *Service) CreateStorageUnit(ctx context.Context, unit *StorageUnit, actorID id.ID) (*StorageUnit, error) {
	u := NewStorageUnit(unit.RoomID, unit.Code, unit.Name, unit.Kind, unit.Type)
	u.AreaID = unit.AreaID
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetByID(ctx, u.RoomID); err != nil {
		return nil, err
	}
	if u.AreaID != nil {
		area, err := s.areas.GetByID(ctx, *u.AreaID)
		if err != nil {
			return nil, err
		}
		if area.RoomID != u.RoomID {
			return nil, apperror.NewValidation("area does not belong to the given room").
				WithDetail("areaId", u.AreaID.String())
		}
	}
	exists, err := s.units.ExistsCode(ctx, u.RoomID, u.AreaID, u.Code)
	if err != nil {
		return nil, fmt.Errorf("check storage unit code: %w", err)
	}
	if exists {
		return nil, apperror.NewDuplicate("storage_unit", "code", u.Code)
	}
	err = s.createNode(ctx, "storage_unit", actorID, snapshotNode(u.ID, &u.RoomID, u.Code, u.Name), u.ID,
		func(ctx context.Context) error { return s.units.Create(ctx, u) })
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateBin creates a bin under a storage unit.
func (s *Service) CreateBin(ctx context.Context, unitID id.ID, code, name string, kind BinKind, actorID id.ID) (*Bin, error) {
	b := NewBin(unitID, code, name, kind)
	if err := b.Validate(ctx); err != nil {
		return nil, err
	}
	if _, err := s.units.GetByID(ctx, unitID); err != nil {
		return nil, err
	}
	exists, err := s.bins.ExistsCode(ctx, unitID, b.Code)
	if err != nil {
		return nil, fmt.Errorf("check bin code: %w", err)
	}
	if exists {
		return nil, apperror.NewDuplicate("bin", "code", b.Code)
	}
	err = s.createNode(ctx, "bin", actorID, snapshotNode(b.ID, &unitID, b.Code, b.Name), b.ID,
		func(ctx context.Context) error { return s.bins.Create(ctx, b) })
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListSites returns all sites ordered by code.
func (s *Service) ListSites(ctx context.Context) ([]*Site, error) {
	return s.sites.List(ctx)
}

// ListBuildings returns a site's buildings ordered by code.
func (s *Service) ListBuildings(ctx context.Context, siteID id.ID) ([]*Building, error) {
	return s.buildings.ListBySite(ctx, siteID)
}

// ListRooms returns a building's rooms ordered by code.
func (s *Service) ListRooms(ctx context.Context, buildingID id.ID) ([]*Room, error) {
	return s.rooms.ListByBuilding(ctx, buildingID)
}

// ListAreas returns a room's areas ordered by code.
func (s *Service) ListAreas(ctx context.Context, roomID id.ID) ([]*Area, error) {
	return s.areas.ListByRoom(ctx, roomID)
}

// ListStorageUnits returns a room's storage units, optionally filtered
// to one area scope.
func (s *Service) ListStorageUnits(ctx context.Context, roomID id.ID, areaID *id.ID) ([]*StorageUnit, error) {
	return s.units.ListByRoom(ctx, roomID, areaID)
}

// ListBins returns a storage unit's bins ordered by code.
func (s *Service) ListBins(ctx context.Context, unitID id.ID) ([]*Bin, error) {
	return s.bins.ListByStorageUnit(ctx, unitID)
}

// GetFullPath resolves the Site→...→Bin name chain for a bin.
func (s *Service) GetFullPath(ctx context.Context, binID id.ID) (*Path, error) {
	return s.bins.GetPath(ctx, binID)
}

// DeleteSite deletes an empty site. Remaining buildings make the
// delete fail with a conflict.
func (s *Service) DeleteSite(ctx context.Context, siteID id.ID, actorID id.ID) error {
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return err
	}
	return s.deleteNode(ctx, "site", actorID, snapshotNode(site.ID, nil, site.Code, site.Name), siteID,
		func(ctx context.Context) error { return s.sites.Delete(ctx, siteID) })
}

// DeleteBuilding deletes an empty building.
func (s *Service) DeleteBuilding(ctx context.Context, buildingID id.ID, actorID id.ID) error {
	b, err := s.buildings.GetByID(ctx, buildingID)
	if err != nil {
		return err
	}
	return s.deleteNode(ctx, "building", actorID, snapshotNode(b.ID, &b.SiteID, b.Code, b.Name), buildingID,
		func(ctx context.Context) error { return s.buildings.Delete(ctx, buildingID) })
}

// DeleteRoom deletes an empty room.
func (s *Service) DeleteRoom(ctx context.Context, roomID id.ID, actorID id.ID) error {
	r, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	return s.deleteNode(ctx, "room", actorID, snapshotNode(r.ID, &r.BuildingID, r.Code, r.Name), roomID,
		func(ctx context.Context) error { return s.rooms.Delete(ctx, roomID) })
}

// DeleteArea deletes an empty area.
func (s *Service) DeleteArea(ctx context.Context, areaID id.ID, actorID id.ID) error {
	a, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		return err
	}
	return s.deleteNode(ctx, "area", actorID, snapshotNode(a.ID, &a.RoomID, a.Code, a.Name), areaID,
		func(ctx context.Context) error { return s.areas.Delete(ctx, areaID) })
}

// DeleteStorageUnit deletes an empty storage unit.
func (s *Service) DeleteStorageUnit(ctx context.Context, unitID id.ID, actorID id.ID) error {
	u, err := s.units.GetByID(ctx, unitID)
	if err != nil {
		return err
	}
	return s.deleteNode(ctx, "storage_unit", actorID, snapshotNode(u.ID, &u.RoomID, u.Code, u.Name), unitID,
		func(ctx context.Context) error { return s.units.Delete(ctx, unitID) })
}

// DeleteBin deletes a bin that holds no items.
func (s *Service) DeleteBin(ctx context.Context, binID id.ID, actorID id.ID) error {
	b, err := s.bins.GetByID(ctx, binID)
	if err != nil {
		return err
	}
	return s.deleteNode(ctx, "bin", actorID, snapshotNode(b.ID, &b.StorageUnitID, b.Code, b.Name), binID,
		func(ctx context.Context) error { return s.bins.Delete(ctx, binID) })
}
