package location

import (
	"context"

	"kota/internal/core/id"
)

// SiteRepository persists root-level sites.
type SiteRepository interface {
	Create(ctx context.Context, site *Site) error
	GetByID(ctx context.Context, siteID id.ID) (*Site, error)
	List(ctx context.Context) ([]*Site, error)
	ExistsCode(ctx context.Context, code string) (bool, error)
	Delete(ctx context.Context, siteID id.ID) error
}

// BuildingRepository persists buildings under a site.
type BuildingRepository interface {
	Create(ctx context.Context, building *Building) error
	GetByID(ctx context.Context, buildingID id.ID) (*Building, error)
	ListBySite(ctx context.Context, siteID id.ID) ([]*Building, error)
	ExistsCode(ctx context.Context, siteID id.ID, code string) (bool, error)
	Delete(ctx context.Context, buildingID id.ID) error
}

// RoomRepository persists rooms under a building.
type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, roomID id.ID) (*Room, error)
	ListByBuilding(ctx context.Context, buildingID id.ID) ([]*Room, error)
	ExistsCode(ctx context.Context, buildingID id.ID, code string) (bool, error)
	Delete(ctx context.Context, roomID id.ID) error
}

// AreaRepository persists optional areas under a room.
type AreaRepository interface {
	Create(ctx context.Context, area *Area) error
	GetByID(ctx context.Context, areaID id.ID) (*Area, error)
	ListByRoom(ctx context.Context, roomID id.ID) ([]*Area, error)
	ExistsCode(ctx context.Context, roomID id.ID, code string) (bool, error)
	Delete(ctx context.Context, areaID id.ID) error
}

// StorageUnitRepository persists storage units. Code uniqueness is
// scoped to the immediate parent: (room, area) when area is set, the
// room alone otherwise.
type StorageUnitRepository interface {
	Create(ctx context.Context, unit *StorageUnit) error
	GetByID(ctx context.Context, unitID id.ID) (*StorageUnit, error)
	ListByRoom(ctx context.Context, roomID id.ID, areaID *id.ID) ([]*StorageUnit, error)
	ExistsCode(ctx context.Context, roomID id.ID, areaID *id.ID, code string) (bool, error)
	Delete(ctx context.Context, unitID id.ID) error
}

// BinRepository persists terminal bins and resolves full paths.
type BinRepository interface {
	Create(ctx context.Context, bin *Bin) error
	GetByID(ctx context.Context, binID id.ID) (*Bin, error)
	ListByStorageUnit(ctx context.Context, unitID id.ID) ([]*Bin, error)
	ExistsCode(ctx context.Context, unitID id.ID, code string) (bool, error)
	Exists(ctx context.Context, binID id.ID) (bool, error)
	// GetPath resolves the Site→Bin name chain with a single joined query.
	GetPath(ctx context.Context, binID id.ID) (*Path, error)
	Delete(ctx context.Context, binID id.ID) error
}
