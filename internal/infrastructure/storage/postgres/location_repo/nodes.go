package location_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/domain/location"
	"kota/internal/infrastructure/storage/postgres"
)

// Compile-time checks.
var (
	_ location.SiteRepository        = (*SiteRepo)(nil)
	_ location.BuildingRepository    = (*BuildingRepo)(nil)
	_ location.RoomRepository        = (*RoomRepo)(nil)
	_ location.AreaRepository        = (*AreaRepo)(nil)
	_ location.StorageUnitRepository = (*StorageUnitRepo)(nil)
	_ location.BinRepository         = (*BinRepo)(nil)
)

// SiteRepo persists root-level sites.
type SiteRepo struct {
	baseNodeRepo[location.Site]
}

// NewSiteRepo creates the site repository.
func NewSiteRepo(txm *postgres.TxManager) *SiteRepo {
	return &SiteRepo{newBaseNodeRepo[location.Site](txm, "sites")}
}

func (r *SiteRepo) Create(ctx context.Context, site *location.Site) error {
	return r.create(ctx, site)
}

func (r *SiteRepo) GetByID(ctx context.Context, siteID id.ID) (*location.Site, error) {
	return r.getByID(ctx, siteID)
}

func (r *SiteRepo) List(ctx context.Context) ([]*location.Site, error) {
	return r.list(ctx, nil)
}

func (r *SiteRepo) ExistsCode(ctx context.Context, code string) (bool, error) {
	return r.existsWhere(ctx, squirrel.Eq{"code": code})
}

func (r *SiteRepo) Delete(ctx context.Context, siteID id.ID) error {
	return r.delete(ctx, siteID)
}

// BuildingRepo persists buildings under a site.
type BuildingRepo struct {
	baseNodeRepo[location.Building]
}

// NewBuildingRepo creates the building repository.
func NewBuildingRepo(txm *postgres.TxManager) *BuildingRepo {
	return &BuildingRepo{newBaseNodeRepo[location.Building](txm, "buildings")}
}

func (r *BuildingRepo) Create(ctx context.Context, building *location.Building) error {
	return r.create(ctx, building)
}

func (r *BuildingRepo) GetByID(ctx context.Context, buildingID id.ID) (*location.Building, error) {
	return r.getByID(ctx, buildingID)
}

func (r *BuildingRepo) ListBySite(ctx context.Context, siteID id.ID) ([]*location.Building, error) {
	return r.list(ctx, squirrel.Eq{"site_id": siteID})
}

func (r *BuildingRepo) ExistsCode(ctx context.Context, siteID id.ID, code string) (bool, error) {
	return r.existsWhere(ctx, squirrel.Eq{"site_id": siteID, "code": code})
}

func (r *BuildingRepo) Delete(ctx context.Context, buildingID id.ID) error {
	return r.delete(ctx, buildingID)
}

// RoomRepo persists rooms under a building.
type RoomRepo struct {
	baseNodeRepo[location.Room]
}

// NewRoomRepo creates the room repository.
func NewRoomRepo(txm *postgres.TxManager) *RoomRepo {
	return &RoomRepo{newBaseNodeRepo[location.Room](txm, "rooms")}
}

func (r *RoomRepo) Create(ctx context.Context, room *location.Room) error {
	return r.create(ctx, room)
}

func (r *RoomRepo) GetByID(ctx context.Context, roomID id.ID) (*location.Room, error) {
	return r.getByID(ctx, roomID)
}

func (r *RoomRepo) ListByBuilding(ctx context.Context, buildingID id.ID) ([]*location.Room, error) {
	return r.list(ctx, squirrel.Eq{"building_id": buildingID})
}

func (r *RoomRepo) ExistsCode(ctx context.Context, buildingID id.ID, code string) (bool, error) {
	return r.existsWhere(ctx, squirrel.Eq{"building_id": buildingID, "code": code})
}

func (r *RoomRepo) Delete(ctx context.Context, roomID id.ID) error {
	return r.delete(ctx, roomID)
}

// AreaRepo persists optional areas under a room.
type AreaRepo struct {
	baseNodeRepo[location.Area]
}

// NewAreaRepo creates the area repository.
func NewAreaRepo(txm *postgres.TxManager) *AreaRepo {
	return &AreaRepo{newBaseNodeRepo[location.Area](txm, "areas")}
}

func (r *AreaRepo) Create(ctx context.Context, area *location.Area) error {
	return r.create(ctx, area)
}

func (r *AreaRepo) GetByID(ctx context.Context, areaID id.ID) (*location.Area, error) {
	return r.getByID(ctx, areaID)
}

func (r *AreaRepo) ListByRoom(ctx context.Context, roomID id.ID) ([]*location.Area, error) {
	return r.list(ctx, squirrel.Eq{"room_id": roomID})
}

func (r *AreaRepo) ExistsCode(ctx context.Context, roomID id.ID, code string) (bool, error) {
	return r.existsWhere(ctx, squirrel.Eq{"room_id": roomID, "code": code})
}

func (r *AreaRepo) Delete(ctx context.Context, areaID id.ID) error {
	return r.delete(ctx, areaID)
}

// StorageUnitRepo persists storage units. The sibling scope for code
// checks is (room, area): a NULL area and a set area are different
// scopes.
type StorageUnitRepo struct {
	baseNodeRepo[location.StorageUnit]
}

// NewStorageUnitRepo creates the storage unit repository.
func NewStorageUnitRepo(txm *postgres.TxManager) *StorageUnitRepo {
	return &StorageUnitRepo{newBaseNodeRepo[location.StorageUnit](txm, "storage_units")}
}

func (r *StorageUnitRepo) Create(ctx context.Context, unit *location.StorageUnit) error {
	return r.create(ctx, unit)
}

func (r *StorageUnitRepo) GetByID(ctx context.Context, unitID id.ID) (*location.StorageUnit, error) {
	return r.getByID(ctx, unitID)
}

func (r *StorageUnitRepo) ListByRoom(ctx context.Context, roomID id.ID, areaID *id.ID) ([]*location.StorageUnit, error) {
	cond := squirrel.Eq{"room_id": roomID}
	if areaID != nil {
		cond["area_id"] = *areaID
	}
	return r.list(ctx, cond)
}

func (r *StorageUnitRepo) ExistsCode(ctx context.Context, roomID id.ID, areaID *id.ID, code string) (bool, error) {
	cond := squirrel.Eq{"room_id": roomID, "code": code}
	if areaID != nil {
		cond["area_id"] = *areaID
	} else {
		cond["area_id"] = nil
	}
	return r.existsWhere(ctx, cond)
}

func (r *StorageUnitRepo) Delete(ctx context.Context, unitID id.ID) error {
	return r.delete(ctx, unitID)
}

// BinRepo persists terminal bins and resolves full paths.
type BinRepo struct {
	baseNodeRepo[location.Bin]
}

// NewBinRepo creates the bin repository.
func NewBinRepo(txm *postgres.TxManager) *BinRepo {
	return &BinRepo{newBaseNodeRepo[location.Bin](txm, "bins")}
}

func (r *BinRepo) Create(ctx context.Context, bin *location.Bin) error {
	return r.create(ctx, bin)
}

func (r *BinRepo) GetByID(ctx context.Context, binID id.ID) (*location.Bin, error) {
	return r.getByID(ctx, binID)
}

func (r *BinRepo) ListByStorageUnit(ctx context.Context, unitID id.ID) ([]*location.Bin, error) {
	return r.list(ctx, squirrel.Eq{"storage_unit_id": unitID})
}

func (r *BinRepo) ExistsCode(ctx context.Context, unitID id.ID, code string) (bool, error) {
	return r.existsWhere(ctx, squirrel.Eq{"storage_unit_id": unitID, "code": code})
}

func (r *BinRepo) Exists(ctx context.Context, binID id.ID) (bool, error) {
	return r.existsWhere(ctx, squirrel.Eq{"id": binID})
}

// GetPath resolves the Site→Bin name chain with a single joined query.
func (r *BinRepo) GetPath(ctx context.Context, binID id.ID) (*location.Path, error) {
	q := r.builder().
		Select(
			"s.name AS site_name",
			"bd.name AS building_name",
			"rm.name AS room_name",
			"a.name AS area_name",
			"su.name AS storage_unit_name",
			"b.name AS bin_name",
		).
		From("bins b").
		Join("storage_units su ON su.id = b.storage_unit_id").
		Join("rooms rm ON rm.id = su.room_id").
		LeftJoin("areas a ON a.id = su.area_id").
		Join("buildings bd ON bd.id = rm.building_id").
		Join("sites s ON s.id = bd.site_id").
		Where(squirrel.Eq{"b.id": binID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	path := &location.Path{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), path, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("bins", binID.String())
		}
		return nil, fmt.Errorf("get path: %w", err)
	}
	return path, nil
}

func (r *BinRepo) Delete(ctx context.Context, binID id.ID) error {
	return r.delete(ctx, binID)
}
