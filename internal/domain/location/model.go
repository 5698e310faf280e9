// Package location provides the six-level storage hierarchy:
// Site → Building → Room → Area? → StorageUnit → Bin.
// Area is optional between Room and StorageUnit; Bin is the terminal
// node that items are placed in. A node's code is unique among siblings
// under the same parent.
package location

import (
	"context"

	"kota/internal/core/apperror"
	"kota/internal/core/entity"
	"kota/internal/core/id"
)

const (
	maxCodeLen    = 32
	maxBinCodeLen = 64
	maxNameLen    = 255
)

// StorageUnitKind classifies a storage unit.
type StorageUnitKind string

const (
	KindContainer   StorageUnitKind = "container"
	KindCompartment StorageUnitKind = "compartment"
)

// StorageUnitType is the physical form of a storage unit.
type StorageUnitType string

const (
	TypeCabinet    StorageUnitType = "cabinet"
	TypeShelf      StorageUnitType = "shelf"
	TypeRack       StorageUnitType = "rack"
	TypeDrawerUnit StorageUnitType = "drawer_unit"
	TypePegboard   StorageUnitType = "pegboard"
	TypeOther      StorageUnitType = "other"
)

// BinKind classifies a bin.
type BinKind string

const (
	KindBin  BinKind = "bin"
	KindSlot BinKind = "slot"
)

// Site is the root of the hierarchy.
type Site struct {
	entity.Base

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// NewSite creates a Site with a generated ID.
func NewSite(code, name string) *Site {
	return &Site{Base: entity.NewBase(), Code: code, Name: name}
}

// Validate implements entity.Validatable.
func (s *Site) Validate(ctx context.Context) error {
	return validateCodeName(s.Code, s.Name, maxCodeLen)
}

// Building belongs to a Site.
type Building struct {
	entity.Base

	SiteID id.ID  `db:"site_id" json:"siteId"`
	Code   string `db:"code" json:"code"`
	Name   string `db:"name" json:"name"`
}

// NewBuilding creates a Building with a generated ID.
func NewBuilding(siteID id.ID, code, name string) *Building {
	return &Building{Base: entity.NewBase(), SiteID: siteID, Code: code, Name: name}
}

// Validate implements entity.Validatable.
func (b *Building) Validate(ctx context.Context) error {
	if err := validateCodeName(b.Code, b.Name, maxCodeLen); err != nil {
		return err
	}
	return requireParent("siteId", b.SiteID)
}

// Room belongs to a Building.
type Room struct {
	entity.Base

	BuildingID id.ID  `db:"building_id" json:"buildingId"`
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
}

// NewRoom creates a Room with a generated ID.
func NewRoom(buildingID id.ID, code, name string) *Room {
	return &Room{Base: entity.NewBase(), BuildingID: buildingID, Code: code, Name: name}
}

// Validate implements entity.Validatable.
func (r *Room) Validate(ctx context.Context) error {
	if err := validateCodeName(r.Code, r.Name, maxCodeLen); err != nil {
		return err
	}
	return requireParent("buildingId", r.BuildingID)
}

// Area is an optional subdivision of a Room.
type Area struct {
	entity.Base

	RoomID id.ID  `db:"room_id" json:"roomId"`
	Code   string `db:"code" json:"code"`
	Name   string `db:"name" json:"name"`
}

// NewArea creates an Area with a generated ID.
func NewArea(roomID id.ID, code, name string) *Area {
	return &Area{Base: entity.NewBase(), RoomID: roomID, Code: code, Name: name}
}

// Validate implements entity.Validatable.
func (a *Area) Validate(ctx context.Context) error {
	if err := validateCodeName(a.Code, a.Name, maxCodeLen); err != nil {
		return err
	}
	return requireParent("roomId", a.RoomID)
}

// StorageUnit lives in a Room, optionally inside an Area.
// Its immediate parent for code-uniqueness purposes is the Area when
// set, otherwise the Room.
type StorageUnit struct {
	entity.Base

	RoomID id.ID           `db:"room_id" json:"roomId"`
	AreaID *id.ID          `db:"area_id" json:"areaId,omitempty"`
	Code   string          `db:"code" json:"code"`
	Name   string          `db:"name" json:"name"`
	Kind   StorageUnitKind `db:"kind" json:"kind"`
	Type   StorageUnitType `db:"type" json:"type"`
}

// NewStorageUnit creates a StorageUnit with a generated ID.
func NewStorageUnit(roomID id.ID, code, name string, kind StorageUnitKind, suType StorageUnitType) *StorageUnit {
	return &StorageUnit{
		Base:   entity.NewBase(),
		RoomID: roomID,
		Code:   code,
		Name:   name,
		Kind:   kind,
		Type:   suType,
	}
}

// Validate implements entity.Validatable.
func (u *StorageUnit) Validate(ctx context.Context) error {
	if err := validateCodeName(u.Code, u.Name, maxCodeLen); err != nil {
		return err
	}
	if err := requireParent("roomId", u.RoomID); err != nil {
		return err
	}
	switch u.Kind {
	case KindContainer, KindCompartment:
	default:
		return apperror.NewValidation("invalid storage unit kind").
			WithDetail("field", "kind").
			WithDetail("value", string(u.Kind))
	}
	switch u.Type {
	case TypeCabinet, TypeShelf, TypeRack, TypeDrawerUnit, TypePegboard, TypeOther:
	default:
		return apperror.NewValidation("invalid storage unit type").
			WithDetail("field", "type").
			WithDetail("value", string(u.Type))
	}
	return nil
}

// Bin is the terminal node; items reference bins.
type Bin struct {
	entity.Base

	StorageUnitID id.ID   `db:"storage_unit_id" json:"storageUnitId"`
	Code          string  `db:"code" json:"code"`
	Name          string  `db:"name" json:"name"`
	Kind          BinKind `db:"kind" json:"kind"`
}

// NewBin creates a Bin with a generated ID.
func NewBin(storageUnitID id.ID, code, name string, kind BinKind) *Bin {
	return &Bin{Base: entity.NewBase(), StorageUnitID: storageUnitID, Code: code, Name: name, Kind: kind}
}

// Validate implements entity.Validatable.
func (b *Bin) Validate(ctx context.Context) error {
	if err := validateCodeName(b.Code, b.Name, maxBinCodeLen); err != nil {
		return err
	}
	if err := requireParent("storageUnitId", b.StorageUnitID); err != nil {
		return err
	}
	switch b.Kind {
	case KindBin, KindSlot:
	default:
		return apperror.NewValidation("invalid bin kind").
			WithDetail("field", "kind").
			WithDetail("value", string(b.Kind))
	}
	return nil
}

// Path is the resolved chain of node names from Site down to Bin.
// AreaName is nil when the storage unit sits directly in the room.
type Path struct {
	SiteName        string  `db:"site_name" json:"siteName"`
	BuildingName    string  `db:"building_name" json:"buildingName"`
	RoomName        string  `db:"room_name" json:"roomName"`
	AreaName        *string `db:"area_name" json:"areaName,omitempty"`
	StorageUnitName string  `db:"storage_unit_name" json:"storageUnitName"`
	BinName         string  `db:"bin_name" json:"binName"`
}

// Names returns the path as an ordered list from Site to Bin,
// skipping the Area level when absent.
func (p Path) Names() []string {
	names := []string{p.SiteName, p.BuildingName, p.RoomName}
	if p.AreaName != nil && *p.AreaName != "" {
		names = append(names, *p.AreaName)
	}
	return append(names, p.StorageUnitName, p.BinName)
}

// --- Validation helpers ---

func validateCodeName(code, name string, codeLimit int) error {
	if code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if len(code) > codeLimit {
		return apperror.NewValidation("code is too long").
			WithDetail("field", "code").
			WithDetail("max_length", codeLimit)
	}
	if name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if len(name) > maxNameLen {
		return apperror.NewValidation("name is too long").
			WithDetail("field", "name").
			WithDetail("max_length", maxNameLen)
	}
	return nil
}

func requireParent(field string, parentID id.ID) error {
	if id.IsNil(parentID) {
		return apperror.NewValidation("parent reference is required").WithDetail("field", field)
	}
	return nil
}
