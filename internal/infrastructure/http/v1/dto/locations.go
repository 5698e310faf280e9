package dto

// CreateNodeRequest creates a location node under its parent. ParentID
// is taken from the URL, not the body.
type CreateNodeRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// CreateStorageUnitRequest creates a storage unit inside a room,
// optionally scoped to an area.
type CreateStorageUnitRequest struct {
	RoomID string  `json:"roomId" binding:"required"`
	AreaID *string `json:"areaId"`
	Code   string  `json:"code" binding:"required"`
	Name   string  `json:"name" binding:"required"`
	Kind   string  `json:"kind" binding:"required"`
	Type   string  `json:"type" binding:"required"`
}

// CreateBinRequest creates a bin inside a storage unit.
type CreateBinRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
	Kind string `json:"kind" binding:"required"`
}

// PathResponse is the resolved Site→Bin name chain.
type PathResponse struct {
	SiteName        string   `json:"siteName"`
	BuildingName    string   `json:"buildingName"`
	RoomName        string   `json:"roomName"`
	AreaName        *string  `json:"areaName,omitempty"`
	StorageUnitName string   `json:"storageUnitName"`
	BinName         string   `json:"binName"`
	Names           []string `json:"names"`
}
