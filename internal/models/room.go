package models

// Building is a property that contains rooms.
type Building struct {
	BuildingID int64  `json:"BuildingID" yaml:"id"`
	Name       string `json:"Name" yaml:"name"`
	Address    string `json:"Address" yaml:"address"`
}

// Room is a rentable room as returned by the catalog endpoints.
// PricePerMonth is the price for one rental period of DaysPerPeriod days.
type Room struct {
	RoomID          int64  `json:"RoomID" yaml:"id"`
	BuildingID      int64  `json:"BuildingID,omitempty" yaml:"building_id"`
	BuildingName    string `json:"BuildingName,omitempty" yaml:"-"`
	BuildingAddress string `json:"BuildingAddress,omitempty" yaml:"-"`
	RoomType        string `json:"RoomType" yaml:"room_type"`
	PricePerMonth   Money  `json:"PricePerMonth" yaml:"price_per_month"`
	MaxOccupancy    int    `json:"MaxOccupancy" yaml:"max_occupancy"`
	Availability    Flag   `json:"Availability" yaml:"availability"`
}

// NewBuildingRequest is the body of POST /room/add-building.
type NewBuildingRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// NewRoomRequest is the body of POST /room/add-room.
type NewRoomRequest struct {
	BuildingID    int64  `json:"buildingId"`
	RoomType      string `json:"roomType"`
	PricePerMonth Money  `json:"pricePerMonth"`
	MaxOccupancy  int    `json:"maxOccupancy"`
	Availability  Flag   `json:"availability"`
}
