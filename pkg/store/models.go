package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type HotelModel struct {
	ID        string         `gorm:"primaryKey"`
	Title     string         `gorm:"uniqueIndex;not null"`
	Location  string         `gorm:"not null"`
	Details   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null"`
}

func (HotelModel) TableName() string { return "hotels" }

type RoomModel struct {
	ID          string `gorm:"primaryKey"`
	HotelID     string `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string
	Price       float64   `gorm:"not null"`
	Quantity    int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (RoomModel) TableName() string { return "rooms" }

type FacilityModel struct {
	ID    string `gorm:"primaryKey"`
	Title string `gorm:"uniqueIndex;not null"`
}

func (FacilityModel) TableName() string { return "facilities" }

type RoomFacilityModel struct {
	RoomID     string `gorm:"primaryKey"`
	FacilityID string `gorm:"primaryKey"`
}

func (RoomFacilityModel) TableName() string { return "room_facilities" }

type BookingModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	RoomID    string    `gorm:"not null;index"`
	DateFrom  time.Time `gorm:"type:date;not null"`
	DateTo    time.Time `gorm:"type:date;not null"`
	Price     float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (BookingModel) TableName() string { return "bookings" }
