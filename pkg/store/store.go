package store

import (
	"errors"

	"stayhub/pkg/domain"
)

// Sentinel errors shared by every Store implementation. Constraint
// violations detected by the database are remapped to these same values so
// callers see one consistent semantics regardless of which layer caught the
// problem.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBookingConflict = errors.New("booking dates conflict with an existing booking")
)

// Store defines persistence operations for users, hotels, rooms,
// facilities, and bookings.
type Store interface {
	// users
	CreateUser(domain.User) error
	GetUserByEmail(email string) (domain.User, error)
	GetUserByID(id string) (domain.User, error)
	ListUsers(limit, offset int) ([]domain.User, error)
	UpdateUser(domain.User) error
	DeleteUser(id string) error
	CountUsers() (int, error)

	// hotels
	CreateHotel(domain.Hotel) error
	GetHotel(id string) (domain.Hotel, error)
	ListHotels(limit, offset int) ([]domain.Hotel, error)
	DeleteHotel(id string) error

	// rooms; reads return rooms with facilities already assembled
	CreateRoom(domain.Room) error
	GetRoom(id string) (domain.Room, error)
	ListRooms(limit, offset int) ([]domain.Room, error)
	UpdateRoom(domain.Room) error
	DeleteRoom(id string) error

	// facilities
	CreateFacility(domain.Facility) error
	ListFacilities(limit, offset int) ([]domain.Facility, error)
	// GetFacilitiesByID resolves the given IDs in input order; any unknown
	// ID yields ErrNotFound.
	GetFacilitiesByID(ids []string) ([]domain.Facility, error)

	// bookings
	// CreateBooking admits a reservation as one atomic unit: it verifies
	// the room exists, verifies no committed booking overlaps the half-open
	// range, snapshots the room price, and inserts. It returns
	// ErrNotFound for an unknown room and ErrBookingConflict when the range
	// is taken, whether detected by the in-transaction check or by the
	// database constraint at commit.
	CreateBooking(domain.Booking) (domain.Booking, error)
	ListBookings(limit, offset int) ([]domain.Booking, error)
	ListBookingsByUser(userID string, limit, offset int) ([]domain.Booking, error)
}

// NormalizeLimit clamps list bounds to safe values.
func NormalizeLimit(limit int) int {
	const defaultLimit, maxLimit = 100, 1000
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// NormalizeOffset clamps a list offset to a non-negative value.
func NormalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
