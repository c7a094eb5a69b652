package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Hotel struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Location  string            `json:"location"`
	Details   map[string]string `json:"details,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Room carries its facilities assembled by the store; handlers never
// trigger follow-up fetches while serializing.
type Room struct {
	ID          string     `json:"id"`
	HotelID     string     `json:"hotelId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Price       float64    `json:"price"`
	Quantity    int        `json:"quantity"`
	Facilities  []Facility `json:"facilities"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Facility struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Booking date ranges are half-open: [DateFrom, DateTo). Price is the room
// price captured at admission time and never re-read from the room.
type Booking struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	RoomID    string    `json:"roomId"`
	DateFrom  time.Time `json:"dateFrom"`
	DateTo    time.Time `json:"dateTo"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// Overlaps reports whether [b.DateFrom, b.DateTo) intersects [from, to).
// Ranges touching at a boundary do not overlap.
func (b Booking) Overlaps(from, to time.Time) bool {
	return b.DateFrom.Before(to) && from.Before(b.DateTo)
}
