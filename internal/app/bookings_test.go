package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"stayhub/pkg/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedHotelAndRoom(t *testing.T, a *App) domain.Room {
	t.Helper()
	hotel, err := a.CreateHotel("Seaside", "Varna", map[string]string{"stars": "4"})
	if err != nil {
		t.Fatalf("create hotel: %v", err)
	}
	room, err := a.CreateRoom(hotel.ID, "Deluxe", "Sea view", 150, 1, nil)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func TestReserveAdmitsAndSnapshotsPrice(t *testing.T) {
	a, _ := newTestApp(t)
	room := seedHotelAndRoom(t, a)
	user := domain.User{ID: "u1", Role: domain.RoleUser}

	booking, err := a.Reserve(user, room.ID, day("2026-06-01"), day("2026-06-05"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if booking.Price != 150 {
		t.Fatalf("price snapshot = %v, want 150", booking.Price)
	}
	if !booking.DateFrom.Equal(day("2026-06-01")) || !booking.DateTo.Equal(day("2026-06-05")) {
		t.Fatalf("dates = %v..%v", booking.DateFrom, booking.DateTo)
	}

	// a later price change does not touch the admitted booking
	newPrice := 300.0
	if _, err := a.UpdateRoom(room.ID, nil, nil, &newPrice, nil, nil); err != nil {
		t.Fatalf("update room: %v", err)
	}
	bookings, err := a.ListBookings(domain.User{ID: "admin", Role: domain.RoleAdmin}, 0, 0)
	if err != nil || len(bookings) != 1 {
		t.Fatalf("list: %v %+v", err, bookings)
	}
	if bookings[0].Price != 150 {
		t.Fatalf("stored price = %v, want 150", bookings[0].Price)
	}
}

func TestReserveRejectsInvalidRanges(t *testing.T) {
	a, _ := newTestApp(t)
	room := seedHotelAndRoom(t, a)
	user := domain.User{ID: "u1"}

	if _, err := a.Reserve(user, room.ID, day("2026-06-05"), day("2026-06-01")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("reversed range: got %v", err)
	}
	// zero-length stay is invalid too
	if _, err := a.Reserve(user, room.ID, day("2026-06-01"), day("2026-06-01")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("empty range: got %v", err)
	}
	// the range check runs before the room lookup
	if _, err := a.Reserve(user, "missing", day("2026-06-05"), day("2026-06-01")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("range check should win: got %v", err)
	}
	if _, err := a.Reserve(user, "missing", day("2026-06-01"), day("2026-06-05")); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("unknown room: got %v", err)
	}
}

func TestReserveConflicts(t *testing.T) {
	a, _ := newTestApp(t)
	room := seedHotelAndRoom(t, a)
	user := domain.User{ID: "u1"}

	if _, err := a.Reserve(user, room.ID, day("2026-06-01"), day("2026-06-05")); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := a.Reserve(user, room.ID, day("2026-06-04"), day("2026-06-08")); !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("overlap: got %v", err)
	}
	// resubmitting the same dates is a conflict, not an idempotent success
	if _, err := a.Reserve(user, room.ID, day("2026-06-01"), day("2026-06-05")); !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("resubmission: got %v", err)
	}
	// checkout day equals next check-in day: no overlap
	if _, err := a.Reserve(user, room.ID, day("2026-06-05"), day("2026-06-08")); err != nil {
		t.Fatalf("adjacent: %v", err)
	}
}

func TestListBookingsScopedByRole(t *testing.T) {
	a, _ := newTestApp(t)
	room := seedHotelAndRoom(t, a)
	alice := domain.User{ID: "alice", Role: domain.RoleUser}
	bob := domain.User{ID: "bob", Role: domain.RoleUser}

	if _, err := a.Reserve(alice, room.ID, day("2026-06-01"), day("2026-06-03")); err != nil {
		t.Fatalf("alice reserve: %v", err)
	}
	if _, err := a.Reserve(bob, room.ID, day("2026-06-03"), day("2026-06-05")); err != nil {
		t.Fatalf("bob reserve: %v", err)
	}

	mine, err := a.ListBookings(alice, 0, 0)
	if err != nil || len(mine) != 1 || mine[0].UserID != "alice" {
		t.Fatalf("alice sees: %v %+v", err, mine)
	}
	all, err := a.ListBookings(domain.User{ID: "root", Role: domain.RoleAdmin}, 0, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("admin sees: %v %+v", err, all)
	}
}

func TestRoomFacilities(t *testing.T) {
	a, _ := newTestApp(t)
	hotel, err := a.CreateHotel("Alpine", "Bansko", nil)
	if err != nil {
		t.Fatalf("create hotel: %v", err)
	}
	wifi, err := a.CreateFacility("WiFi")
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}
	if _, err := a.CreateFacility("WiFi"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate facility: got %v", err)
	}

	room, err := a.CreateRoom(hotel.ID, "Standard", "", 80, 2, []string{wifi.ID})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if len(room.Facilities) != 1 || room.Facilities[0].Title != "WiFi" {
		t.Fatalf("facilities = %+v", room.Facilities)
	}

	if _, err := a.CreateRoom(hotel.ID, "Broken", "", 80, 1, []string{"missing"}); !errors.Is(err, ErrFacilityNotFound) {
		t.Fatalf("unknown facility: got %v", err)
	}
}

func TestRoomFacilitiesResolveBeyondDefaultPage(t *testing.T) {
	a, _ := newTestApp(t)
	hotel, err := a.CreateHotel("Grand", "Sofia", nil)
	if err != nil {
		t.Fatalf("create hotel: %v", err)
	}

	var last domain.Facility
	for i := 0; i < 120; i++ {
		last, err = a.CreateFacility(fmt.Sprintf("facility-%03d", i))
		if err != nil {
			t.Fatalf("create facility %d: %v", i, err)
		}
	}

	room, err := a.CreateRoom(hotel.ID, "Suite", "", 200, 1, []string{last.ID})
	if err != nil {
		t.Fatalf("create room with late facility: %v", err)
	}
	if len(room.Facilities) != 1 || room.Facilities[0].ID != last.ID {
		t.Fatalf("facilities = %+v", room.Facilities)
	}
}

func TestRoomPriceMustBePositive(t *testing.T) {
	a, _ := newTestApp(t)
	hotel, err := a.CreateHotel("Budget", "Ruse", nil)
	if err != nil {
		t.Fatalf("create hotel: %v", err)
	}

	if _, err := a.CreateRoom(hotel.ID, "Free", "", 0, 1, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero price: got %v", err)
	}
	if _, err := a.CreateRoom(hotel.ID, "Negative", "", -10, 1, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative price: got %v", err)
	}

	room, err := a.CreateRoom(hotel.ID, "Single", "", 60, 1, nil)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	zero := 0.0
	if _, err := a.UpdateRoom(room.ID, nil, nil, &zero, nil, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("update to zero price: got %v", err)
	}
	// omitted fields are left alone
	title := "Single Plus"
	updated, err := a.UpdateRoom(room.ID, &title, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("update title: %v", err)
	}
	if updated.Title != "Single Plus" || updated.Price != 60 || updated.Quantity != 1 {
		t.Fatalf("partial update touched other fields: %+v", updated)
	}
}
