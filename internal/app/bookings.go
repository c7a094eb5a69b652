package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/metrics"
	"stayhub/pkg/domain"
	"stayhub/pkg/store"
)

// Reserve admits a booking for [dateFrom, dateTo). The date-order check
// happens before the store is touched; conflict detection is the store's
// job because only it can decide atomically.
func (a *App) Reserve(user domain.User, roomID string, dateFrom, dateTo time.Time) (domain.Booking, error) {
	dateFrom = truncateToDay(dateFrom)
	dateTo = truncateToDay(dateTo)
	if !dateFrom.Before(dateTo) {
		metrics.IncBooking("rejected")
		return domain.Booking{}, ErrInvalidRange
	}

	booking := domain.Booking{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		RoomID:    roomID,
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		CreatedAt: time.Now().UTC(),
	}
	admitted, err := a.store.CreateBooking(booking)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			metrics.IncBooking("rejected")
			return domain.Booking{}, ErrRoomNotFound
		case errors.Is(err, store.ErrBookingConflict):
			metrics.IncBooking("conflict")
			return domain.Booking{}, ErrBookingConflict
		default:
			return domain.Booking{}, fmt.Errorf("create booking: %w", err)
		}
	}
	metrics.IncBooking("admitted")
	return admitted, nil
}

// ListBookings returns bookings. Admins see everything; other users see
// only their own.
func (a *App) ListBookings(user domain.User, limit, offset int) ([]domain.Booking, error) {
	if user.Role == domain.RoleAdmin {
		return a.store.ListBookings(limit, offset)
	}
	return a.store.ListBookingsByUser(user.ID, limit, offset)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
