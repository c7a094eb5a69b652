package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayhub/pkg/domain"
	"stayhub/pkg/store"
)

// CreateHotel registers a hotel.
func (a *App) CreateHotel(title, location string, details map[string]string) (domain.Hotel, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Hotel{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	hotel := domain.Hotel{
		ID:        uuid.NewString(),
		Title:     title,
		Location:  strings.TrimSpace(location),
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.CreateHotel(hotel); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Hotel{}, ErrAlreadyExists
		}
		return domain.Hotel{}, fmt.Errorf("create hotel: %w", err)
	}
	return hotel, nil
}

// GetHotel returns a hotel by ID.
func (a *App) GetHotel(id string) (domain.Hotel, error) {
	hotel, err := a.store.GetHotel(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Hotel{}, ErrHotelNotFound
		}
		return domain.Hotel{}, fmt.Errorf("get hotel: %w", err)
	}
	return hotel, nil
}

// ListHotels returns a page of hotels.
func (a *App) ListHotels(limit, offset int) ([]domain.Hotel, error) {
	return a.store.ListHotels(limit, offset)
}

// DeleteHotel removes a hotel and its rooms.
func (a *App) DeleteHotel(id string) error {
	if err := a.store.DeleteHotel(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrHotelNotFound
		}
		return fmt.Errorf("delete hotel: %w", err)
	}
	return nil
}

// CreateRoom adds a room to a hotel, linking any referenced facilities.
func (a *App) CreateRoom(hotelID, title, description string, price float64, quantity int, facilityIDs []string) (domain.Room, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Room{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if price <= 0 {
		return domain.Room{}, fmt.Errorf("%w: price must be > 0", ErrValidation)
	}
	if quantity < 1 {
		return domain.Room{}, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}
	facilities, err := a.resolveFacilities(facilityIDs)
	if err != nil {
		return domain.Room{}, err
	}
	room := domain.Room{
		ID:          uuid.NewString(),
		HotelID:     hotelID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Price:       price,
		Quantity:    quantity,
		Facilities:  facilities,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.CreateRoom(room); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Room{}, ErrHotelNotFound
		}
		return domain.Room{}, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

// GetRoom returns a room with its facilities.
func (a *App) GetRoom(id string) (domain.Room, error) {
	room, err := a.store.GetRoom(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Room{}, ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// ListRooms returns a page of rooms.
func (a *App) ListRooms(limit, offset int) ([]domain.Room, error) {
	return a.store.ListRooms(limit, offset)
}

// UpdateRoom modifies the fields that were actually sent; nil means
// "leave unchanged". A non-nil facility list replaces the facility set.
func (a *App) UpdateRoom(id string, title, description *string, price *float64, quantity *int, facilityIDs []string) (domain.Room, error) {
	room, err := a.GetRoom(id)
	if err != nil {
		return domain.Room{}, err
	}
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return domain.Room{}, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		room.Title = t
	}
	if description != nil {
		room.Description = strings.TrimSpace(*description)
	}
	if price != nil {
		if *price <= 0 {
			return domain.Room{}, fmt.Errorf("%w: price must be > 0", ErrValidation)
		}
		room.Price = *price
	}
	if quantity != nil {
		if *quantity < 1 {
			return domain.Room{}, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
		}
		room.Quantity = *quantity
	}
	if facilityIDs != nil {
		facilities, err := a.resolveFacilities(facilityIDs)
		if err != nil {
			return domain.Room{}, err
		}
		room.Facilities = facilities
	}
	if err := a.store.UpdateRoom(room); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Room{}, ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("update room: %w", err)
	}
	return room, nil
}

// DeleteRoom removes a room.
func (a *App) DeleteRoom(id string) error {
	if err := a.store.DeleteRoom(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// CreateFacility registers a facility.
func (a *App) CreateFacility(title string) (domain.Facility, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Facility{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	facility := domain.Facility{ID: uuid.NewString(), Title: title}
	if err := a.store.CreateFacility(facility); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Facility{}, ErrAlreadyExists
		}
		return domain.Facility{}, fmt.Errorf("create facility: %w", err)
	}
	return facility, nil
}

// ListFacilities returns a page of facilities.
func (a *App) ListFacilities(limit, offset int) ([]domain.Facility, error) {
	return a.store.ListFacilities(limit, offset)
}

func (a *App) resolveFacilities(ids []string) ([]domain.Facility, error) {
	if len(ids) == 0 {
		return []domain.Facility{}, nil
	}
	facilities, err := a.store.GetFacilitiesByID(ids)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("resolve facilities: %w", err)
	}
	return facilities, nil
}
