package store

import (
	"sync"

	"stayhub/pkg/domain"
)

// MemoryStore is an in-memory Store used by tests and local runs without
// Postgres. It serializes every operation behind one mutex, so the
// check-then-insert in CreateBooking is atomic the same way the
// transactional Postgres path is.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[string]domain.User
	userOrder  []string
	hotels     map[string]domain.Hotel
	hotelOrder []string
	rooms      map[string]domain.Room
	roomOrder  []string
	facilities map[string]domain.Facility
	facOrder   []string
	bookings   map[string]domain.Booking
	bookOrder  []string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]domain.User),
		hotels:     make(map[string]domain.Hotel),
		rooms:      make(map[string]domain.Room),
		facilities: make(map[string]domain.Facility),
		bookings:   make(map[string]domain.Booking),
	}
}

func (s *MemoryStore) CreateUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrAlreadyExists
		}
	}
	if _, ok := s.users[u.ID]; ok {
		return ErrAlreadyExists
	}
	s.users[u.ID] = u
	s.userOrder = append(s.userOrder, u.ID)
	return nil
}

func (s *MemoryStore) GetUserByEmail(email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.userOrder {
		if s.users[id].Email == email {
			return s.users[id], nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (s *MemoryStore) GetUserByID(id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) ListUsers(limit, offset int) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		res = append(res, s.users[id])
	}
	return pageUsers(res, limit, offset), nil
}

func (s *MemoryStore) UpdateUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return ErrAlreadyExists
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	s.userOrder = removeID(s.userOrder, id)
	return nil
}

func (s *MemoryStore) CountUsers() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *MemoryStore) CreateHotel(h domain.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.hotels {
		if existing.Title == h.Title {
			return ErrAlreadyExists
		}
	}
	s.hotels[h.ID] = h
	s.hotelOrder = append(s.hotelOrder, h.ID)
	return nil
}

func (s *MemoryStore) GetHotel(id string) (domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, ErrNotFound
	}
	return h, nil
}

func (s *MemoryStore) ListHotels(limit, offset int) ([]domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.Hotel, 0, len(s.hotelOrder))
	for _, id := range s.hotelOrder {
		res = append(res, s.hotels[id])
	}
	return pageHotels(res, limit, offset), nil
}

func (s *MemoryStore) DeleteHotel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hotels[id]; !ok {
		return ErrNotFound
	}
	delete(s.hotels, id)
	s.hotelOrder = removeID(s.hotelOrder, id)
	for _, rid := range append([]string(nil), s.roomOrder...) {
		if s.rooms[rid].HotelID == id {
			delete(s.rooms, rid)
			s.roomOrder = removeID(s.roomOrder, rid)
		}
	}
	return nil
}

func (s *MemoryStore) CreateRoom(r domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hotels[r.HotelID]; !ok {
		return ErrNotFound
	}
	for _, f := range r.Facilities {
		if _, ok := s.facilities[f.ID]; !ok {
			return ErrNotFound
		}
	}
	s.rooms[r.ID] = r
	s.roomOrder = append(s.roomOrder, r.ID)
	return nil
}

func (s *MemoryStore) GetRoom(id string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) ListRooms(limit, offset int) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.Room, 0, len(s.roomOrder))
	for _, id := range s.roomOrder {
		res = append(res, s.rooms[id])
	}
	return pageRooms(res, limit, offset), nil
}

func (s *MemoryStore) UpdateRoom(r domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rooms[r.ID]
	if !ok {
		return ErrNotFound
	}
	for _, f := range r.Facilities {
		if _, ok := s.facilities[f.ID]; !ok {
			return ErrNotFound
		}
	}
	r.HotelID = existing.HotelID
	r.CreatedAt = existing.CreatedAt
	s.rooms[r.ID] = r
	return nil
}

func (s *MemoryStore) DeleteRoom(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return ErrNotFound
	}
	delete(s.rooms, id)
	s.roomOrder = removeID(s.roomOrder, id)
	return nil
}

func (s *MemoryStore) CreateFacility(f domain.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.facilities {
		if existing.Title == f.Title {
			return ErrAlreadyExists
		}
	}
	s.facilities[f.ID] = f
	s.facOrder = append(s.facOrder, f.ID)
	return nil
}

func (s *MemoryStore) ListFacilities(limit, offset int) ([]domain.Facility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.Facility, 0, len(s.facOrder))
	for _, id := range s.facOrder {
		res = append(res, s.facilities[id])
	}
	return pageFacilities(res, limit, offset), nil
}

func (s *MemoryStore) GetFacilitiesByID(ids []string) ([]domain.Facility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.Facility, 0, len(ids))
	for _, id := range ids {
		f, ok := s.facilities[id]
		if !ok {
			return nil, ErrNotFound
		}
		res = append(res, f)
	}
	return res, nil
}

// CreateBooking checks the room and overlapping bookings under the store
// mutex, so only one of several concurrent admissions for the same dates
// can win.
func (s *MemoryStore) CreateBooking(b domain.Booking) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[b.RoomID]
	if !ok {
		return domain.Booking{}, ErrNotFound
	}
	for _, id := range s.bookOrder {
		existing := s.bookings[id]
		if existing.RoomID == b.RoomID && existing.Overlaps(b.DateFrom, b.DateTo) {
			return domain.Booking{}, ErrBookingConflict
		}
	}
	b.Price = room.Price
	s.bookings[b.ID] = b
	s.bookOrder = append(s.bookOrder, b.ID)
	return b, nil
}

func (s *MemoryStore) ListBookings(limit, offset int) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.Booking, 0, len(s.bookOrder))
	for _, id := range s.bookOrder {
		res = append(res, s.bookings[id])
	}
	return pageBookings(res, limit, offset), nil
}

func (s *MemoryStore) ListBookingsByUser(userID string, limit, offset int) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.Booking, 0)
	for _, id := range s.bookOrder {
		if s.bookings[id].UserID == userID {
			res = append(res, s.bookings[id])
		}
	}
	return pageBookings(res, limit, offset), nil
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

func pageBounds(n, limit, offset int) (int, int) {
	limit = NormalizeLimit(limit)
	offset = NormalizeOffset(offset)
	if offset >= n {
		return 0, 0
	}
	end := offset + limit
	if end > n {
		end = n
	}
	return offset, end
}

func pageUsers(in []domain.User, limit, offset int) []domain.User {
	lo, hi := pageBounds(len(in), limit, offset)
	return in[lo:hi]
}

func pageHotels(in []domain.Hotel, limit, offset int) []domain.Hotel {
	lo, hi := pageBounds(len(in), limit, offset)
	return in[lo:hi]
}

func pageRooms(in []domain.Room, limit, offset int) []domain.Room {
	lo, hi := pageBounds(len(in), limit, offset)
	return in[lo:hi]
}

func pageFacilities(in []domain.Facility, limit, offset int) []domain.Facility {
	lo, hi := pageBounds(len(in), limit, offset)
	return in[lo:hi]
}

func pageBookings(in []domain.Booking, limit, offset int) []domain.Booking {
	lo, hi := pageBounds(len(in), limit, offset)
	return in[lo:hi]
}
