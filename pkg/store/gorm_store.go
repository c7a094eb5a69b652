package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"stayhub/pkg/domain"
)

const migrateLockID int64 = 52314407

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations, including the
// btree_gist extension and the exclusion constraint that makes overlapping
// bookings for one room impossible to commit.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
			return fmt.Errorf("create btree_gist extension: %w", err)
		}
		if err := tx.AutoMigrate(
			&UserModel{}, &HotelModel{}, &RoomModel{},
			&FacilityModel{}, &RoomFacilityModel{}, &BookingModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		if err := tx.Exec(`
			DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'bookings'
					AND constraint_name = 'bookings_no_overlap'
				) THEN
					ALTER TABLE bookings
					ADD CONSTRAINT bookings_no_overlap
					EXCLUDE USING gist (
						room_id WITH =,
						daterange(date_from, date_to, '[)') WITH &&
					);
				END IF;
			END $$;
		`).Error; err != nil {
			return fmt.Errorf("ensure booking exclusion constraint: %w", err)
		}
		if err := tx.Exec(`
			DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'rooms'
					AND constraint_name = 'rooms_hotel_id_fkey'
				) THEN
					ALTER TABLE rooms
					ADD CONSTRAINT rooms_hotel_id_fkey
					FOREIGN KEY (hotel_id) REFERENCES hotels(id) ON DELETE CASCADE;
				END IF;
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'room_facilities'
					AND constraint_name = 'room_facilities_room_id_fkey'
				) THEN
					ALTER TABLE room_facilities
					ADD CONSTRAINT room_facilities_room_id_fkey
					FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE;
				END IF;
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'room_facilities'
					AND constraint_name = 'room_facilities_facility_id_fkey'
				) THEN
					ALTER TABLE room_facilities
					ADD CONSTRAINT room_facilities_facility_id_fkey
					FOREIGN KEY (facility_id) REFERENCES facilities(id) ON DELETE CASCADE;
				END IF;
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'bookings'
					AND constraint_name = 'bookings_room_id_fkey'
				) THEN
					ALTER TABLE bookings
					ADD CONSTRAINT bookings_room_id_fkey
					FOREIGN KEY (room_id) REFERENCES rooms(id);
				END IF;
			END $$;
		`).Error; err != nil {
			return fmt.Errorf("ensure foreign keys: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// users

// CreateUser inserts a new user; a duplicate email maps to ErrAlreadyExists.
func (s *GormStore) CreateUser(u domain.User) error {
	model := userToModel(u)
	if err := s.db.Create(&model).Error; err != nil {
		return mapConstraintError(err)
	}
	return nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return userFromModel(model), nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return userFromModel(model), nil
}

// ListUsers returns users ordered by created_at.
func (s *GormStore) ListUsers(limit, offset int) ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").
		Limit(NormalizeLimit(limit)).Offset(NormalizeOffset(offset)).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// UpdateUser persists role, password, and active-flag changes.
func (s *GormStore) UpdateUser(u domain.User) error {
	model := userToModel(u)
	result := s.db.Model(&UserModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"email":         model.Email,
		"password_hash": model.PasswordHash,
		"role":          model.Role,
		"active":        model.Active,
		"updated_at":    model.UpdatedAt,
	})
	if result.Error != nil {
		return mapConstraintError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user by ID.
func (s *GormStore) DeleteUser(id string) error {
	result := s.db.Delete(&UserModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the number of users.
func (s *GormStore) CountUsers() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// hotels

// CreateHotel inserts a hotel; a duplicate title maps to ErrAlreadyExists.
func (s *GormStore) CreateHotel(h domain.Hotel) error {
	model := hotelToModel(h)
	if err := s.db.Create(&model).Error; err != nil {
		return mapConstraintError(err)
	}
	return nil
}

// GetHotel returns a hotel by ID.
func (s *GormStore) GetHotel(id string) (domain.Hotel, error) {
	var model HotelModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		return domain.Hotel{}, mapNotFound(err)
	}
	return hotelFromModel(model), nil
}

// ListHotels returns hotels ordered by created_at.
func (s *GormStore) ListHotels(limit, offset int) ([]domain.Hotel, error) {
	var models []HotelModel
	if err := s.db.Order("created_at ASC").
		Limit(NormalizeLimit(limit)).Offset(NormalizeOffset(offset)).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Hotel, 0, len(models))
	for _, m := range models {
		res = append(res, hotelFromModel(m))
	}
	return res, nil
}

// DeleteHotel removes a hotel; rooms and their facility links cascade.
func (s *GormStore) DeleteHotel(id string) error {
	result := s.db.Delete(&HotelModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// rooms

// CreateRoom inserts a room and its facility links. An unknown hotel or
// facility maps to ErrNotFound.
func (s *GormStore) CreateRoom(r domain.Room) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var hotelCount int64
		if err := tx.Model(&HotelModel{}).Where("id = ?", r.HotelID).Count(&hotelCount).Error; err != nil {
			return err
		}
		if hotelCount == 0 {
			return ErrNotFound
		}
		model := roomToModel(r)
		if err := tx.Create(&model).Error; err != nil {
			return mapConstraintError(err)
		}
		return replaceRoomFacilities(tx, r.ID, facilityIDs(r.Facilities))
	})
}

// GetRoom returns a room with its facilities eagerly assembled.
func (s *GormStore) GetRoom(id string) (domain.Room, error) {
	var model RoomModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		return domain.Room{}, mapNotFound(err)
	}
	facilities, err := s.roomFacilities(s.db, id)
	if err != nil {
		return domain.Room{}, err
	}
	return roomFromModel(model, facilities), nil
}

// ListRooms returns rooms with facilities, assembled in two queries rather
// than one follow-up fetch per room.
func (s *GormStore) ListRooms(limit, offset int) ([]domain.Room, error) {
	var models []RoomModel
	if err := s.db.Order("created_at ASC").
		Limit(NormalizeLimit(limit)).Offset(NormalizeOffset(offset)).
		Find(&models).Error; err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return []domain.Room{}, nil
	}
	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	type joinRow struct {
		RoomID string
		ID     string
		Title  string
	}
	var rows []joinRow
	if err := s.db.Table("room_facilities").
		Select("room_facilities.room_id, facilities.id, facilities.title").
		Joins("JOIN facilities ON facilities.id = room_facilities.facility_id").
		Where("room_facilities.room_id IN ?", ids).
		Order("facilities.title ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	byRoom := make(map[string][]domain.Facility, len(models))
	for _, row := range rows {
		byRoom[row.RoomID] = append(byRoom[row.RoomID], domain.Facility{ID: row.ID, Title: row.Title})
	}
	res := make([]domain.Room, 0, len(models))
	for _, m := range models {
		res = append(res, roomFromModel(m, byRoom[m.ID]))
	}
	return res, nil
}

// UpdateRoom persists room fields and replaces its facility links.
func (s *GormStore) UpdateRoom(r domain.Room) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		model := roomToModel(r)
		result := tx.Model(&RoomModel{}).Where("id = ?", r.ID).Updates(map[string]any{
			"title":       model.Title,
			"description": model.Description,
			"price":       model.Price,
			"quantity":    model.Quantity,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return replaceRoomFacilities(tx, r.ID, facilityIDs(r.Facilities))
	})
}

// DeleteRoom removes a room; facility links cascade.
func (s *GormStore) DeleteRoom(id string) error {
	result := s.db.Delete(&RoomModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetFacilitiesByID resolves facility IDs in input order.
func (s *GormStore) GetFacilitiesByID(ids []string) ([]domain.Facility, error) {
	if len(ids) == 0 {
		return []domain.Facility{}, nil
	}
	var models []FacilityModel
	if err := s.db.Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Facility, len(models))
	for _, m := range models {
		byID[m.ID] = domain.Facility{ID: m.ID, Title: m.Title}
	}
	res := make([]domain.Facility, 0, len(ids))
	for _, id := range ids {
		f, ok := byID[id]
		if !ok {
			return nil, ErrNotFound
		}
		res = append(res, f)
	}
	return res, nil
}

func (s *GormStore) roomFacilities(db *gorm.DB, roomID string) ([]domain.Facility, error) {
	var models []FacilityModel
	if err := db.Table("facilities").
		Joins("JOIN room_facilities ON room_facilities.facility_id = facilities.id").
		Where("room_facilities.room_id = ?", roomID).
		Order("facilities.title ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Facility, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Facility{ID: m.ID, Title: m.Title})
	}
	return res, nil
}

func replaceRoomFacilities(tx *gorm.DB, roomID string, facilityIDs []string) error {
	if err := tx.Delete(&RoomFacilityModel{}, "room_id = ?", roomID).Error; err != nil {
		return err
	}
	if len(facilityIDs) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&FacilityModel{}).Where("id IN ?", facilityIDs).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(facilityIDs) {
		return ErrNotFound
	}
	links := make([]RoomFacilityModel, 0, len(facilityIDs))
	for _, fid := range facilityIDs {
		links = append(links, RoomFacilityModel{RoomID: roomID, FacilityID: fid})
	}
	return tx.Create(&links).Error
}

// facilities

// CreateFacility inserts a facility; a duplicate title maps to ErrAlreadyExists.
func (s *GormStore) CreateFacility(f domain.Facility) error {
	model := FacilityModel{ID: f.ID, Title: f.Title}
	if err := s.db.Create(&model).Error; err != nil {
		return mapConstraintError(err)
	}
	return nil
}

// ListFacilities returns facilities ordered by title.
func (s *GormStore) ListFacilities(limit, offset int) ([]domain.Facility, error) {
	var models []FacilityModel
	if err := s.db.Order("title ASC").
		Limit(NormalizeLimit(limit)).Offset(NormalizeOffset(offset)).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Facility, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Facility{ID: m.ID, Title: m.Title})
	}
	return res, nil
}

// bookings

// CreateBooking admits a reservation as one atomic unit. The room row is
// locked FOR UPDATE for the duration of the check-and-insert, which
// serializes concurrent admissions for the same room; the bookings_no_overlap
// exclusion constraint rejects at commit anything that still slips through.
func (s *GormStore) CreateBooking(b domain.Booking) (domain.Booking, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var room RoomModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&room, "id = ?", b.RoomID).Error; err != nil {
			return mapNotFound(err)
		}

		var overlapping int64
		if err := tx.Model(&BookingModel{}).
			Where("room_id = ? AND date_from < ? AND date_to > ?", b.RoomID, b.DateTo, b.DateFrom).
			Count(&overlapping).Error; err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if overlapping > 0 {
			return ErrBookingConflict
		}

		b.Price = room.Price
		model := bookingToModel(b)
		if err := tx.Create(&model).Error; err != nil {
			return mapConstraintError(err)
		}
		return nil
	})
	if err != nil {
		// A commit-time exclusion violation is the same conflict the
		// pre-check reports; the caller should not be able to tell the
		// two apart.
		if isExclusionViolation(err) {
			return domain.Booking{}, ErrBookingConflict
		}
		return domain.Booking{}, err
	}
	return b, nil
}

// ListBookings returns bookings ordered by creation time.
func (s *GormStore) ListBookings(limit, offset int) ([]domain.Booking, error) {
	return s.listBookings(limit, offset, "")
}

// ListBookingsByUser returns one user's bookings ordered by creation time.
func (s *GormStore) ListBookingsByUser(userID string, limit, offset int) ([]domain.Booking, error) {
	return s.listBookings(limit, offset, userID)
}

func (s *GormStore) listBookings(limit, offset int, userID string) ([]domain.Booking, error) {
	var models []BookingModel
	tx := s.db.Order("created_at ASC").
		Limit(NormalizeLimit(limit)).Offset(NormalizeOffset(offset))
	if userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		res = append(res, bookingFromModel(m))
	}
	return res, nil
}

// error mapping

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrAlreadyExists
		case pgerrcode.ExclusionViolation:
			return ErrBookingConflict
		case pgerrcode.ForeignKeyViolation:
			return ErrNotFound
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation
}

// model mapping

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func hotelToModel(h domain.Hotel) HotelModel {
	raw, _ := json.Marshal(h.Details)
	return HotelModel{
		ID:        h.ID,
		Title:     h.Title,
		Location:  h.Location,
		Details:   datatypes.JSON(raw),
		CreatedAt: h.CreatedAt,
	}
}

func hotelFromModel(m HotelModel) domain.Hotel {
	var details map[string]string
	if len(m.Details) > 0 {
		_ = json.Unmarshal(m.Details, &details)
	}
	return domain.Hotel{
		ID:        m.ID,
		Title:     m.Title,
		Location:  m.Location,
		Details:   details,
		CreatedAt: m.CreatedAt,
	}
}

func roomToModel(r domain.Room) RoomModel {
	return RoomModel{
		ID:          r.ID,
		HotelID:     r.HotelID,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
		CreatedAt:   r.CreatedAt,
	}
}

func roomFromModel(m RoomModel, facilities []domain.Facility) domain.Room {
	if facilities == nil {
		facilities = []domain.Facility{}
	}
	return domain.Room{
		ID:          m.ID,
		HotelID:     m.HotelID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		Quantity:    m.Quantity,
		Facilities:  facilities,
		CreatedAt:   m.CreatedAt,
	}
}

func bookingToModel(b domain.Booking) BookingModel {
	return BookingModel{
		ID:        b.ID,
		UserID:    b.UserID,
		RoomID:    b.RoomID,
		DateFrom:  b.DateFrom,
		DateTo:    b.DateTo,
		Price:     b.Price,
		CreatedAt: b.CreatedAt,
	}
}

func bookingFromModel(m BookingModel) domain.Booking {
	return domain.Booking{
		ID:        m.ID,
		UserID:    m.UserID,
		RoomID:    m.RoomID,
		DateFrom:  m.DateFrom,
		DateTo:    m.DateTo,
		Price:     m.Price,
		CreatedAt: m.CreatedAt,
	}
}

func facilityIDs(facilities []domain.Facility) []string {
	ids := make([]string, 0, len(facilities))
	for _, f := range facilities {
		ids = append(ids, f.ID)
	}
	return ids
}
