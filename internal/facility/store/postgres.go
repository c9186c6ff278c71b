package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/sentinel"
	"hostelcore/pkg/platform/tx"

	"hostelcore/internal/facility/models"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Postgres persists the facility catalog. Occupancy mutations are guarded
// updates so a stale cache can never be pushed past a physical limit.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateHostel(ctx context.Context, hostel *models.Hostel) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO hostels (id, name, gender_type, bed_type, ac_type, address_id, warden_id, total_rooms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(hostel.ID), hostel.Name, hostel.GenderType, hostel.BedType, hostel.ACType,
		uuidArg(hostel.AddressID == nil, func() uuid.UUID { return uuid.UUID(*hostel.AddressID) }),
		uuidArg(hostel.WardenID == nil, func() uuid.UUID { return uuid.UUID(*hostel.WardenID) }),
		hostel.TotalRooms,
	)
	if err != nil {
		return fmt.Errorf("create hostel: %w", err)
	}
	return nil
}

func (s *Postgres) FindHostel(ctx context.Context, hostelID id.HostelID) (*models.Hostel, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, name, gender_type, bed_type, ac_type, address_id, warden_id, total_rooms
		FROM hostels WHERE id = $1`, uuid.UUID(hostelID))
	return scanHostel(row)
}

func (s *Postgres) ListHostels(ctx context.Context) ([]*models.Hostel, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT id, name, gender_type, bed_type, ac_type, address_id, warden_id, total_rooms
		FROM hostels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list hostels: %w", err)
	}
	defer rows.Close()

	var out []*models.Hostel
	for rows.Next() {
		h, err := scanHostelRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Postgres) SetWarden(ctx context.Context, hostelID id.HostelID, wardenID id.WardenID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE hostels SET warden_id = $2 WHERE id = $1`,
		uuid.UUID(hostelID), uuid.UUID(wardenID))
	if err != nil {
		return fmt.Errorf("set warden: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) CreateRoom(ctx context.Context, room *models.Room) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO rooms (id, hostel_id, room_number, capacity, current_occupancy)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(room.ID), uuid.UUID(room.HostelID), room.RoomNumber, room.Capacity, room.CurrentOccupancy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (s *Postgres) FindRoom(ctx context.Context, roomID id.RoomID) (*models.Room, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, hostel_id, room_number, capacity, current_occupancy
		FROM rooms WHERE id = $1`, uuid.UUID(roomID))

	var r models.Room
	var rid, hid uuid.UUID
	err := row.Scan(&rid, &hid, &r.RoomNumber, &r.Capacity, &r.CurrentOccupancy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	r.ID = id.RoomID(rid)
	r.HostelID = id.HostelID(hid)
	return &r, nil
}

func (s *Postgres) ListRoomsByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.Room, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT id, hostel_id, room_number, capacity, current_occupancy
		FROM rooms WHERE hostel_id = $1 ORDER BY room_number`, uuid.UUID(hostelID))
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []*models.Room
	for rows.Next() {
		var r models.Room
		var rid, hid uuid.UUID
		if err := rows.Scan(&rid, &hid, &r.RoomNumber, &r.Capacity, &r.CurrentOccupancy); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		r.ID = id.RoomID(rid)
		r.HostelID = id.HostelID(hid)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateBed(ctx context.Context, bed *models.Bed) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO beds (id, room_id, bed_number, is_occupied)
		VALUES ($1, $2, $3, $4)`,
		uuid.UUID(bed.ID), uuid.UUID(bed.RoomID), bed.BedNumber, bed.IsOccupied,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create bed: %w", err)
	}
	return nil
}

func (s *Postgres) FindBed(ctx context.Context, bedID id.BedID) (*models.Bed, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, room_id, bed_number, is_occupied FROM beds WHERE id = $1`, uuid.UUID(bedID))
	return scanBed(row)
}

func (s *Postgres) ListBedsByRoom(ctx context.Context, roomID id.RoomID) ([]*models.Bed, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT id, room_id, bed_number, is_occupied
		FROM beds WHERE room_id = $1 ORDER BY bed_number`, uuid.UUID(roomID))
	if err != nil {
		return nil, fmt.Errorf("list beds: %w", err)
	}
	defer rows.Close()

	var out []*models.Bed
	for rows.Next() {
		var b models.Bed
		var bid, rid uuid.UUID
		if err := rows.Scan(&bid, &rid, &b.BedNumber, &b.IsOccupied); err != nil {
			return nil, fmt.Errorf("scan bed: %w", err)
		}
		b.ID = id.BedID(bid)
		b.RoomID = id.RoomID(rid)
		out = append(out, &b)
	}
	return out, rows.Err()
}

// FindAvailableBed locks and returns the first free bed in a room with spare
// capacity, ordered by room number then bed number. The row lock holds until
// the surrounding transaction commits, so two allocations cannot select the
// same bed.
func (s *Postgres) FindAvailableBed(ctx context.Context, hostelID id.HostelID) (*models.Bed, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT b.id, b.room_id, b.bed_number, b.is_occupied
		FROM beds b
		JOIN rooms r ON r.id = b.room_id
		WHERE r.hostel_id = $1
		  AND b.is_occupied = FALSE
		  AND r.current_occupancy < r.capacity
		ORDER BY r.room_number, b.bed_number
		LIMIT 1
		FOR UPDATE OF b`, uuid.UUID(hostelID))
	return scanBed(row)
}

// OccupyBed flips the bed flag and bumps the room counter, each guarded so a
// stale cache aborts instead of overshooting capacity.
func (s *Postgres) OccupyBed(ctx context.Context, bedID id.BedID) error {
	q := tx.Q(ctx, s.db)

	res, err := q.ExecContext(ctx,
		`UPDATE beds SET is_occupied = TRUE WHERE id = $1 AND is_occupied = FALSE`, uuid.UUID(bedID))
	if err != nil {
		return fmt.Errorf("occupy bed: %w", err)
	}
	if err := requireState(res); err != nil {
		return err
	}

	res, err = q.ExecContext(ctx, `
		UPDATE rooms SET current_occupancy = current_occupancy + 1
		WHERE id = (SELECT room_id FROM beds WHERE id = $1)
		  AND current_occupancy < capacity`, uuid.UUID(bedID))
	if err != nil {
		return fmt.Errorf("increment occupancy: %w", err)
	}
	return requireState(res)
}

// ReleaseBed is the inverse of OccupyBed with the same guard semantics.
func (s *Postgres) ReleaseBed(ctx context.Context, bedID id.BedID) error {
	q := tx.Q(ctx, s.db)

	res, err := q.ExecContext(ctx,
		`UPDATE beds SET is_occupied = FALSE WHERE id = $1 AND is_occupied = TRUE`, uuid.UUID(bedID))
	if err != nil {
		return fmt.Errorf("release bed: %w", err)
	}
	if err := requireState(res); err != nil {
		return err
	}

	res, err = q.ExecContext(ctx, `
		UPDATE rooms SET current_occupancy = current_occupancy - 1
		WHERE id = (SELECT room_id FROM beds WHERE id = $1)
		  AND current_occupancy > 0`, uuid.UUID(bedID))
	if err != nil {
		return fmt.Errorf("decrement occupancy: %w", err)
	}
	return requireState(res)
}

func scanHostel(row *sql.Row) (*models.Hostel, error) {
	var h models.Hostel
	var hid uuid.UUID
	var addr, warden uuid.NullUUID
	err := row.Scan(&hid, &h.Name, &h.GenderType, &h.BedType, &h.ACType, &addr, &warden, &h.TotalRooms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find hostel: %w", err)
	}
	h.ID = id.HostelID(hid)
	if addr.Valid {
		aid := id.AddressID(addr.UUID)
		h.AddressID = &aid
	}
	if warden.Valid {
		wid := id.WardenID(warden.UUID)
		h.WardenID = &wid
	}
	return &h, nil
}

func scanHostelRows(rows *sql.Rows) (*models.Hostel, error) {
	var h models.Hostel
	var hid uuid.UUID
	var addr, warden uuid.NullUUID
	if err := rows.Scan(&hid, &h.Name, &h.GenderType, &h.BedType, &h.ACType, &addr, &warden, &h.TotalRooms); err != nil {
		return nil, fmt.Errorf("scan hostel: %w", err)
	}
	h.ID = id.HostelID(hid)
	if addr.Valid {
		aid := id.AddressID(addr.UUID)
		h.AddressID = &aid
	}
	if warden.Valid {
		wid := id.WardenID(warden.UUID)
		h.WardenID = &wid
	}
	return &h, nil
}

func scanBed(row *sql.Row) (*models.Bed, error) {
	var b models.Bed
	var bid, rid uuid.UUID
	err := row.Scan(&bid, &rid, &b.BedNumber, &b.IsOccupied)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find bed: %w", err)
	}
	b.ID = id.BedID(bid)
	b.RoomID = id.RoomID(rid)
	return &b, nil
}

func uuidArg(isNil bool, get func() uuid.UUID) any {
	if isNil {
		return nil
	}
	return get()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// requireState maps a zero-row guarded update to ErrInvalidState: the row
// exists but its cached state contradicts what the caller validated.
func requireState(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}
