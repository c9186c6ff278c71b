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

	"hostelcore/internal/identity/models"
)

const uniqueViolation = "23505"

// Postgres persists the identity registry. Uniqueness of phone, email and
// (govt_id_type, govt_id_number) is enforced by constraints and translated
// to sentinel.ErrAlreadyUsed.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateStudentIfUnique(ctx context.Context, student *models.Student) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO students (id, full_name, dob, gender, phone, email, govt_id_type, govt_id_number, address_id, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11)`,
		uuid.UUID(student.ID), student.FullName, student.DateOfBirth, student.Gender,
		student.Phone, student.Email, student.GovtIDType, student.GovtIDNumber,
		addressArg(student.AddressID), student.IsVerified, student.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func (s *Postgres) FindStudent(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, full_name, dob, gender, phone, COALESCE(email, ''), govt_id_type, govt_id_number, address_id, is_verified, created_at
		FROM students WHERE id = $1`, uuid.UUID(studentID))
	return scanStudent(row)
}

func (s *Postgres) SetStudentVerified(ctx context.Context, studentID id.StudentID, verified bool) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE students SET is_verified = $2 WHERE id = $1`, uuid.UUID(studentID), verified)
	if err != nil {
		return fmt.Errorf("set student verified: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) DeleteStudent(ctx context.Context, studentID id.StudentID) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`DELETE FROM students WHERE id = $1`, uuid.UUID(studentID))
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) CreateGuardian(ctx context.Context, guardian *models.Guardian) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO guardians (id, student_id, full_name, relation, phone, address_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(guardian.ID), uuid.UUID(guardian.StudentID), guardian.FullName,
		guardian.Relation, guardian.Phone, addressArg(guardian.AddressID),
	)
	if err != nil {
		return fmt.Errorf("create guardian: %w", err)
	}
	return nil
}

func (s *Postgres) ListGuardians(ctx context.Context, studentID id.StudentID) ([]*models.Guardian, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT id, student_id, full_name, relation, phone, address_id
		FROM guardians WHERE student_id = $1`, uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("list guardians: %w", err)
	}
	defer rows.Close()

	var out []*models.Guardian
	for rows.Next() {
		var g models.Guardian
		var gid, sid uuid.UUID
		var addr uuid.NullUUID
		if err := rows.Scan(&gid, &sid, &g.FullName, &g.Relation, &g.Phone, &addr); err != nil {
			return nil, fmt.Errorf("scan guardian: %w", err)
		}
		g.ID = id.GuardianID(gid)
		g.StudentID = id.StudentID(sid)
		g.AddressID = addressFromNull(addr)
		out = append(out, &g)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteGuardiansByStudent(ctx context.Context, studentID id.StudentID) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`DELETE FROM guardians WHERE student_id = $1`, uuid.UUID(studentID))
	if err != nil {
		return fmt.Errorf("delete guardians: %w", err)
	}
	return nil
}

func (s *Postgres) CreateWardenIfUnique(ctx context.Context, warden *models.Warden) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO wardens (id, full_name, gender, phone, email, govt_id_type, govt_id_number, address_id, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)`,
		uuid.UUID(warden.ID), warden.FullName, warden.Gender, warden.Phone, warden.Email,
		warden.GovtIDType, warden.GovtIDNumber, addressArg(warden.AddressID), warden.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create warden: %w", err)
	}
	return nil
}

func (s *Postgres) FindWarden(ctx context.Context, wardenID id.WardenID) (*models.Warden, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, full_name, gender, phone, COALESCE(email, ''), govt_id_type, govt_id_number, address_id, created_at
		FROM wardens WHERE id = $1`, uuid.UUID(wardenID))

	var w models.Warden
	var wid uuid.UUID
	var addr uuid.NullUUID
	err := row.Scan(&wid, &w.FullName, &w.Gender, &w.Phone, &w.Email, &w.GovtIDType, &w.GovtIDNumber, &addr, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find warden: %w", err)
	}
	w.ID = id.WardenID(wid)
	w.AddressID = addressFromNull(addr)
	return &w, nil
}

func (s *Postgres) CreateAddress(ctx context.Context, address *models.Address) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO addresses (id, line1, line2, city, state, pincode, country)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)`,
		uuid.UUID(address.ID), address.Line1, address.Line2, address.City,
		address.State, address.Pincode, address.Country,
	)
	if err != nil {
		return fmt.Errorf("create address: %w", err)
	}
	return nil
}

func (s *Postgres) FindAddress(ctx context.Context, addressID id.AddressID) (*models.Address, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, line1, COALESCE(line2, ''), city, state, pincode, country
		FROM addresses WHERE id = $1`, uuid.UUID(addressID))

	var a models.Address
	var aid uuid.UUID
	err := row.Scan(&aid, &a.Line1, &a.Line2, &a.City, &a.State, &a.Pincode, &a.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find address: %w", err)
	}
	a.ID = id.AddressID(aid)
	return &a, nil
}

func scanStudent(row *sql.Row) (*models.Student, error) {
	var st models.Student
	var sid uuid.UUID
	var addr uuid.NullUUID
	err := row.Scan(&sid, &st.FullName, &st.DateOfBirth, &st.Gender, &st.Phone, &st.Email,
		&st.GovtIDType, &st.GovtIDNumber, &addr, &st.IsVerified, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	st.ID = id.StudentID(sid)
	st.AddressID = addressFromNull(addr)
	return &st, nil
}

func addressArg(addressID *id.AddressID) any {
	if addressID == nil {
		return nil
	}
	return uuid.UUID(*addressID)
}

func addressFromNull(addr uuid.NullUUID) *id.AddressID {
	if !addr.Valid {
		return nil
	}
	aid := id.AddressID(addr.UUID)
	return &aid
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

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
