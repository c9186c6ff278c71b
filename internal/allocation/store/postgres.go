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

	"hostelcore/internal/allocation/models"
)

const uniqueViolation = "23505"

// Postgres persists allocations. Partial unique indexes back invariants 2
// and 4 (one active allocation per bed and per student); the application_id
// unique constraint backs invariant 5.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, allocation *models.Allocation) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO allocations (id, student_id, application_id, bed_id, check_in_date, expected_checkout_date, actual_checkout_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(allocation.ID), uuid.UUID(allocation.StudentID), uuid.UUID(allocation.ApplicationID),
		uuid.UUID(allocation.BedID), allocation.CheckInDate,
		allocation.ExpectedCheckoutDate, allocation.ActualCheckoutDate, allocation.Status,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, student_id, application_id, bed_id, check_in_date, expected_checkout_date, actual_checkout_date, status
		FROM allocations WHERE id = $1`, uuid.UUID(allocationID))
	return scanAllocation(row)
}

func (s *Postgres) FindActiveByStudent(ctx context.Context, studentID id.StudentID) (*models.Allocation, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, student_id, application_id, bed_id, check_in_date, expected_checkout_date, actual_checkout_date, status
		FROM allocations WHERE student_id = $1 AND status = 'active'`, uuid.UUID(studentID))
	return scanAllocation(row)
}

func (s *Postgres) HasByApplication(ctx context.Context, applicationID id.ApplicationID) (bool, error) {
	var exists bool
	err := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM allocations WHERE application_id = $1)`,
		uuid.UUID(applicationID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check application allocation: %w", err)
	}
	return exists, nil
}

// Complete writes the checkout, guarded on status so a stale caller aborts.
func (s *Postgres) Complete(ctx context.Context, allocation *models.Allocation) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE allocations SET status = $2, actual_checkout_date = $3
		WHERE id = $1 AND status = 'active'`,
		uuid.UUID(allocation.ID), allocation.Status, allocation.ActualCheckoutDate)
	if err != nil {
		return fmt.Errorf("complete allocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *Postgres) CountActiveByBeds(ctx context.Context, bedIDs []id.BedID) (int, error) {
	ids := make([]uuid.UUID, len(bedIDs))
	for i, b := range bedIDs {
		ids[i] = uuid.UUID(b)
	}
	var count int
	err := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM allocations
		WHERE status = 'active' AND bed_id = ANY($1)`, pq.Array(ids)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active allocations: %w", err)
	}
	return count, nil
}

func scanAllocation(row *sql.Row) (*models.Allocation, error) {
	var a models.Allocation
	var aid, sid, appID, bid uuid.UUID
	var expected, actual sql.NullTime
	err := row.Scan(&aid, &sid, &appID, &bid, &a.CheckInDate, &expected, &actual, &a.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find allocation: %w", err)
	}
	a.ID = id.AllocationID(aid)
	a.StudentID = id.StudentID(sid)
	a.ApplicationID = id.ApplicationID(appID)
	a.BedID = id.BedID(bid)
	if expected.Valid {
		t := expected.Time
		a.ExpectedCheckoutDate = &t
	}
	if actual.Valid {
		t := actual.Time
		a.ActualCheckoutDate = &t
	}
	return &a, nil
}
