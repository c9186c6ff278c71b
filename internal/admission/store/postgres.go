package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/sentinel"
	"hostelcore/pkg/platform/tx"

	"hostelcore/internal/admission/models"
)

// Postgres persists applications. Execute locks the row FOR UPDATE so the
// validate-then-mutate pair sees and writes one consistent version.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, application *models.Application) error {
	var hostelID any
	if application.PreferredHostelID != nil {
		hostelID = uuid.UUID(*application.PreferredHostelID)
	}
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO applications (id, student_id, preferred_hostel_id, stay_duration_months, status, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(application.ID), uuid.UUID(application.StudentID), hostelID,
		application.StayDurationMonths, application.Status, application.AppliedAt,
	)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, student_id, preferred_hostel_id, stay_duration_months, status, applied_at
		FROM applications WHERE id = $1`, uuid.UUID(applicationID))
	return scanApplication(row)
}

// FindByIDForUpdate locks the application row for the rest of the
// transaction. The allocation engine uses it so a racing second allocate on
// the same application serializes.
func (s *Postgres) FindByIDForUpdate(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, student_id, preferred_hostel_id, stay_duration_months, status, applied_at
		FROM applications WHERE id = $1 FOR UPDATE`, uuid.UUID(applicationID))
	return scanApplication(row)
}

func (s *Postgres) Execute(ctx context.Context, applicationID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	var result *models.Application
	run := func(txCtx context.Context) error {
		application, err := s.FindByIDForUpdate(txCtx, applicationID)
		if err != nil {
			return err
		}
		if err := validate(application); err != nil {
			return err
		}
		mutate(application)
		if _, err := tx.Q(txCtx, s.db).ExecContext(txCtx,
			`UPDATE applications SET status = $2 WHERE id = $1`,
			uuid.UUID(application.ID), application.Status); err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		result = application
		return nil
	}

	// Join an enclosing transaction when one is riding the context,
	// otherwise open our own.
	if _, ok := tx.From(ctx); ok {
		if err := run(ctx); err != nil {
			return nil, err
		}
		return result, nil
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sqlTx.Rollback() }()
	if err := run(tx.WithTx(ctx, sqlTx)); err != nil {
		return nil, err
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Postgres) ListByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Application, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT id, student_id, preferred_hostel_id, stay_duration_months, status, applied_at
		FROM applications WHERE student_id = $1 ORDER BY applied_at`, uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		var a models.Application
		var aid, sid uuid.UUID
		var hostel uuid.NullUUID
		if err := rows.Scan(&aid, &sid, &hostel, &a.StayDurationMonths, &a.Status, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		a.ID = id.ApplicationID(aid)
		a.StudentID = id.StudentID(sid)
		if hostel.Valid {
			hid := id.HostelID(hostel.UUID)
			a.PreferredHostelID = &hid
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func scanApplication(row *sql.Row) (*models.Application, error) {
	var a models.Application
	var aid, sid uuid.UUID
	var hostel uuid.NullUUID
	err := row.Scan(&aid, &sid, &hostel, &a.StayDurationMonths, &a.Status, &a.AppliedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}
	a.ID = id.ApplicationID(aid)
	a.StudentID = id.StudentID(sid)
	if hostel.Valid {
		hid := id.HostelID(hostel.UUID)
		a.PreferredHostelID = &hid
	}
	return &a, nil
}
