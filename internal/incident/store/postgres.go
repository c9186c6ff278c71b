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

	"hostelcore/internal/incident/models"
)

// Postgres persists complaints and the visitor log.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO complaints (id, student_id, hostel_id, title, description, status, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(complaint.ID), uuid.UUID(complaint.StudentID), uuid.UUID(complaint.HostelID),
		complaint.Title, complaint.Description, complaint.Status, complaint.CreatedAt, complaint.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

func (s *Postgres) FindComplaint(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, complaintQuery+` WHERE id = $1`, uuid.UUID(complaintID))
	complaint, err := scanComplaint(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return complaint, err
}

// ExecuteComplaint locks the complaint row, validates and applies the
// transition, then writes it back.
func (s *Postgres) ExecuteComplaint(ctx context.Context, complaintID id.ComplaintID, validate func(*models.Complaint) error, mutate func(*models.Complaint)) (*models.Complaint, error) {
	var complaint *models.Complaint
	err := s.inTx(ctx, func(ctx context.Context) error {
		row := tx.Q(ctx, s.db).QueryRowContext(ctx,
			complaintQuery+` WHERE id = $1 FOR UPDATE`, uuid.UUID(complaintID))
		var err error
		complaint, err = scanComplaint(row.Scan)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := validate(complaint); err != nil {
			return err
		}
		mutate(complaint)
		_, err = tx.Q(ctx, s.db).ExecContext(ctx, `
			UPDATE complaints SET status = $2, resolved_at = $3 WHERE id = $1`,
			uuid.UUID(complaint.ID), complaint.Status, complaint.ResolvedAt)
		if err != nil {
			return fmt.Errorf("update complaint: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

func (s *Postgres) ListComplaintsByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.Complaint, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		complaintQuery+` WHERE hostel_id = $1 ORDER BY created_at`, uuid.UUID(hostelID))
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	var out []*models.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, complaint)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateVisitor(ctx context.Context, visitor *models.Visitor) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO visitors (id, student_id, visitor_name, visitor_phone, relation, check_in_time, check_out_time)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)`,
		uuid.UUID(visitor.ID), uuid.UUID(visitor.StudentID),
		visitor.VisitorName, visitor.VisitorPhone, visitor.Relation,
		visitor.CheckInTime, visitor.CheckOutTime,
	)
	if err != nil {
		return fmt.Errorf("create visitor: %w", err)
	}
	return nil
}

func (s *Postgres) FindVisitor(ctx context.Context, visitorID id.VisitorID) (*models.Visitor, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, visitorQuery+` WHERE id = $1`, uuid.UUID(visitorID))
	visitor, err := scanVisitor(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return visitor, err
}

// ExecuteVisitor locks the visitor row, validates and applies the check-out,
// then writes it back.
func (s *Postgres) ExecuteVisitor(ctx context.Context, visitorID id.VisitorID, validate func(*models.Visitor) error, mutate func(*models.Visitor)) (*models.Visitor, error) {
	var visitor *models.Visitor
	err := s.inTx(ctx, func(ctx context.Context) error {
		row := tx.Q(ctx, s.db).QueryRowContext(ctx,
			visitorQuery+` WHERE id = $1 FOR UPDATE`, uuid.UUID(visitorID))
		var err error
		visitor, err = scanVisitor(row.Scan)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := validate(visitor); err != nil {
			return err
		}
		mutate(visitor)
		_, err = tx.Q(ctx, s.db).ExecContext(ctx, `
			UPDATE visitors SET check_out_time = $2 WHERE id = $1`,
			uuid.UUID(visitor.ID), visitor.CheckOutTime)
		if err != nil {
			return fmt.Errorf("update visitor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return visitor, nil
}

func (s *Postgres) ListVisitorsByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Visitor, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		visitorQuery+` WHERE student_id = $1 ORDER BY check_in_time`, uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	defer rows.Close()

	var out []*models.Visitor
	for rows.Next() {
		visitor, err := scanVisitor(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, visitor)
	}
	return out, rows.Err()
}

// inTx runs fn inside the enclosing transaction when one rides the context,
// otherwise in its own.
func (s *Postgres) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()
	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const complaintQuery = `
	SELECT id, student_id, hostel_id, title, description, status, created_at, resolved_at
	FROM complaints`

const visitorQuery = `
	SELECT id, student_id, visitor_name, visitor_phone, relation, check_in_time, check_out_time
	FROM visitors`

func scanComplaint(scan func(...any) error) (*models.Complaint, error) {
	var c models.Complaint
	var cid, sid, hid uuid.UUID
	var resolvedAt sql.NullTime
	err := scan(&cid, &sid, &hid, &c.Title, &c.Description, &c.Status, &c.CreatedAt, &resolvedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan complaint: %w", err)
	}
	c.ID = id.ComplaintID(cid)
	c.StudentID = id.StudentID(sid)
	c.HostelID = id.HostelID(hid)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return &c, nil
}

func scanVisitor(scan func(...any) error) (*models.Visitor, error) {
	var v models.Visitor
	var vid, sid uuid.UUID
	var phone, relation sql.NullString
	var checkOut sql.NullTime
	err := scan(&vid, &sid, &v.VisitorName, &phone, &relation, &v.CheckInTime, &checkOut)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan visitor: %w", err)
	}
	v.ID = id.VisitorID(vid)
	v.StudentID = id.StudentID(sid)
	v.VisitorPhone = phone.String
	v.Relation = relation.String
	if checkOut.Valid {
		t := checkOut.Time
		v.CheckOutTime = &t
	}
	return &v, nil
}
