package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/money"
	"hostelcore/pkg/platform/sentinel"
	"hostelcore/pkg/platform/tx"

	"hostelcore/internal/billing/models"
)

const uniqueViolation = "23505"

// Postgres persists fee structures and payments.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateFeeStructure(ctx context.Context, fee *models.FeeStructure) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO fee_structures (id, hostel_id, monthly_rent, security_deposit, maintenance_fee, effective_from)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(fee.ID), uuid.UUID(fee.HostelID),
		fee.MonthlyRent, fee.SecurityDeposit, amountArg(fee.MaintenanceFee),
		fee.EffectiveFrom,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create fee structure: %w", err)
	}
	return nil
}

func (s *Postgres) ListFeesByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.FeeStructure, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `
		SELECT id, hostel_id, monthly_rent, security_deposit, maintenance_fee, effective_from
		FROM fee_structures WHERE hostel_id = $1 ORDER BY effective_from`, uuid.UUID(hostelID))
	if err != nil {
		return nil, fmt.Errorf("list fee structures: %w", err)
	}
	defer rows.Close()

	var out []*models.FeeStructure
	for rows.Next() {
		var f models.FeeStructure
		var fid, hid uuid.UUID
		var maintenance sql.Null[money.Amount]
		if err := rows.Scan(&fid, &hid, &f.MonthlyRent, &f.SecurityDeposit, &maintenance, &f.EffectiveFrom); err != nil {
			return nil, fmt.Errorf("scan fee structure: %w", err)
		}
		f.ID = id.FeeStructureID(fid)
		f.HostelID = id.HostelID(hid)
		if maintenance.Valid {
			v := maintenance.V
			f.MaintenanceFee = &v
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (s *Postgres) CreatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO payments (id, student_id, allocation_id, amount, payment_type, payment_status, payment_date, transaction_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))`,
		uuid.UUID(payment.ID), uuid.UUID(payment.StudentID), allocationArg(payment.AllocationID),
		payment.Amount, payment.Type, payment.Status, payment.PaymentDate, payment.TxReference,
	)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (s *Postgres) FindPayment(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, paymentQuery+` WHERE id = $1`, uuid.UUID(paymentID))
	payment, err := scanPayment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return payment, err
}

// ExecutePayment locks the payment row, validates and applies the settle
// decision, then writes it back. Joins an enclosing transaction when one is
// on the context; otherwise it opens its own.
func (s *Postgres) ExecutePayment(ctx context.Context, paymentID id.PaymentID, validate func(*models.Payment) error, mutate func(*models.Payment)) (*models.Payment, error) {
	var payment *models.Payment
	run := func(ctx context.Context) error {
		row := tx.Q(ctx, s.db).QueryRowContext(ctx,
			paymentQuery+` WHERE id = $1 FOR UPDATE`, uuid.UUID(paymentID))
		var err error
		payment, err = scanPayment(row.Scan)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := validate(payment); err != nil {
			return err
		}
		mutate(payment)
		_, err = tx.Q(ctx, s.db).ExecContext(ctx, `
			UPDATE payments SET payment_status = $2, payment_date = $3, transaction_reference = NULLIF($4, '')
			WHERE id = $1`,
			uuid.UUID(payment.ID), payment.Status, payment.PaymentDate, payment.TxReference)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		return nil
	}

	if _, ok := tx.From(ctx); ok {
		if err := run(ctx); err != nil {
			return nil, err
		}
		return payment, nil
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()
	if err := run(tx.WithTx(ctx, sqlTx)); err != nil {
		return nil, err
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return payment, nil
}

func (s *Postgres) ListPaymentsByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Payment, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		paymentQuery+` WHERE student_id = $1 ORDER BY id`, uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, payment)
	}
	return out, rows.Err()
}

const paymentQuery = `
	SELECT id, student_id, allocation_id, amount, payment_type, payment_status, payment_date, transaction_reference
	FROM payments`

func scanPayment(scan func(...any) error) (*models.Payment, error) {
	var p models.Payment
	var pid, sid uuid.UUID
	var allocationID uuid.NullUUID
	var paymentDate sql.NullTime
	var txRef sql.NullString
	err := scan(&pid, &sid, &allocationID, &p.Amount, &p.Type, &p.Status, &paymentDate, &txRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	p.ID = id.PaymentID(pid)
	p.StudentID = id.StudentID(sid)
	if allocationID.Valid {
		aid := id.AllocationID(allocationID.UUID)
		p.AllocationID = &aid
	}
	if paymentDate.Valid {
		t := paymentDate.Time
		p.PaymentDate = &t
	}
	p.TxReference = txRef.String
	return &p, nil
}

func amountArg(amount *money.Amount) any {
	if amount == nil {
		return nil
	}
	return *amount
}

func allocationArg(allocationID *id.AllocationID) uuid.NullUUID {
	if allocationID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*allocationID), Valid: true}
}
