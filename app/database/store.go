package database

import (
	"context"
	"database/sql"

	"github.com/Guilleloma/BuildTrack-sub000/app/models"
	"github.com/Guilleloma/BuildTrack-sub000/app/money"
	"github.com/Guilleloma/BuildTrack-sub000/app/payments"
)

// SQLStore is the Postgres implementation of the payment engine's storage
// collaborator. All engine operations run inside a single transaction with a
// bounded lock wait, so contention surfaces as a retryable conflict instead
// of a hang.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps a database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// InTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back otherwise, including on context cancellation.
func (s *SQLStore) InTx(ctx context.Context, fn func(tx payments.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err, "", "")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SET LOCAL lock_timeout = '3s'`); err != nil {
		return mapError(err, "", "")
	}

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	return mapError(tx.Commit(), "", "")
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) MilestoneForUpdate(ctx context.Context, id string) (*models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones
	          WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	m, err := scanMilestone(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "milestone", id)
	}
	return m, nil
}

func (t *sqlTx) UpdateMilestonePaid(ctx context.Context, id string, paid money.Money) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE milestones SET paid_amount = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`,
		paid, id)
	if err != nil {
		return mapError(err, "milestone", id)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "milestone", id)
	}
	return nil
}

func (t *sqlTx) UpdateMilestoneFields(ctx context.Context, m *models.Milestone) error {
	query := `UPDATE milestones
	          SET name = $1, description = $2, budget = $3, has_tax = $4, tax_rate = $5, updated_at = NOW()
	          WHERE id = $6 AND deleted_at IS NULL`
	result, err := t.tx.ExecContext(ctx, query, m.Name, m.Description, m.Budget, m.HasTax, m.TaxRate, m.ID)
	if err != nil {
		return mapError(err, "milestone", m.ID)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "milestone", m.ID)
	}
	return nil
}

func (t *sqlTx) SoftDeleteMilestone(ctx context.Context, id string) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE milestones SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return mapError(err, "milestone", id)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "milestone", id)
	}
	_, err = t.tx.ExecContext(ctx,
		`UPDATE tasks SET deleted_at = NOW() WHERE milestone_id = $1 AND deleted_at IS NULL`, id)
	return mapError(err, "milestone", id)
}

func (t *sqlTx) PaymentForUpdate(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	p, err := scanPayment(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "payment", id)
	}
	if err := t.loadDistributions(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (t *sqlTx) PaymentsForMilestone(ctx context.Context, milestoneID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE deleted_at IS NULL AND id IN (
	              SELECT payment_id FROM payment_distributions WHERE milestone_id = $1)
	          ORDER BY id FOR UPDATE`
	rows, err := t.tx.QueryContext(ctx, query, milestoneID)
	if err != nil {
		return nil, mapError(err, "payment", "")
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, mapError(err, "payment", "")
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "payment", "")
	}

	for _, p := range payments {
		if err := t.loadDistributions(ctx, p); err != nil {
			return nil, err
		}
	}
	return payments, nil
}

func (t *sqlTx) loadDistributions(ctx context.Context, p *models.Payment) error {
	rows, err := t.tx.QueryContext(ctx, `SELECT id, payment_id, milestone_id, amount, position
		FROM payment_distributions WHERE payment_id = $1 ORDER BY position ASC`, p.ID)
	if err != nil {
		return mapError(err, "payment", p.ID)
	}
	defer rows.Close()
	for rows.Next() {
		d := &models.PaymentDistribution{}
		if err := rows.Scan(&d.ID, &d.PaymentID, &d.MilestoneID, &d.Amount, &d.Position); err != nil {
			return mapError(err, "payment", p.ID)
		}
		p.Distributions = append(p.Distributions, d)
	}
	return mapError(rows.Err(), "payment", p.ID)
}

func (t *sqlTx) InsertPayment(ctx context.Context, p *models.Payment) error {
	query := `INSERT INTO payments (id, type, amount, description, payment_date, payment_method, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err := t.tx.QueryRowContext(ctx, query, p.ID, p.Type, p.Amount, p.Description,
		p.PaymentDate, p.PaymentMethod, p.CreatedBy).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapError(err, "payment", p.ID)
	}
	return t.insertDistributions(ctx, p)
}

func (t *sqlTx) UpdatePayment(ctx context.Context, p *models.Payment) error {
	query := `UPDATE payments
	          SET type = $1, amount = $2, description = $3, payment_date = $4, payment_method = $5, updated_at = NOW()
	          WHERE id = $6 AND deleted_at IS NULL`
	result, err := t.tx.ExecContext(ctx, query, p.Type, p.Amount, p.Description,
		p.PaymentDate, p.PaymentMethod, p.ID)
	if err != nil {
		return mapError(err, "payment", p.ID)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "payment", p.ID)
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM payment_distributions WHERE payment_id = $1`, p.ID); err != nil {
		return mapError(err, "payment", p.ID)
	}
	return t.insertDistributions(ctx, p)
}

func (t *sqlTx) DeletePayment(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM payment_distributions WHERE payment_id = $1`, id); err != nil {
		return mapError(err, "payment", id)
	}
	result, err := t.tx.ExecContext(ctx, `UPDATE payments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return mapError(err, "payment", id)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "payment", id)
	}
	return nil
}

func (t *sqlTx) insertDistributions(ctx context.Context, p *models.Payment) error {
	for _, d := range p.Distributions {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO payment_distributions (id, payment_id, milestone_id, amount, position)
			 VALUES ($1, $2, $3, $4, $5)`,
			d.ID, d.PaymentID, d.MilestoneID, d.Amount, d.Position)
		if err != nil {
			return mapError(err, "payment", p.ID)
		}
	}
	return nil
}
