package database

import (
	"database/sql"

	"github.com/Guilleloma/BuildTrack-sub000/app/models"
)

const paymentColumns = `id, type, amount, description, payment_date, payment_method, created_by, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(&p.ID, &p.Type, &p.Amount, &p.Description, &p.PaymentDate,
		&p.PaymentMethod, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPaymentByID loads a payment with its distributions.
func GetPaymentByID(db *sql.DB, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND deleted_at IS NULL`
	p, err := scanPayment(db.QueryRow(query, id))
	if err != nil {
		return nil, mapError(err, "payment", id)
	}
	if err := attachDistributions(db, []*models.Payment{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPaymentsByProject returns every payment touching a project's
// milestones, newest first.
func GetPaymentsByProject(db *sql.DB, projectID string) ([]*models.Payment, error) {
	query := `SELECT DISTINCT p.id, p.type, p.amount, p.description, p.payment_date, p.payment_method, p.created_by, p.created_at, p.updated_at
	          FROM payments p
	          JOIN payment_distributions d ON d.payment_id = p.id
	          JOIN milestones m ON d.milestone_id = m.id
	          WHERE m.project_id = $1 AND p.deleted_at IS NULL
	          ORDER BY p.payment_date DESC, p.created_at DESC`
	return queryPayments(db, query, projectID)
}

// GetPaymentsByMilestone returns every payment with a distribution on the
// given milestone, newest first.
func GetPaymentsByMilestone(db *sql.DB, milestoneID string) ([]*models.Payment, error) {
	query := `SELECT DISTINCT p.id, p.type, p.amount, p.description, p.payment_date, p.payment_method, p.created_by, p.created_at, p.updated_at
	          FROM payments p
	          JOIN payment_distributions d ON d.payment_id = p.id
	          WHERE d.milestone_id = $1 AND p.deleted_at IS NULL
	          ORDER BY p.payment_date DESC, p.created_at DESC`
	return queryPayments(db, query, milestoneID)
}

func queryPayments(db *sql.DB, query string, arg interface{}) ([]*models.Payment, error) {
	rows, err := db.Query(query, arg)
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
	return payments, attachDistributions(db, payments)
}

type queryer interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

func attachDistributions(q queryer, payments []*models.Payment) error {
	byID := make(map[string]*models.Payment, len(payments))
	for _, p := range payments {
		byID[p.ID] = p
	}
	for id := range byID {
		rows, err := q.Query(`SELECT id, payment_id, milestone_id, amount, position
		                      FROM payment_distributions WHERE payment_id = $1 ORDER BY position ASC`, id)
		if err != nil {
			return mapError(err, "payment", id)
		}
		for rows.Next() {
			d := &models.PaymentDistribution{}
			if err := rows.Scan(&d.ID, &d.PaymentID, &d.MilestoneID, &d.Amount, &d.Position); err != nil {
				rows.Close()
				return mapError(err, "payment", id)
			}
			byID[d.PaymentID].Distributions = append(byID[d.PaymentID].Distributions, d)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return mapError(err, "payment", id)
		}
	}
	return nil
}
