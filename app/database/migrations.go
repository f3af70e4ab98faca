package database

import (
	"database/sql"
	"log"
)

// RunMigrations creates the schema and seeds the rows the application
// depends on. Statements are idempotent so the runner is safe on every boot.
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS milestones (
			id UUID PRIMARY KEY,
			project_id UUID NOT NULL REFERENCES projects(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			budget NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (budget >= 0),
			has_tax BOOLEAN NOT NULL DEFAULT FALSE,
			tax_rate NUMERIC(5,2) CHECK (tax_rate >= 0 AND tax_rate <= 100),
			paid_amount NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (paid_amount >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_milestones_project ON milestones(project_id)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY,
			milestone_id UUID NOT NULL REFERENCES milestones(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING'
				CHECK (status IN ('PENDING', 'IN_PROGRESS', 'COMPLETED')),
			due_date DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_milestone ON tasks(milestone_id)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY,
			type VARCHAR(20) NOT NULL CHECK (type IN ('SINGLE', 'DISTRIBUTED')),
			amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			description TEXT NOT NULL DEFAULT '',
			payment_date TIMESTAMPTZ NOT NULL,
			payment_method VARCHAR(30) NOT NULL
				CHECK (payment_method IN ('CASH', 'BANK_TRANSFER', 'BIZUM', 'PAYPAL')),
			created_by UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS payment_distributions (
			id UUID PRIMARY KEY,
			payment_id UUID NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
			milestone_id UUID NOT NULL REFERENCES milestones(id),
			amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			position INT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_distributions_payment ON payment_distributions(payment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_distributions_milestone ON payment_distributions(milestone_id)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("Migration failed: %v", err)
			return err
		}
	}

	if err := seedSandboxUser(db); err != nil {
		return err
	}
	if err := seedDefaultTaxRate(db); err != nil {
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// seedSandboxUser inserts the shared identity used in sandbox mode. Audit
// fields on payments reference it when the server runs without auth.
func seedSandboxUser(db *sql.DB) error {
	_, err := db.Exec(`
		INSERT INTO users (id, email, password_hash, first_name, last_name)
		VALUES ('00000000-0000-0000-0000-000000000000', 'sandbox@buildtrack.local', '', 'Sandbox', '')
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		log.Printf("Failed to seed sandbox user: %v", err)
	}
	return err
}

func seedDefaultTaxRate(db *sql.DB) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value) VALUES ('default_tax_rate', '21')
		ON CONFLICT (key) DO NOTHING
	`)
	if err != nil {
		log.Printf("Failed to seed default tax rate: %v", err)
	}
	return err
}
