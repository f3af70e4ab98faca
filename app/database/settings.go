package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Guilleloma/BuildTrack-sub000/app/apperror"
)

// DefaultTaxRateKey is the settings row holding the fallback tax rate
// applied to milestones with tax enabled but no rate of their own.
const DefaultTaxRateKey = "default_tax_rate"

// GetSetting reads one settings value.
func GetSetting(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		return "", mapError(err, "setting", key)
	}
	return value, nil
}

// SetSetting upserts one settings value.
func SetSetting(db *sql.DB, key, value string) error {
	_, err := db.Exec(`INSERT INTO settings (key, value) VALUES ($1, $2)
	                   ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return mapError(err, "setting", key)
}

// GetDefaultTaxRate returns the configured default tax rate, falling back to
// the given rate when the settings row is missing.
func GetDefaultTaxRate(db *sql.DB, fallback decimal.Decimal) (decimal.Decimal, error) {
	value, err := GetSetting(db, DefaultTaxRateKey)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return fallback, nil
		}
		return decimal.Zero, err
	}
	return parseTaxRate(value)
}

// parseTaxRate validates a stored rate. A malformed value affects money, so
// it fails loudly instead of defaulting.
func parseTaxRate(value string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid default_tax_rate setting %q: %w", value, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("default_tax_rate %s is outside 0-100", rate)
	}
	return rate, nil
}

// SettingsReader adapts the settings table to the payment engine's Settings
// collaborator.
type SettingsReader struct {
	db       *sql.DB
	fallback decimal.Decimal
}

// NewSettingsReader builds a reader with an env-sourced fallback rate.
func NewSettingsReader(db *sql.DB, fallback decimal.Decimal) *SettingsReader {
	return &SettingsReader{db: db, fallback: fallback}
}

// DefaultTaxRate implements payments.Settings. The read honors ctx so an
// aborted request does not hit the database.
func (r *SettingsReader) DefaultTaxRate(ctx context.Context) (decimal.Decimal, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, DefaultTaxRateKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return r.fallback, nil
	}
	if err != nil {
		return decimal.Zero, mapError(err, "setting", DefaultTaxRateKey)
	}
	return parseTaxRate(value)
}
