package database

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/Guilleloma/BuildTrack-sub000/app/models"
)

// GetUserByEmail loads a user for login.
func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT id, email, password_hash, first_name, last_name, created_at
	          FROM users WHERE email = $1`
	err := db.QueryRow(query, email).Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "user", email)
	}
	return u, nil
}

// GetUserByID loads a user for the auth middleware.
func GetUserByID(db *sql.DB, id string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT id, email, password_hash, first_name, last_name, created_at
	          FROM users WHERE id = $1`
	err := db.QueryRow(query, id).Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "user", id)
	}
	return u, nil
}

// CreateUser inserts a new account. The password must already be hashed.
func CreateUser(db *sql.DB, u *models.User) error {
	u.ID = uuid.NewString()
	query := `INSERT INTO users (id, email, password_hash, first_name, last_name)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at`
	err := db.QueryRow(query, u.ID, u.Email, u.Password, u.FirstName, u.LastName).Scan(&u.CreatedAt)
	return mapError(err, "user", u.Email)
}
