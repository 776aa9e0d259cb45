package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"remind-push/pkg/models"
)

// ErrUserNotFound is returned by UserByID when no row matches the id.
var ErrUserNotFound = errors.New("user not found")

// AppointmentsByDueRange returns appointments whose due timestamp falls in the
// half-open range [start, end), ordered by due time.
func (db *DB) AppointmentsByDueRange(ctx context.Context, start, end time.Time, limit int) ([]models.Appointment, error) {
	query := `
		SELECT id, user_id, due_at, note
		FROM appointments
		WHERE due_at >= $1
		  AND due_at < $2
		ORDER BY due_at ASC
		LIMIT $3
	`

	rows, err := db.conn.QueryContext(ctx, query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		var a models.Appointment
		var note sql.NullString

		if err := rows.Scan(&a.ID, &a.UserID, &a.DueAt, &note); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		a.Note = note.String
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read appointments: %w", err)
	}

	return appointments, nil
}

// UserByID resolves a user and their device token. Returns ErrUserNotFound
// when the id does not exist.
func (db *DB) UserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, fcm_token
		FROM users
		WHERE id = $1
	`

	var user models.User
	var token sql.NullString

	err := db.conn.QueryRowContext(ctx, query, id).Scan(&user.ID, &token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	user.FCMToken = token.String

	return &user, nil
}
