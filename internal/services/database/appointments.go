package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"blood-donation-engine/internal/models"
)

// AppointmentRepository handles appointment database operations.
type AppointmentRepository struct {
	db *DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create inserts a new appointment and returns its ID.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.AppointmentCreate, confirmationCode string) (int64, error) {
	query := `
		INSERT INTO appointments (donor_id, center_name, scheduled_at, status, confirmation_code, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		appointment.DonorID,
		appointment.CenterName,
		appointment.ScheduledAt,
		string(models.AppointmentStatusScheduled),
		confirmationCode,
		appointment.Notes,
		time.Now().UTC(),
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to create appointment: %w", err)
	}

	return id, nil
}

// GetByID retrieves an appointment by its database ID.
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	query := `
		SELECT id, donor_id, center_name, scheduled_at, status, confirmation_code, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1`

	return r.scanAppointmentRow(r.db.QueryRowContext(ctx, query, id))
}

// GetByConfirmationCode retrieves an appointment by its confirmation code.
func (r *AppointmentRepository) GetByConfirmationCode(ctx context.Context, code string) (*models.Appointment, error) {
	query := `
		SELECT id, donor_id, center_name, scheduled_at, status, confirmation_code, notes, created_at, updated_at
		FROM appointments
		WHERE confirmation_code = $1`

	return r.scanAppointmentRow(r.db.QueryRowContext(ctx, query, code))
}

// GetByDonorID retrieves all appointments for a donor, newest first.
func (r *AppointmentRepository) GetByDonorID(ctx context.Context, donorID int64) ([]*models.Appointment, error) {
	query := `
		SELECT id, donor_id, center_name, scheduled_at, status, confirmation_code, notes, created_at, updated_at
		FROM appointments
		WHERE donor_id = $1
		ORDER BY scheduled_at DESC`

	rows, err := r.db.QueryContext(ctx, query, donorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	return r.scanAppointmentRows(rows)
}

// ListUpcoming retrieves appointments scheduled in the given window that are
// still scheduled or confirmed.
func (r *AppointmentRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]*models.Appointment, error) {
	query := `
		SELECT id, donor_id, center_name, scheduled_at, status, confirmation_code, notes, created_at, updated_at
		FROM appointments
		WHERE scheduled_at >= $1 AND scheduled_at < $2 AND status IN ($3, $4)
		ORDER BY scheduled_at`

	rows, err := r.db.QueryContext(ctx, query, from, to,
		string(models.AppointmentStatusScheduled),
		string(models.AppointmentStatusConfirmed),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	return r.scanAppointmentRows(rows)
}

// UpdateStatus sets a new status on an appointment.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status models.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = $3
		WHERE id = $1`

	affected, err := r.db.ExecContext(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("appointment %d not found", id)
	}

	return nil
}

// scanAppointmentRow scans a single appointment row, returning nil when no
// row matched.
func (r *AppointmentRepository) scanAppointmentRow(row pgx.Row) (*models.Appointment, error) {
	var appointment models.Appointment
	var status string

	err := row.Scan(
		&appointment.ID,
		&appointment.DonorID,
		&appointment.CenterName,
		&appointment.ScheduledAt,
		&status,
		&appointment.ConfirmationCode,
		&appointment.Notes,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	appointment.Status = models.AppointmentStatus(status)
	return &appointment, nil
}

// scanAppointmentRows scans all appointment rows from a result set.
func (r *AppointmentRepository) scanAppointmentRows(rows pgx.Rows) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	for rows.Next() {
		var appointment models.Appointment
		var status string

		err := rows.Scan(
			&appointment.ID,
			&appointment.DonorID,
			&appointment.CenterName,
			&appointment.ScheduledAt,
			&status,
			&appointment.ConfirmationCode,
			&appointment.Notes,
			&appointment.CreatedAt,
			&appointment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}

		appointment.Status = models.AppointmentStatus(status)
		appointments = append(appointments, &appointment)
	}

	return appointments, nil
}
