package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"blood-donation-engine/internal/models"
)

// BloodRequestRepository handles facility blood request database operations.
type BloodRequestRepository struct {
	db *DB
}

// NewBloodRequestRepository creates a new blood request repository.
func NewBloodRequestRepository(db *DB) *BloodRequestRepository {
	return &BloodRequestRepository{db: db}
}

// Create files a new request and returns its ID.
func (r *BloodRequestRepository) Create(ctx context.Context, request *models.BloodRequestCreate) (int64, error) {
	query := `
		INSERT INTO blood_requests (facility_name, contact_email, blood_type, units_requested, urgency, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		request.FacilityName,
		request.ContactEmail,
		string(request.BloodType),
		request.UnitsRequested,
		string(request.Urgency),
		string(models.RequestStatusPending),
		request.Notes,
		time.Now().UTC(),
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to create blood request: %w", err)
	}

	return id, nil
}

// GetByID retrieves a request by its database ID.
func (r *BloodRequestRepository) GetByID(ctx context.Context, id int64) (*models.BloodRequest, error) {
	query := `
		SELECT id, facility_name, contact_email, blood_type, units_requested, urgency, status, notes, created_at, updated_at
		FROM blood_requests
		WHERE id = $1`

	return r.scanRequestRow(r.db.QueryRowContext(ctx, query, id))
}

// ListByStatus retrieves requests with the given status, critical first and
// then oldest first.
func (r *BloodRequestRepository) ListByStatus(ctx context.Context, status models.BloodRequestStatus) ([]*models.BloodRequest, error) {
	query := `
		SELECT id, facility_name, contact_email, blood_type, units_requested, urgency, status, notes, created_at, updated_at
		FROM blood_requests
		WHERE status = $1
		ORDER BY CASE urgency WHEN 'critical' THEN 0 WHEN 'urgent' THEN 1 ELSE 2 END, created_at`

	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query blood requests: %w", err)
	}
	defer rows.Close()

	return r.scanRequestRows(rows)
}

// ListByFacility retrieves all requests filed by a facility, newest first.
func (r *BloodRequestRepository) ListByFacility(ctx context.Context, facilityName string) ([]*models.BloodRequest, error) {
	query := `
		SELECT id, facility_name, contact_email, blood_type, units_requested, urgency, status, notes, created_at, updated_at
		FROM blood_requests
		WHERE facility_name = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, facilityName)
	if err != nil {
		return nil, fmt.Errorf("failed to query blood requests: %w", err)
	}
	defer rows.Close()

	return r.scanRequestRows(rows)
}

// ListRecent retrieves the most recently filed requests.
func (r *BloodRequestRepository) ListRecent(ctx context.Context, limit int) ([]*models.BloodRequest, error) {
	query := `
		SELECT id, facility_name, contact_email, blood_type, units_requested, urgency, status, notes, created_at, updated_at
		FROM blood_requests
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query blood requests: %w", err)
	}
	defer rows.Close()

	return r.scanRequestRows(rows)
}

// UpdateStatus sets a new status on a request.
func (r *BloodRequestRepository) UpdateStatus(ctx context.Context, id int64, status models.BloodRequestStatus) error {
	query := `
		UPDATE blood_requests
		SET status = $2, updated_at = $3
		WHERE id = $1`

	affected, err := r.db.ExecContext(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update blood request status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("blood request %d not found", id)
	}

	return nil
}

// scanRequestRow scans a single request row, returning nil when no row
// matched.
func (r *BloodRequestRepository) scanRequestRow(row pgx.Row) (*models.BloodRequest, error) {
	var request models.BloodRequest
	var bloodType, urgency, status string

	err := row.Scan(
		&request.ID,
		&request.FacilityName,
		&request.ContactEmail,
		&bloodType,
		&request.UnitsRequested,
		&urgency,
		&status,
		&request.Notes,
		&request.CreatedAt,
		&request.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blood request: %w", err)
	}

	request.BloodType = models.BloodType(bloodType)
	request.Urgency = models.RequestUrgency(urgency)
	request.Status = models.BloodRequestStatus(status)
	return &request, nil
}

// scanRequestRows scans all request rows from a result set.
func (r *BloodRequestRepository) scanRequestRows(rows pgx.Rows) ([]*models.BloodRequest, error) {
	var requests []*models.BloodRequest
	for rows.Next() {
		var request models.BloodRequest
		var bloodType, urgency, status string

		err := rows.Scan(
			&request.ID,
			&request.FacilityName,
			&request.ContactEmail,
			&bloodType,
			&request.UnitsRequested,
			&urgency,
			&status,
			&request.Notes,
			&request.CreatedAt,
			&request.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blood request: %w", err)
		}

		request.BloodType = models.BloodType(bloodType)
		request.Urgency = models.RequestUrgency(urgency)
		request.Status = models.BloodRequestStatus(status)
		requests = append(requests, &request)
	}

	return requests, nil
}
