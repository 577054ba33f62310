package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"blood-donation-engine/internal/models"
)

// BloodUnitRepository handles blood bank inventory database operations.
type BloodUnitRepository struct {
	db *DB
}

// NewBloodUnitRepository creates a new blood unit repository.
func NewBloodUnitRepository(db *DB) *BloodUnitRepository {
	return &BloodUnitRepository{db: db}
}

// Create registers a collected unit and returns its ID. The expiry date is
// derived from the collection date and the whole blood shelf life.
func (r *BloodUnitRepository) Create(ctx context.Context, unit *models.BloodUnitCreate) (int64, error) {
	expiresAt := unit.CollectedAt.AddDate(0, 0, models.ShelfLifeDays)

	query := `
		INSERT INTO blood_units (unit_code, blood_type, volume_ml, collected_at, expires_at, status, donation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		unit.UnitCode,
		string(unit.BloodType),
		unit.VolumeML,
		unit.CollectedAt,
		expiresAt,
		string(models.BloodUnitStatusAvailable),
		unit.DonationID,
		time.Now().UTC(),
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to create blood unit: %w", err)
	}

	return id, nil
}

// GetByID retrieves a blood unit by its database ID.
func (r *BloodUnitRepository) GetByID(ctx context.Context, id int64) (*models.BloodUnit, error) {
	query := `
		SELECT id, unit_code, blood_type, volume_ml, collected_at, expires_at, status, donation_id, created_at, updated_at
		FROM blood_units
		WHERE id = $1`

	return r.scanUnitRow(r.db.QueryRowContext(ctx, query, id))
}

// GetByUnitCode retrieves a blood unit by its external unit code.
func (r *BloodUnitRepository) GetByUnitCode(ctx context.Context, unitCode string) (*models.BloodUnit, error) {
	query := `
		SELECT id, unit_code, blood_type, volume_ml, collected_at, expires_at, status, donation_id, created_at, updated_at
		FROM blood_units
		WHERE unit_code = $1`

	return r.scanUnitRow(r.db.QueryRowContext(ctx, query, unitCode))
}

// ListByStatus retrieves units with the given status, soonest expiry first.
func (r *BloodUnitRepository) ListByStatus(ctx context.Context, status models.BloodUnitStatus) ([]*models.BloodUnit, error) {
	query := `
		SELECT id, unit_code, blood_type, volume_ml, collected_at, expires_at, status, donation_id, created_at, updated_at
		FROM blood_units
		WHERE status = $1
		ORDER BY expires_at`

	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query blood units: %w", err)
	}
	defer rows.Close()

	return r.scanUnitRows(rows)
}

// CountAvailableByType returns the number of available units of one type.
func (r *BloodUnitRepository) CountAvailableByType(ctx context.Context, bloodType models.BloodType) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM blood_units WHERE blood_type = $1 AND status = $2",
		string(bloodType), string(models.BloodUnitStatusAvailable),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count blood units: %w", err)
	}
	return count, nil
}

// UpdateStatus sets a new status on a blood unit.
func (r *BloodUnitRepository) UpdateStatus(ctx context.Context, id int64, status models.BloodUnitStatus) error {
	query := `
		UPDATE blood_units
		SET status = $2, updated_at = $3
		WHERE id = $1`

	affected, err := r.db.ExecContext(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update blood unit status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("blood unit %d not found", id)
	}

	return nil
}

// MarkExpired transitions available units past their expiry date to expired
// and returns how many rows changed.
func (r *BloodUnitRepository) MarkExpired(ctx context.Context, at time.Time) (int64, error) {
	query := `
		UPDATE blood_units
		SET status = $1, updated_at = $2
		WHERE status = $3 AND expires_at < $4`

	affected, err := r.db.ExecContext(ctx, query,
		string(models.BloodUnitStatusExpired),
		time.Now().UTC(),
		string(models.BloodUnitStatusAvailable),
		at,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired units: %w", err)
	}

	return affected, nil
}

// Levels aggregates available and reserved unit counts per blood type.
func (r *BloodUnitRepository) Levels(ctx context.Context) ([]*models.InventoryLevel, error) {
	query := `
		SELECT blood_type,
			COUNT(*) FILTER (WHERE status = 'available') AS available,
			COUNT(*) FILTER (WHERE status = 'reserved') AS reserved,
			COALESCE(SUM(volume_ml) FILTER (WHERE status = 'available'), 0) AS total_volume_ml
		FROM blood_units
		GROUP BY blood_type
		ORDER BY blood_type`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory levels: %w", err)
	}
	defer rows.Close()

	var levels []*models.InventoryLevel
	for rows.Next() {
		var level models.InventoryLevel
		var bloodType string

		err := rows.Scan(&bloodType, &level.Available, &level.Reserved, &level.TotalVolumeML)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory level: %w", err)
		}

		level.BloodType = models.BloodType(bloodType)
		levels = append(levels, &level)
	}

	return levels, nil
}

// scanUnitRow scans a single blood unit row, returning nil when no row
// matched.
func (r *BloodUnitRepository) scanUnitRow(row pgx.Row) (*models.BloodUnit, error) {
	var unit models.BloodUnit
	var bloodType, status string

	err := row.Scan(
		&unit.ID,
		&unit.UnitCode,
		&bloodType,
		&unit.VolumeML,
		&unit.CollectedAt,
		&unit.ExpiresAt,
		&status,
		&unit.DonationID,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blood unit: %w", err)
	}

	unit.BloodType = models.BloodType(bloodType)
	unit.Status = models.BloodUnitStatus(status)
	return &unit, nil
}

// scanUnitRows scans all blood unit rows from a result set.
func (r *BloodUnitRepository) scanUnitRows(rows pgx.Rows) ([]*models.BloodUnit, error) {
	var units []*models.BloodUnit
	for rows.Next() {
		var unit models.BloodUnit
		var bloodType, status string

		err := rows.Scan(
			&unit.ID,
			&unit.UnitCode,
			&bloodType,
			&unit.VolumeML,
			&unit.CollectedAt,
			&unit.ExpiresAt,
			&status,
			&unit.DonationID,
			&unit.CreatedAt,
			&unit.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blood unit: %w", err)
		}

		unit.BloodType = models.BloodType(bloodType)
		unit.Status = models.BloodUnitStatus(status)
		units = append(units, &unit)
	}

	return units, nil
}
