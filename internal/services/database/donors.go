package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"blood-donation-engine/internal/models"
)

// DonorRepository handles donor database operations.
type DonorRepository struct {
	db *DB
}

// NewDonorRepository creates a new donor repository.
func NewDonorRepository(db *DB) *DonorRepository {
	return &DonorRepository{db: db}
}

// encodeMedicalHistory serializes a medical history for the jsonb column.
// A nil history is stored as NULL.
func encodeMedicalHistory(history *models.MedicalHistory) ([]byte, error) {
	if history == nil {
		return nil, nil
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to encode medical history: %w", err)
	}
	return data, nil
}

// decodeMedicalHistory deserializes the jsonb column value.
func decodeMedicalHistory(data []byte) (*models.MedicalHistory, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var history models.MedicalHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to decode medical history: %w", err)
	}
	return &history, nil
}

// Create inserts a new donor into the database.
func (r *DonorRepository) Create(ctx context.Context, donor *models.DonorCreate) (int64, error) {
	historyJSON, err := encodeMedicalHistory(donor.MedicalHistory)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO donors (donor_code, name, email, phone, blood_type, date_of_birth, last_donation_date, medical_history, batch_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (donor_code) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			blood_type = EXCLUDED.blood_type,
			date_of_birth = EXCLUDED.date_of_birth,
			last_donation_date = EXCLUDED.last_donation_date,
			medical_history = EXCLUDED.medical_history,
			batch_id = EXCLUDED.batch_id,
			updated_at = EXCLUDED.updated_at
		RETURNING id`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		donor.DonorCode,
		donor.Name,
		donor.Email,
		donor.Phone,
		string(donor.BloodType),
		donor.DateOfBirth,
		donor.LastDonationDate,
		historyJSON,
		donor.BatchID,
		time.Now().UTC(),
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to create donor: %w", err)
	}

	return id, nil
}

// BulkInsert inserts multiple donors into the database.
func (r *DonorRepository) BulkInsert(ctx context.Context, donors []*models.DonorCreate) (*models.BulkInsertResult, error) {
	result := &models.BulkInsertResult{
		InsertedCount: 0,
		FailedCount:   0,
		Errors:        []string{},
	}

	// Use a transaction for bulk insert
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, donor := range donors {
			historyJSON, err := encodeMedicalHistory(donor.MedicalHistory)
			if err != nil {
				result.FailedCount++
				result.Errors = append(result.Errors, fmt.Sprintf("donor %s: %v", donor.DonorCode, err))
				continue
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO donors (donor_code, name, email, phone, blood_type, date_of_birth, last_donation_date, medical_history, batch_id, created_at, updated_at, is_active)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10, true)
				ON CONFLICT (donor_code) DO UPDATE SET
					name = EXCLUDED.name,
					email = EXCLUDED.email,
					phone = EXCLUDED.phone,
					blood_type = EXCLUDED.blood_type,
					date_of_birth = EXCLUDED.date_of_birth,
					last_donation_date = EXCLUDED.last_donation_date,
					medical_history = EXCLUDED.medical_history,
					batch_id = EXCLUDED.batch_id,
					updated_at = EXCLUDED.updated_at`,
				donor.DonorCode,
				donor.Name,
				donor.Email,
				donor.Phone,
				string(donor.BloodType),
				donor.DateOfBirth,
				donor.LastDonationDate,
				historyJSON,
				donor.BatchID,
				time.Now().UTC(),
			)

			if err != nil {
				result.FailedCount++
				result.Errors = append(result.Errors, fmt.Sprintf("donor %s: %v", donor.DonorCode, err))
			} else {
				result.InsertedCount++
			}
		}
		return nil
	})

	if err != nil {
		return result, fmt.Errorf("bulk insert failed: %w", err)
	}

	return result, nil
}

// GetByID retrieves a donor by their database ID.
func (r *DonorRepository) GetByID(ctx context.Context, id int64) (*models.Donor, error) {
	query := `
		SELECT id, donor_code, name, email, phone, blood_type, date_of_birth, last_donation_date, medical_history,
			is_deferred_temporary, is_deferred_permanent, deferred_until, batch_id, created_at, updated_at, is_active
		FROM donors
		WHERE id = $1`

	return r.scanDonorRow(r.db.QueryRowContext(ctx, query, id))
}

// GetByDonorCode retrieves a donor by their external donor code.
func (r *DonorRepository) GetByDonorCode(ctx context.Context, donorCode string) (*models.Donor, error) {
	query := `
		SELECT id, donor_code, name, email, phone, blood_type, date_of_birth, last_donation_date, medical_history,
			is_deferred_temporary, is_deferred_permanent, deferred_until, batch_id, created_at, updated_at, is_active
		FROM donors
		WHERE donor_code = $1 AND is_active = true`

	return r.scanDonorRow(r.db.QueryRowContext(ctx, query, donorCode))
}

// GetByIDs retrieves multiple donors by their database IDs.
func (r *DonorRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Donor, error) {
	if len(ids) == 0 {
		return []*models.Donor{}, nil
	}

	// Build the query with placeholders
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, donor_code, name, email, phone, blood_type, date_of_birth, last_donation_date, medical_history,
			is_deferred_temporary, is_deferred_permanent, deferred_until, batch_id, created_at, updated_at, is_active
		FROM donors
		WHERE id IN (%s) AND is_active = true
		ORDER BY id`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query donors: %w", err)
	}
	defer rows.Close()

	return r.scanDonorRows(rows)
}

// GetByBatchID retrieves all donors from a specific import batch.
func (r *DonorRepository) GetByBatchID(ctx context.Context, batchID string) ([]*models.Donor, error) {
	query := `
		SELECT id, donor_code, name, email, phone, blood_type, date_of_birth, last_donation_date, medical_history,
			is_deferred_temporary, is_deferred_permanent, deferred_until, batch_id, created_at, updated_at, is_active
		FROM donors
		WHERE batch_id = $1 AND is_active = true
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query donors: %w", err)
	}
	defer rows.Close()

	return r.scanDonorRows(rows)
}

// GetAllActive retrieves all active donors.
func (r *DonorRepository) GetAllActive(ctx context.Context) ([]*models.Donor, error) {
	query := `
		SELECT id, donor_code, name, email, phone, blood_type, date_of_birth, last_donation_date, medical_history,
			is_deferred_temporary, is_deferred_permanent, deferred_until, batch_id, created_at, updated_at, is_active
		FROM donors
		WHERE is_active = true
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query donors: %w", err)
	}
	defer rows.Close()

	return r.scanDonorRows(rows)
}

// UpdateLastDonation moves a donor's last donation date forward. An earlier
// date never overwrites a later one.
func (r *DonorRepository) UpdateLastDonation(ctx context.Context, id int64, donatedAt time.Time) error {
	query := `
		UPDATE donors
		SET last_donation_date = GREATEST(COALESCE(last_donation_date, $2), $2), updated_at = $3
		WHERE id = $1`

	affected, err := r.db.ExecContext(ctx, query, id, donatedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update last donation date: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("donor %d not found", id)
	}

	return nil
}

// UpdateDeferralStatus caches the latest eligibility verdict on the donor row.
func (r *DonorRepository) UpdateDeferralStatus(ctx context.Context, id int64, temporary, permanent bool, until *time.Time) error {
	query := `
		UPDATE donors
		SET is_deferred_temporary = $2, is_deferred_permanent = $3, deferred_until = $4, updated_at = $5
		WHERE id = $1`

	affected, err := r.db.ExecContext(ctx, query, id, temporary, permanent, until, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update deferral status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("donor %d not found", id)
	}

	return nil
}

// CountByBatchID returns the number of donors in an import batch.
func (r *DonorRepository) CountByBatchID(ctx context.Context, batchID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM donors WHERE batch_id = $1", batchID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count donors: %w", err)
	}
	return count, nil
}

// scanDonorRow scans a single donor row, returning nil when no row matched.
func (r *DonorRepository) scanDonorRow(row pgx.Row) (*models.Donor, error) {
	var donor models.Donor
	var bloodType string
	var historyJSON []byte

	err := row.Scan(
		&donor.ID,
		&donor.DonorCode,
		&donor.Name,
		&donor.Email,
		&donor.Phone,
		&bloodType,
		&donor.DateOfBirth,
		&donor.LastDonationDate,
		&historyJSON,
		&donor.IsDeferredTemporary,
		&donor.IsDeferredPermanent,
		&donor.DeferredUntil,
		&donor.BatchID,
		&donor.CreatedAt,
		&donor.UpdatedAt,
		&donor.IsActive,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donor: %w", err)
	}

	donor.BloodType = models.BloodType(bloodType)
	donor.MedicalHistory, err = decodeMedicalHistory(historyJSON)
	if err != nil {
		return nil, err
	}

	return &donor, nil
}

// scanDonorRows scans all donor rows from a result set.
func (r *DonorRepository) scanDonorRows(rows pgx.Rows) ([]*models.Donor, error) {
	var donors []*models.Donor
	for rows.Next() {
		var donor models.Donor
		var bloodType string
		var historyJSON []byte

		err := rows.Scan(
			&donor.ID,
			&donor.DonorCode,
			&donor.Name,
			&donor.Email,
			&donor.Phone,
			&bloodType,
			&donor.DateOfBirth,
			&donor.LastDonationDate,
			&historyJSON,
			&donor.IsDeferredTemporary,
			&donor.IsDeferredPermanent,
			&donor.DeferredUntil,
			&donor.BatchID,
			&donor.CreatedAt,
			&donor.UpdatedAt,
			&donor.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donor: %w", err)
		}

		donor.BloodType = models.BloodType(bloodType)
		donor.MedicalHistory, err = decodeMedicalHistory(historyJSON)
		if err != nil {
			return nil, err
		}

		donors = append(donors, &donor)
	}

	return donors, nil
}
