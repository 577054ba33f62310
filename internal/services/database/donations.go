package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"blood-donation-engine/internal/models"
)

// DonationRepository handles donation database operations.
type DonationRepository struct {
	db *DB
}

// NewDonationRepository creates a new donation repository.
func NewDonationRepository(db *DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Record stores a completed donation, advances the donor's last donation
// date, and completes the linked appointment when one is given. All three
// writes happen in one transaction.
func (r *DonationRepository) Record(ctx context.Context, donation *models.DonationCreate) (int64, error) {
	var id int64

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO donations (donor_id, appointment_id, donated_at, volume_ml, blood_type, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			donation.DonorID,
			donation.AppointmentID,
			donation.DonatedAt,
			donation.VolumeML,
			string(donation.BloodType),
			time.Now().UTC(),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert donation: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE donors
			SET last_donation_date = GREATEST(COALESCE(last_donation_date, $2), $2), updated_at = $3
			WHERE id = $1`,
			donation.DonorID, donation.DonatedAt, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to update donor last donation date: %w", err)
		}

		if donation.AppointmentID != nil {
			_, err = tx.Exec(ctx, `
				UPDATE appointments
				SET status = $2, updated_at = $3
				WHERE id = $1`,
				*donation.AppointmentID, string(models.AppointmentStatusCompleted), time.Now().UTC(),
			)
			if err != nil {
				return fmt.Errorf("failed to complete appointment: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetByID retrieves a donation by its database ID.
func (r *DonationRepository) GetByID(ctx context.Context, id int64) (*models.Donation, error) {
	query := `
		SELECT id, donor_id, appointment_id, donated_at, volume_ml, blood_type, created_at
		FROM donations
		WHERE id = $1`

	var donation models.Donation
	var bloodType string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&donation.ID,
		&donation.DonorID,
		&donation.AppointmentID,
		&donation.DonatedAt,
		&donation.VolumeML,
		&bloodType,
		&donation.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}

	donation.BloodType = models.BloodType(bloodType)
	return &donation, nil
}

// ListByDonor retrieves all donations for a donor, newest first.
func (r *DonationRepository) ListByDonor(ctx context.Context, donorID int64) ([]*models.Donation, error) {
	query := `
		SELECT id, donor_id, appointment_id, donated_at, volume_ml, blood_type, created_at
		FROM donations
		WHERE donor_id = $1
		ORDER BY donated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, donorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query donations: %w", err)
	}
	defer rows.Close()

	var donations []*models.Donation
	for rows.Next() {
		var donation models.Donation
		var bloodType string

		err := rows.Scan(
			&donation.ID,
			&donation.DonorID,
			&donation.AppointmentID,
			&donation.DonatedAt,
			&donation.VolumeML,
			&bloodType,
			&donation.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}

		donation.BloodType = models.BloodType(bloodType)
		donations = append(donations, &donation)
	}

	return donations, nil
}

// CountSince returns how many donations the donor has made since the cutoff.
func (r *DonationRepository) CountSince(ctx context.Context, donorID int64, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM donations WHERE donor_id = $1 AND donated_at >= $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, donorID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count donations: %w", err)
	}

	return count, nil
}

// ActivityBetween retrieves donations in the window joined with donor
// identity, for the activity report. Ordered oldest first.
func (r *DonationRepository) ActivityBetween(ctx context.Context, from, to time.Time) ([]*models.DonationActivity, error) {
	query := `
		SELECT dn.id, d.donor_code, d.name, dn.blood_type, dn.donated_at, dn.volume_ml, COALESCE(a.center_name, '')
		FROM donations dn
		JOIN donors d ON d.id = dn.donor_id
		LEFT JOIN appointments a ON a.id = dn.appointment_id
		WHERE dn.donated_at >= $1 AND dn.donated_at < $2
		ORDER BY dn.donated_at`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query donation activity: %w", err)
	}
	defer rows.Close()

	var activity []*models.DonationActivity
	for rows.Next() {
		var row models.DonationActivity
		var bloodType string

		err := rows.Scan(
			&row.DonationID,
			&row.DonorCode,
			&row.DonorName,
			&bloodType,
			&row.DonatedAt,
			&row.VolumeML,
			&row.CenterName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation activity: %w", err)
		}

		row.BloodType = models.BloodType(bloodType)
		activity = append(activity, &row)
	}

	return activity, nil
}
