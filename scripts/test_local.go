//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"blood-donation-engine/internal/models"
	"blood-donation-engine/internal/services/eligibility"
	"blood-donation-engine/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("=== Blood Donation Engine - Local Test ===")
	fmt.Println()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Connect to database
	databaseURL := os.Getenv("DATABASE_URL")
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)
	fmt.Println("✅ Connected to database")

	// Parse sample CSV
	fmt.Println()
	fmt.Println("📖 Parsing sample CSV...")

	csvContent, err := os.ReadFile("data/sample_donors.csv")
	if err != nil {
		fmt.Printf("❌ Failed to read CSV: %v\n", err)
		os.Exit(1)
	}

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(string(csvContent), "test-batch-001")
	if len(errors) > 0 {
		fmt.Printf("⚠️  CSV parsing errors: %v\n", errors)
	}
	fmt.Printf("✅ Parsed %d donors from CSV\n", len(donors))

	// Insert donors into database
	fmt.Println()
	fmt.Println("📥 Inserting donors into database...")

	for _, donor := range donors {
		_, err := conn.Exec(ctx, `
			INSERT INTO donors (donor_code, name, email, phone, blood_type, date_of_birth, last_donation_date, batch_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (donor_code) DO UPDATE SET
				name = EXCLUDED.name,
				email = EXCLUDED.email,
				phone = EXCLUDED.phone,
				blood_type = EXCLUDED.blood_type,
				date_of_birth = EXCLUDED.date_of_birth,
				last_donation_date = EXCLUDED.last_donation_date,
				updated_at = CURRENT_TIMESTAMP
		`, donor.DonorCode, donor.Name, donor.Email, donor.Phone, string(donor.BloodType), donor.DateOfBirth, donor.LastDonationDate, donor.BatchID)
		if err != nil {
			fmt.Printf("   ⚠️  Error inserting donor %s: %v\n", donor.DonorCode, err)
		}
	}
	fmt.Println("✅ Donors inserted!")

	// Count donors
	var donorCount int
	conn.QueryRow(ctx, "SELECT COUNT(*) FROM donors").Scan(&donorCount)
	fmt.Printf("   📊 Total donors in database: %d\n", donorCount)

	// Run eligibility checks over the batch
	fmt.Println()
	fmt.Println("🎯 Running eligibility checks...")

	now := time.Now().UTC()
	eligibleCount := 0
	tempDeferred := 0
	permDeferred := 0

	for _, donor := range donors {
		profile := models.DonorProfile{
			DateOfBirth:      donor.DateOfBirth,
			MedicalHistory:   donor.MedicalHistory,
			LastDonationDate: donor.LastDonationDate,
		}

		summary, err := eligibility.Summary(profile, nil, now)
		if err != nil {
			fmt.Printf("   ⚠️  Error checking donor %s: %v\n", donor.DonorCode, err)
			continue
		}

		switch summary.Status {
		case models.StatusEligible:
			eligibleCount++
			fmt.Printf("👤 %s: ✓ eligible\n", donor.DonorCode)
		case models.StatusTemporarilyDeferred:
			tempDeferred++
			if summary.NextEligibleDate != nil {
				fmt.Printf("👤 %s: ✗ deferred until %s\n", donor.DonorCode, summary.NextEligibleDate.Format("2006-01-02"))
			} else {
				fmt.Printf("👤 %s: ✗ temporarily deferred\n", donor.DonorCode)
			}
		case models.StatusPermanentlyDeferred:
			permDeferred++
			fmt.Printf("👤 %s: ✗ permanently deferred\n", donor.DonorCode)
		}

		// Cache the verdict on the donor row
		temporary := summary.Status == models.StatusTemporarilyDeferred
		permanent := summary.Status == models.StatusPermanentlyDeferred

		_, err = conn.Exec(ctx, `
			UPDATE donors
			SET is_deferred_temporary = $2, is_deferred_permanent = $3, deferred_until = $4, updated_at = CURRENT_TIMESTAMP
			WHERE donor_code = $1
		`, donor.DonorCode, temporary, permanent, summary.NextEligibleDate)
		if err != nil {
			fmt.Printf("   ⚠️  Error caching verdict for %s: %v\n", donor.DonorCode, err)
		}
	}

	fmt.Println()
	fmt.Printf("🎉 Checked %d donors!\n", len(donors))

	// Summary
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════")
	fmt.Println("              TEST COMPLETE")
	fmt.Println("═══════════════════════════════════════════")

	var totalDonors, totalAppointments, totalUnits int
	conn.QueryRow(ctx, "SELECT COUNT(*) FROM donors").Scan(&totalDonors)
	conn.QueryRow(ctx, "SELECT COUNT(*) FROM appointments").Scan(&totalAppointments)
	conn.QueryRow(ctx, "SELECT COUNT(*) FROM blood_units").Scan(&totalUnits)

	fmt.Printf("📊 Donors:       %d\n", totalDonors)
	fmt.Printf("📅 Appointments: %d\n", totalAppointments)
	fmt.Printf("🩸 Blood units:  %d\n", totalUnits)
	fmt.Printf("✓  Eligible:     %d\n", eligibleCount)
	fmt.Printf("⏳ Temporary:    %d\n", tempDeferred)
	fmt.Printf("⛔ Permanent:    %d\n", permDeferred)
	fmt.Println("═══════════════════════════════════════════")
}
