// Package database_test contains integration tests for the repositories.
// They run only when DATABASE_URL points at a reachable PostgreSQL instance
// with the schema from scripts/init_database.sql applied.
package database_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"blood-donation-engine/internal/models"
	"blood-donation-engine/internal/services/database"
)

var testDB *database.DB

func TestMain(m *testing.M) {
	// Skip integration tests if no database URL is provided
	if os.Getenv("DATABASE_URL") == "" {
		os.Exit(0)
	}

	var err error
	testDB, err = database.NewFromURL(os.Getenv("DATABASE_URL"))
	if err != nil {
		panic("Failed to connect to test database: " + err.Error())
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

// uniqueCode builds codes that survive repeated runs against the same database.
func uniqueCode(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func newTestDonor(code string) *models.DonorCreate {
	return &models.DonorCreate{
		DonorCode:   code,
		Name:        "Integration Donor",
		Email:       code + "@example.com",
		BloodType:   models.BloodTypeOPositive,
		DateOfBirth: time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
		BatchID:     "it-batch",
	}
}

func deleteDonor(ctx context.Context, t *testing.T, id int64) {
	t.Helper()
	if _, err := testDB.ExecContext(ctx, "DELETE FROM donations WHERE donor_id = $1", id); err != nil {
		t.Logf("cleanup donations: %v", err)
	}
	if _, err := testDB.ExecContext(ctx, "DELETE FROM appointments WHERE donor_id = $1", id); err != nil {
		t.Logf("cleanup appointments: %v", err)
	}
	if _, err := testDB.ExecContext(ctx, "DELETE FROM donors WHERE id = $1", id); err != nil {
		t.Logf("cleanup donor: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := testDB.HealthCheck(ctx); err != nil {
		t.Errorf("Health check failed: %v", err)
	}
}

func TestDonorRepository_CreateAndGet(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx := context.Background()
	repo := database.NewDonorRepository(testDB)
	code := uniqueCode("D-IT")

	id, err := repo.Create(ctx, newTestDonor(code))
	if err != nil {
		t.Fatalf("Create donor failed: %v", err)
	}
	defer deleteDonor(ctx, t, id)

	if id == 0 {
		t.Fatal("Donor ID should be set after creation")
	}

	byID, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID == nil || byID.DonorCode != code {
		t.Errorf("GetByID returned wrong donor: %+v", byID)
	}

	byCode, err := repo.GetByDonorCode(ctx, code)
	if err != nil {
		t.Fatalf("GetByDonorCode failed: %v", err)
	}
	if byCode == nil || byCode.ID != id {
		t.Errorf("GetByDonorCode returned wrong donor: %+v", byCode)
	}
}

func TestDonorRepository_GetByID_NotFound(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	repo := database.NewDonorRepository(testDB)

	donor, err := repo.GetByID(context.Background(), -1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if donor != nil {
		t.Errorf("Expected nil for missing donor, got %+v", donor)
	}
}

func TestDonorRepository_UpsertOnDonorCode(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx := context.Background()
	repo := database.NewDonorRepository(testDB)
	code := uniqueCode("D-UP")

	id1, err := repo.Create(ctx, newTestDonor(code))
	if err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	defer deleteDonor(ctx, t, id1)

	// Same donor code with new details must update the existing row
	updated := newTestDonor(code)
	updated.Name = "Renamed Donor"
	updated.BloodType = models.BloodTypeABNegative

	id2, err := repo.Create(ctx, updated)
	if err != nil {
		t.Fatalf("Second create failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("Upsert created a new row: ids %d and %d", id1, id2)
	}

	donor, err := repo.GetByID(ctx, id1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if donor.Name != "Renamed Donor" {
		t.Errorf("Name not updated: got %q", donor.Name)
	}
	if donor.BloodType != models.BloodTypeABNegative {
		t.Errorf("Blood type not updated: got %q", donor.BloodType)
	}
}

func TestDonorRepository_BulkInsert(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx := context.Background()
	repo := database.NewDonorRepository(testDB)
	batchID := uniqueCode("batch")

	donors := []*models.DonorCreate{
		newTestDonor(uniqueCode("D-B1")),
		newTestDonor(uniqueCode("D-B2")),
		newTestDonor(uniqueCode("D-B3")),
	}
	for _, d := range donors {
		d.BatchID = batchID
	}

	result, err := repo.BulkInsert(ctx, donors)
	if err != nil {
		t.Fatalf("BulkInsert failed: %v", err)
	}
	if result.InsertedCount != len(donors) {
		t.Errorf("InsertedCount = %d, want %d", result.InsertedCount, len(donors))
	}
	if result.FailedCount != 0 {
		t.Errorf("FailedCount = %d, want 0: %v", result.FailedCount, result.Errors)
	}

	stored, err := repo.GetByBatchID(ctx, batchID)
	if err != nil {
		t.Fatalf("GetByBatchID failed: %v", err)
	}
	if len(stored) != len(donors) {
		t.Errorf("GetByBatchID returned %d donors, want %d", len(stored), len(donors))
	}

	for _, d := range stored {
		deleteDonor(ctx, t, d.ID)
	}
}

func TestDonorRepository_UpdateDeferralStatus(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx := context.Background()
	repo := database.NewDonorRepository(testDB)

	id, err := repo.Create(ctx, newTestDonor(uniqueCode("D-DF")))
	if err != nil {
		t.Fatalf("Create donor failed: %v", err)
	}
	defer deleteDonor(ctx, t, id)

	until := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.UpdateDeferralStatus(ctx, id, true, false, &until); err != nil {
		t.Fatalf("UpdateDeferralStatus failed: %v", err)
	}

	donor, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !donor.IsDeferredTemporary || donor.IsDeferredPermanent {
		t.Errorf("Deferral flags wrong: temporary=%v permanent=%v", donor.IsDeferredTemporary, donor.IsDeferredPermanent)
	}
	if donor.DeferredUntil == nil || !donor.DeferredUntil.Equal(until) {
		t.Errorf("DeferredUntil = %v, want %v", donor.DeferredUntil, until)
	}

	// Clearing the verdict resets all three columns
	if err := repo.UpdateDeferralStatus(ctx, id, false, false, nil); err != nil {
		t.Fatalf("UpdateDeferralStatus clear failed: %v", err)
	}

	donor, _ = repo.GetByID(ctx, id)
	if donor.IsDeferredTemporary || donor.DeferredUntil != nil {
		t.Errorf("Deferral not cleared: %+v", donor)
	}
}

func TestDonorRepository_UpdateLastDonation_NeverRegresses(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx := context.Background()
	repo := database.NewDonorRepository(testDB)

	id, err := repo.Create(ctx, newTestDonor(uniqueCode("D-LD")))
	if err != nil {
		t.Fatalf("Create donor failed: %v", err)
	}
	defer deleteDonor(ctx, t, id)

	later := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	earlier := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := repo.UpdateLastDonation(ctx, id, later); err != nil {
		t.Fatalf("UpdateLastDonation failed: %v", err)
	}
	if err := repo.UpdateLastDonation(ctx, id, earlier); err != nil {
		t.Fatalf("UpdateLastDonation failed: %v", err)
	}

	donor, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if donor.LastDonationDate == nil || !donor.LastDonationDate.Equal(later) {
		t.Errorf("LastDonationDate = %v, want %v (earlier date must not overwrite)", donor.LastDonationDate, later)
	}
}

func TestAppointmentRepository_Lifecycle(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx := context.Background()
	donorRepo := database.NewDonorRepository(testDB)
	apptRepo := database.NewAppointmentRepository(testDB)

	donorID, err := donorRepo.Create(ctx, newTestDonor(uniqueCode("D-AP")))
	if err != nil {
		t.Fatalf("Create donor failed: %v", err)
	}
	defer deleteDonor(ctx, t, donorID)

	scheduledAt := time.Now().UTC().AddDate(0, 0, 3).Truncate(time.Second)
	code := uniqueCode("CONF")

	id, err := apptRepo.Create(ctx, &models.AppointmentCreate{
		DonorID:     donorID,
		CenterName:  "Central Blood Bank",
		ScheduledAt: scheduledAt,
	}, code)
	if err != nil {
		t.Fatalf("Create appointment failed: %v", err)
	}

	byCode, err := apptRepo.GetByConfirmationCode(ctx, code)
	if err != nil {
		t.Fatalf("GetByConfirmationCode failed: %v", err)
	}
	if byCode == nil || byCode.ID != id {
		t.Fatalf("GetByConfirmationCode returned wrong appointment: %+v", byCode)
	}
	if byCode.Status != models.AppointmentStatusScheduled {
		t.Errorf("New appointment status = %q, want scheduled", byCode.Status)
	}

	byDonor, err := apptRepo.GetByDonorID(ctx, donorID)
	if err != nil {
		t.Fatalf("GetByDonorID failed: %v", err)
	}
	if len(byDonor) != 1 {
		t.Errorf("GetByDonorID returned %d appointments, want 1", len(byDonor))
	}

	now := time.Now().UTC()
	upcoming, err := apptRepo.ListUpcoming(ctx, now, now.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ListUpcoming failed: %v", err)
	}
	found := false
	for _, a := range upcoming {
		if a.ID == id {
			found = true
			break
		}
	}
	if !found {
		t.Error("Appointment should be in the 7 day upcoming window")
	}

	if err := apptRepo.UpdateStatus(ctx, id, models.AppointmentStatusConfirmed); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	confirmed, _ := apptRepo.GetByID(ctx, id)
	if confirmed.Status != models.AppointmentStatusConfirmed {
		t.Errorf("Status = %q, want confirmed", confirmed.Status)
	}
}

func TestDonationRepository_Record(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx := context.Background()
	donorRepo := database.NewDonorRepository(testDB)
	apptRepo := database.NewAppointmentRepository(testDB)
	donationRepo := database.NewDonationRepository(testDB)

	donorID, err := donorRepo.Create(ctx, newTestDonor(uniqueCode("D-DN")))
	if err != nil {
		t.Fatalf("Create donor failed: %v", err)
	}
	defer deleteDonor(ctx, t, donorID)

	donatedAt := time.Now().UTC().Truncate(time.Second)
	apptID, err := apptRepo.Create(ctx, &models.AppointmentCreate{
		DonorID:     donorID,
		CenterName:  "Central Blood Bank",
		ScheduledAt: donatedAt,
	}, uniqueCode("CONF"))
	if err != nil {
		t.Fatalf("Create appointment failed: %v", err)
	}

	id, err := donationRepo.Record(ctx, &models.DonationCreate{
		DonorID:       donorID,
		AppointmentID: &apptID,
		DonatedAt:     donatedAt,
		VolumeML:      models.StandardDonationVolumeML,
		BloodType:     models.BloodTypeOPositive,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Donation ID should be set")
	}

	// The donor's last donation date advances with the recording
	donor, err := donorRepo.GetByID(ctx, donorID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if donor.LastDonationDate == nil || !donor.LastDonationDate.Equal(donatedAt) {
		t.Errorf("LastDonationDate = %v, want %v", donor.LastDonationDate, donatedAt)
	}

	// The linked appointment completes with the recording
	appt, err := apptRepo.GetByID(ctx, apptID)
	if err != nil {
		t.Fatalf("GetByID appointment failed: %v", err)
	}
	if appt.Status != models.AppointmentStatusCompleted {
		t.Errorf("Appointment status = %q, want completed", appt.Status)
	}

	donations, err := donationRepo.ListByDonor(ctx, donorID)
	if err != nil {
		t.Fatalf("ListByDonor failed: %v", err)
	}
	if len(donations) != 1 {
		t.Errorf("ListByDonor returned %d donations, want 1", len(donations))
	}

	count, err := donationRepo.CountSince(ctx, donorID, donatedAt.AddDate(-1, 0, 0))
	if err != nil {
		t.Fatalf("CountSince failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountSince = %d, want 1", count)
	}
}

func TestBloodUnitRepository_StatusFlow(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx := context.Background()
	repo := database.NewBloodUnitRepository(testDB)
	code := uniqueCode("U-IT")

	collectedAt := time.Now().UTC().Truncate(time.Second)
	id, err := repo.Create(ctx, &models.BloodUnitCreate{
		UnitCode:    code,
		BloodType:   models.BloodTypeBNegative,
		VolumeML:    450,
		CollectedAt: collectedAt,
	})
	if err != nil {
		t.Fatalf("Create unit failed: %v", err)
	}
	defer testDB.ExecContext(ctx, "DELETE FROM blood_units WHERE id = $1", id)

	unit, err := repo.GetByUnitCode(ctx, code)
	if err != nil {
		t.Fatalf("GetByUnitCode failed: %v", err)
	}
	if unit.Status != models.BloodUnitStatusAvailable {
		t.Errorf("New unit status = %q, want available", unit.Status)
	}

	wantExpiry := collectedAt.AddDate(0, 0, models.ShelfLifeDays)
	if !unit.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", unit.ExpiresAt, wantExpiry)
	}

	if err := repo.UpdateStatus(ctx, id, models.BloodUnitStatusReserved); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	reserved, _ := repo.GetByID(ctx, id)
	if reserved.Status != models.BloodUnitStatusReserved {
		t.Errorf("Status = %q, want reserved", reserved.Status)
	}
}

func TestBloodUnitRepository_MarkExpired(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx := context.Background()
	repo := database.NewBloodUnitRepository(testDB)
	code := uniqueCode("U-EX")

	// Collected long enough ago that the shelf life has lapsed
	id, err := repo.Create(ctx, &models.BloodUnitCreate{
		UnitCode:    code,
		BloodType:   models.BloodTypeAPositive,
		VolumeML:    450,
		CollectedAt: time.Now().UTC().AddDate(0, 0, -(models.ShelfLifeDays + 5)),
	})
	if err != nil {
		t.Fatalf("Create unit failed: %v", err)
	}
	defer testDB.ExecContext(ctx, "DELETE FROM blood_units WHERE id = $1", id)

	affected, err := repo.MarkExpired(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("MarkExpired failed: %v", err)
	}
	if affected < 1 {
		t.Errorf("MarkExpired affected %d rows, want at least 1", affected)
	}

	unit, _ := repo.GetByID(ctx, id)
	if unit.Status != models.BloodUnitStatusExpired {
		t.Errorf("Status = %q, want expired", unit.Status)
	}
}

func TestBloodRequestRepository_Flow(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}

	ctx := context.Background()
	repo := database.NewBloodRequestRepository(testDB)
	facility := uniqueCode("City Hospital")

	id, err := repo.Create(ctx, &models.BloodRequestCreate{
		FacilityName:   facility,
		ContactEmail:   "lab@cityhospital.example.com",
		BloodType:      models.BloodTypeONegative,
		UnitsRequested: 4,
		Urgency:        models.UrgencyCritical,
	})
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	defer testDB.ExecContext(ctx, "DELETE FROM blood_requests WHERE id = $1", id)

	request, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if request.Status != models.RequestStatusPending {
		t.Errorf("New request status = %q, want pending", request.Status)
	}

	byFacility, err := repo.ListByFacility(ctx, facility)
	if err != nil {
		t.Fatalf("ListByFacility failed: %v", err)
	}
	if len(byFacility) != 1 {
		t.Errorf("ListByFacility returned %d requests, want 1", len(byFacility))
	}

	if err := repo.UpdateStatus(ctx, id, models.RequestStatusApproved); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	approved, _ := repo.GetByID(ctx, id)
	if approved.Status != models.RequestStatusApproved {
		t.Errorf("Status = %q, want approved", approved.Status)
	}
}
