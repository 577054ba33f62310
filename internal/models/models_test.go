package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBloodType_IsValid(t *testing.T) {
	tests := []struct {
		bloodType BloodType
		expected  bool
	}{
		{BloodTypeAPositive, true},
		{BloodTypeANegative, true},
		{BloodTypeBPositive, true},
		{BloodTypeBNegative, true},
		{BloodTypeABPositive, true},
		{BloodTypeABNegative, true},
		{BloodTypeOPositive, true},
		{BloodTypeONegative, true},
		{BloodType("A+"), false}, // not normalized
		{BloodType("invalid"), false},
		{BloodType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.bloodType), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.bloodType.IsValid())
		})
	}
}

func TestValidBloodTypes(t *testing.T) {
	types := ValidBloodTypes()
	assert.Len(t, types, 8)
	assert.Contains(t, types, BloodTypeAPositive)
	assert.Contains(t, types, BloodTypeONegative)
	assert.Contains(t, types, BloodTypeABNegative)
}

func TestNormalizeBloodType(t *testing.T) {
	tests := []struct {
		input    string
		expected BloodType
	}{
		{"a+", BloodTypeAPositive},
		{"A+", BloodTypeAPositive},
		{"A Positive", BloodTypeAPositive},
		{"a pos", BloodTypeAPositive},
		{"B-", BloodTypeBNegative},
		{"b neg", BloodTypeBNegative},
		{"AB+", BloodTypeABPositive},
		{"ab positive", BloodTypeABPositive},
		{"O-", BloodTypeONegative},
		{"O NEGATIVE", BloodTypeONegative},
		{" o+ ", BloodTypeOPositive},
		{"opos", BloodTypeOPositive},
		{"unknown", BloodType("unknown")}, // Unknown passes through lowercase
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBloodType(tt.input))
		})
	}
}

func TestAppointmentStatus_IsValid(t *testing.T) {
	tests := []struct {
		status   AppointmentStatus
		expected bool
	}{
		{AppointmentStatusScheduled, true},
		{AppointmentStatusConfirmed, true},
		{AppointmentStatusCompleted, true},
		{AppointmentStatusCancelled, true},
		{AppointmentStatusNoShow, true},
		{AppointmentStatus("invalid"), false},
		{AppointmentStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsValid())
		})
	}
}

func TestAppointmentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     AppointmentStatus
		to       AppointmentStatus
		expected bool
	}{
		{"scheduled to confirmed", AppointmentStatusScheduled, AppointmentStatusConfirmed, true},
		{"scheduled to completed", AppointmentStatusScheduled, AppointmentStatusCompleted, true},
		{"scheduled to cancelled", AppointmentStatusScheduled, AppointmentStatusCancelled, true},
		{"scheduled to no_show", AppointmentStatusScheduled, AppointmentStatusNoShow, true},
		{"confirmed to completed", AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{"confirmed to cancelled", AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{"confirmed back to scheduled", AppointmentStatusConfirmed, AppointmentStatusScheduled, false},
		{"completed is terminal", AppointmentStatusCompleted, AppointmentStatusCancelled, false},
		{"cancelled is terminal", AppointmentStatusCancelled, AppointmentStatusScheduled, false},
		{"no_show is terminal", AppointmentStatusNoShow, AppointmentStatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBloodUnitStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     BloodUnitStatus
		to       BloodUnitStatus
		expected bool
	}{
		{"available to reserved", BloodUnitStatusAvailable, BloodUnitStatusReserved, true},
		{"available to used", BloodUnitStatusAvailable, BloodUnitStatusUsed, true},
		{"available to expired", BloodUnitStatusAvailable, BloodUnitStatusExpired, true},
		{"available to discarded", BloodUnitStatusAvailable, BloodUnitStatusDiscarded, true},
		{"reserved released back", BloodUnitStatusReserved, BloodUnitStatusAvailable, true},
		{"reserved to used", BloodUnitStatusReserved, BloodUnitStatusUsed, true},
		{"used is terminal", BloodUnitStatusUsed, BloodUnitStatusAvailable, false},
		{"expired is terminal", BloodUnitStatusExpired, BloodUnitStatusAvailable, false},
		{"discarded is terminal", BloodUnitStatusDiscarded, BloodUnitStatusReserved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBloodRequestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     BloodRequestStatus
		to       BloodRequestStatus
		expected bool
	}{
		{"pending to approved", RequestStatusPending, RequestStatusApproved, true},
		{"pending to rejected", RequestStatusPending, RequestStatusRejected, true},
		{"pending to cancelled", RequestStatusPending, RequestStatusCancelled, true},
		{"pending straight to fulfilled", RequestStatusPending, RequestStatusFulfilled, false},
		{"approved to fulfilled", RequestStatusApproved, RequestStatusFulfilled, true},
		{"approved to cancelled", RequestStatusApproved, RequestStatusCancelled, true},
		{"approved back to pending", RequestStatusApproved, RequestStatusPending, false},
		{"fulfilled is terminal", RequestStatusFulfilled, RequestStatusApproved, false},
		{"rejected is terminal", RequestStatusRejected, RequestStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRequestUrgency_IsValid(t *testing.T) {
	tests := []struct {
		urgency  RequestUrgency
		expected bool
	}{
		{UrgencyRoutine, true},
		{UrgencyUrgent, true},
		{UrgencyCritical, true},
		{RequestUrgency("asap"), false},
		{RequestUrgency(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.urgency), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.urgency.IsValid())
		})
	}
}

func validDonorCreate() *DonorCreate {
	return &DonorCreate{
		DonorCode:   "D10001",
		Name:        "Test Donor",
		Email:       "donor@example.com",
		BloodType:   BloodTypeOPositive,
		DateOfBirth: time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateDonorCreate_Valid(t *testing.T) {
	err := ValidateDonorCreate(validDonorCreate())
	assert.NoError(t, err)
}

func TestValidateDonorCreate_EmptyDonorCode(t *testing.T) {
	donor := validDonorCreate()
	donor.DonorCode = "  "

	err := ValidateDonorCreate(donor)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyDonorCode)
}

func TestValidateDonorCreate_InvalidEmail(t *testing.T) {
	tests := []string{"", "not-an-email", "@example.com", "donor@", "donor@example"}

	for _, email := range tests {
		t.Run(email, func(t *testing.T) {
			donor := validDonorCreate()
			donor.Email = email

			err := ValidateDonorCreate(donor)
			assert.ErrorIs(t, err, ErrInvalidEmail)
		})
	}
}

func TestValidateDonorCreate_InvalidBloodType(t *testing.T) {
	donor := validDonorCreate()
	donor.BloodType = BloodType("c+")

	err := ValidateDonorCreate(donor)
	assert.ErrorIs(t, err, ErrInvalidBloodType)
}

func TestValidateDonorCreate_InvalidDateOfBirth(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
	}{
		{"zero date", time.Time{}},
		{"in the future", time.Now().AddDate(1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			donor := validDonorCreate()
			donor.DateOfBirth = tt.dob

			err := ValidateDonorCreate(donor)
			assert.ErrorIs(t, err, ErrInvalidDateOfBirth)
		})
	}
}

func TestValidateAppointmentCreate(t *testing.T) {
	valid := AppointmentCreate{
		DonorID:     1,
		CenterName:  "Central Blood Bank",
		ScheduledAt: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
	}

	err := ValidateAppointmentCreate(&valid)
	assert.NoError(t, err)

	missingDonor := valid
	missingDonor.DonorID = 0
	assert.ErrorIs(t, ValidateAppointmentCreate(&missingDonor), ErrInvalidDonorID)

	missingCenter := valid
	missingCenter.CenterName = ""
	assert.ErrorIs(t, ValidateAppointmentCreate(&missingCenter), ErrEmptyCenterName)

	missingTime := valid
	missingTime.ScheduledAt = time.Time{}
	assert.ErrorIs(t, ValidateAppointmentCreate(&missingTime), ErrInvalidScheduledAt)
}

func TestValidateBloodUnitCreate(t *testing.T) {
	valid := BloodUnitCreate{
		UnitCode:    "U-2025-0001",
		BloodType:   BloodTypeAPositive,
		VolumeML:    450,
		CollectedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}

	err := ValidateBloodUnitCreate(&valid)
	assert.NoError(t, err)

	missingCode := valid
	missingCode.UnitCode = ""
	assert.ErrorIs(t, ValidateBloodUnitCreate(&missingCode), ErrEmptyUnitCode)

	badVolume := valid
	badVolume.VolumeML = -10
	assert.ErrorIs(t, ValidateBloodUnitCreate(&badVolume), ErrInvalidVolume)

	missingCollected := valid
	missingCollected.CollectedAt = time.Time{}
	assert.ErrorIs(t, ValidateBloodUnitCreate(&missingCollected), ErrInvalidCollectedAt)
}

func TestValidateBloodRequestCreate(t *testing.T) {
	valid := BloodRequestCreate{
		FacilityName:   "City Hospital",
		ContactEmail:   "lab@cityhospital.example.com",
		BloodType:      BloodTypeONegative,
		UnitsRequested: 4,
		Urgency:        UrgencyUrgent,
	}

	err := ValidateBloodRequestCreate(&valid)
	assert.NoError(t, err)

	missingFacility := valid
	missingFacility.FacilityName = " "
	assert.ErrorIs(t, ValidateBloodRequestCreate(&missingFacility), ErrEmptyFacilityName)

	badUnits := valid
	badUnits.UnitsRequested = 0
	assert.ErrorIs(t, ValidateBloodRequestCreate(&badUnits), ErrInvalidUnitsRequested)

	badUrgency := valid
	badUrgency.Urgency = RequestUrgency("whenever")
	assert.ErrorIs(t, ValidateBloodRequestCreate(&badUrgency), ErrInvalidUrgency)
}

func TestValidateDonationCreate(t *testing.T) {
	valid := DonationCreate{
		DonorID:   1,
		DonatedAt: time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		VolumeML:  StandardDonationVolumeML,
		BloodType: BloodTypeBPositive,
	}

	err := ValidateDonationCreate(&valid)
	assert.NoError(t, err)

	missingDonor := valid
	missingDonor.DonorID = -1
	assert.ErrorIs(t, ValidateDonationCreate(&missingDonor), ErrInvalidDonorID)

	missingTime := valid
	missingTime.DonatedAt = time.Time{}
	assert.ErrorIs(t, ValidateDonationCreate(&missingTime), ErrInvalidDonatedAt)

	badVolume := valid
	badVolume.VolumeML = 0
	assert.ErrorIs(t, ValidateDonationCreate(&badVolume), ErrInvalidVolume)
}

func TestDonor_ToSummary(t *testing.T) {
	lastDonation := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	donor := &Donor{
		ID:               1,
		DonorCode:        "D10001",
		Name:             "Test Donor",
		Email:            "donor@example.com",
		Phone:            "+91-98100-11001",
		BloodType:        BloodTypeOPositive,
		DateOfBirth:      time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
		LastDonationDate: &lastDonation,
	}

	summary := donor.ToSummary()

	assert.Equal(t, donor.ID, summary.ID)
	assert.Equal(t, donor.DonorCode, summary.DonorCode)
	assert.Equal(t, donor.Name, summary.Name)
	assert.Equal(t, donor.Email, summary.Email)
	assert.Equal(t, donor.BloodType, summary.BloodType)
	assert.Equal(t, donor.DateOfBirth, summary.DateOfBirth)
	assert.Equal(t, donor.LastDonationDate, summary.LastDonationDate)
}

func TestDonor_Profile(t *testing.T) {
	lastDonation := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	history := &MedicalHistory{
		CurrentMedications: []string{"antibiotics"},
	}
	donor := &Donor{
		ID:                  7,
		DateOfBirth:         time.Date(1985, 11, 2, 0, 0, 0, 0, time.UTC),
		LastDonationDate:    &lastDonation,
		MedicalHistory:      history,
		IsDeferredTemporary: true, // cached flag, must not leak into the profile
	}

	profile := donor.Profile()

	assert.Equal(t, donor.DateOfBirth, profile.DateOfBirth)
	assert.Equal(t, donor.LastDonationDate, profile.LastDonationDate)
	assert.Equal(t, history, profile.MedicalHistory)
}

func TestBloodUnit_IsExpired(t *testing.T) {
	unit := &BloodUnit{
		CollectedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ExpiresAt:   time.Date(2025, 7, 13, 0, 0, 0, 0, time.UTC),
	}

	assert.False(t, unit.IsExpired(time.Date(2025, 7, 13, 0, 0, 0, 0, time.UTC)))
	assert.True(t, unit.IsExpired(time.Date(2025, 7, 13, 0, 0, 1, 0, time.UTC)))
}
