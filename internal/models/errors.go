package models

import (
	"errors"
	"strings"
	"time"
)

// Common errors
var (
	ErrInvalidBloodType        = errors.New("invalid blood type")
	ErrInvalidDateOfBirth      = errors.New("date of birth must be a valid past date")
	ErrInvalidEmail            = errors.New("invalid email address")
	ErrEmptyDonorCode          = errors.New("donor_code cannot be empty")
	ErrEmptyName               = errors.New("name cannot be empty")
	ErrEmptyCenterName         = errors.New("center_name cannot be empty")
	ErrEmptyUnitCode           = errors.New("unit_code cannot be empty")
	ErrEmptyFacilityName       = errors.New("facility_name cannot be empty")
	ErrInvalidDonorID          = errors.New("donor_id must be positive")
	ErrInvalidVolume           = errors.New("volume_ml must be positive")
	ErrInvalidUnitsRequested   = errors.New("units_requested must be positive")
	ErrInvalidUrgency          = errors.New("invalid urgency level")
	ErrInvalidScheduledAt      = errors.New("scheduled_at cannot be empty")
	ErrInvalidDonatedAt        = errors.New("donated_at cannot be empty")
	ErrInvalidCollectedAt      = errors.New("collected_at cannot be empty")
	ErrInvalidStatus           = errors.New("invalid status value")
	ErrInvalidStatusTransition = errors.New("status transition not allowed")
)

// NormalizeBloodType converts various blood type spellings to standard values.
func NormalizeBloodType(raw string) BloodType {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	// Map common variations
	typeMap := map[string]BloodType{
		"a+":          BloodTypeAPositive,
		"a positive":  BloodTypeAPositive,
		"a pos":       BloodTypeAPositive,
		"apos":        BloodTypeAPositive,
		"a-":          BloodTypeANegative,
		"a negative":  BloodTypeANegative,
		"a neg":       BloodTypeANegative,
		"aneg":        BloodTypeANegative,
		"b+":          BloodTypeBPositive,
		"b positive":  BloodTypeBPositive,
		"b pos":       BloodTypeBPositive,
		"bpos":        BloodTypeBPositive,
		"b-":          BloodTypeBNegative,
		"b negative":  BloodTypeBNegative,
		"b neg":       BloodTypeBNegative,
		"bneg":        BloodTypeBNegative,
		"ab+":         BloodTypeABPositive,
		"ab positive": BloodTypeABPositive,
		"ab pos":      BloodTypeABPositive,
		"abpos":       BloodTypeABPositive,
		"ab-":         BloodTypeABNegative,
		"ab negative": BloodTypeABNegative,
		"ab neg":      BloodTypeABNegative,
		"abneg":       BloodTypeABNegative,
		"o+":          BloodTypeOPositive,
		"o positive":  BloodTypeOPositive,
		"o pos":       BloodTypeOPositive,
		"opos":        BloodTypeOPositive,
		"o-":          BloodTypeONegative,
		"o negative":  BloodTypeONegative,
		"o neg":       BloodTypeONegative,
		"oneg":        BloodTypeONegative,
	}

	if mapped, ok := typeMap[normalized]; ok {
		return mapped
	}

	// Return as-is if no mapping found (will fail validation)
	return BloodType(normalized)
}

// ValidateDonorCreate validates donor registration data.
func ValidateDonorCreate(d *DonorCreate) error {
	if strings.TrimSpace(d.DonorCode) == "" {
		return ErrEmptyDonorCode
	}

	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}

	if !isValidEmail(d.Email) {
		return ErrInvalidEmail
	}

	if !d.BloodType.IsValid() {
		return ErrInvalidBloodType
	}

	if d.DateOfBirth.IsZero() || d.DateOfBirth.After(time.Now()) {
		return ErrInvalidDateOfBirth
	}

	return nil
}

// ValidateAppointmentCreate validates appointment booking data.
func ValidateAppointmentCreate(a *AppointmentCreate) error {
	if a.DonorID <= 0 {
		return ErrInvalidDonorID
	}

	if strings.TrimSpace(a.CenterName) == "" {
		return ErrEmptyCenterName
	}

	if a.ScheduledAt.IsZero() {
		return ErrInvalidScheduledAt
	}

	return nil
}

// ValidateBloodUnitCreate validates blood unit registration data.
func ValidateBloodUnitCreate(u *BloodUnitCreate) error {
	if strings.TrimSpace(u.UnitCode) == "" {
		return ErrEmptyUnitCode
	}

	if !u.BloodType.IsValid() {
		return ErrInvalidBloodType
	}

	if u.VolumeML <= 0 {
		return ErrInvalidVolume
	}

	if u.CollectedAt.IsZero() {
		return ErrInvalidCollectedAt
	}

	return nil
}

// ValidateBloodRequestCreate validates facility request data.
func ValidateBloodRequestCreate(r *BloodRequestCreate) error {
	if strings.TrimSpace(r.FacilityName) == "" {
		return ErrEmptyFacilityName
	}

	if !isValidEmail(r.ContactEmail) {
		return ErrInvalidEmail
	}

	if !r.BloodType.IsValid() {
		return ErrInvalidBloodType
	}

	if r.UnitsRequested <= 0 {
		return ErrInvalidUnitsRequested
	}

	if !r.Urgency.IsValid() {
		return ErrInvalidUrgency
	}

	return nil
}

// ValidateDonationCreate validates donation record data.
func ValidateDonationCreate(d *DonationCreate) error {
	if d.DonorID <= 0 {
		return ErrInvalidDonorID
	}

	if d.DonatedAt.IsZero() {
		return ErrInvalidDonatedAt
	}

	if d.VolumeML <= 0 {
		return ErrInvalidVolume
	}

	if !d.BloodType.IsValid() {
		return ErrInvalidBloodType
	}

	return nil
}

// isValidEmail performs basic email validation.
func isValidEmail(email string) bool {
	if email == "" {
		return false
	}

	// Basic check: must contain @ and have content before and after
	atIndex := strings.Index(email, "@")
	if atIndex <= 0 || atIndex == len(email)-1 {
		return false
	}

	// Must have a dot after @
	dotIndex := strings.LastIndex(email, ".")
	if dotIndex <= atIndex+1 || dotIndex == len(email)-1 {
		return false
	}

	return true
}
