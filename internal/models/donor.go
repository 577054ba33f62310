// Package models defines the data structures for the blood donation engine.
package models

import (
	"time"
)

// BloodType represents the ABO/Rh blood group of a donor or blood unit.
type BloodType string

const (
	BloodTypeAPositive  BloodType = "a+"
	BloodTypeANegative  BloodType = "a-"
	BloodTypeBPositive  BloodType = "b+"
	BloodTypeBNegative  BloodType = "b-"
	BloodTypeABPositive BloodType = "ab+"
	BloodTypeABNegative BloodType = "ab-"
	BloodTypeOPositive  BloodType = "o+"
	BloodTypeONegative  BloodType = "o-"
)

// ValidBloodTypes returns all valid blood type values.
func ValidBloodTypes() []BloodType {
	return []BloodType{
		BloodTypeAPositive,
		BloodTypeANegative,
		BloodTypeBPositive,
		BloodTypeBNegative,
		BloodTypeABPositive,
		BloodTypeABNegative,
		BloodTypeOPositive,
		BloodTypeONegative,
	}
}

// IsValid checks if the blood type is valid.
func (b BloodType) IsValid() bool {
	for _, valid := range ValidBloodTypes() {
		if b == valid {
			return true
		}
	}
	return false
}

// ChronicCondition is a single entry in a donor's chronic condition history.
type ChronicCondition struct {
	Condition string `json:"condition"`
	Notes     string `json:"notes,omitempty"`
}

// Transfusion records a blood transfusion the donor received.
type Transfusion struct {
	Date *time.Time `json:"date,omitempty"`
}

// PregnancyHistory records pregnancy-related history for a donor.
type PregnancyHistory struct {
	HasBeenPregnant   bool       `json:"has_been_pregnant"`
	LastPregnancyDate *time.Time `json:"last_pregnancy_date,omitempty"`
}

// TravelRecord is a single trip in the donor's recent travel history.
type TravelRecord struct {
	Country string    `json:"country"`
	DateTo  time.Time `json:"date_to"`
}

// Lifestyle captures lifestyle factors relevant to donation eligibility.
type Lifestyle struct {
	RecentTattoos   bool           `json:"recent_tattoos,omitempty"`
	RecentPiercings bool           `json:"recent_piercings,omitempty"`
	RecentTravel    []TravelRecord `json:"recent_travel,omitempty"`
}

// MedicalHistory is the structured medical record attached to a donor.
// All fields are optional; absence means "not applicable / no data".
type MedicalHistory struct {
	ChronicConditions  []ChronicCondition `json:"chronic_conditions,omitempty"`
	CurrentMedications []string           `json:"current_medications,omitempty"`
	BloodTransfusions  []Transfusion      `json:"blood_transfusions,omitempty"`
	Pregnancies        *PregnancyHistory  `json:"pregnancies,omitempty"`
	Lifestyle          *Lifestyle         `json:"lifestyle,omitempty"`
}

// Donor represents a registered blood donor.
//
// IsDeferredTemporary/IsDeferredPermanent and DeferredUntil are a cache of the
// most recent eligibility verdict; the eligibility engine never reads them,
// it derives deferral state fresh from the rules on every call.
type Donor struct {
	ID                  int64           `json:"id" db:"id"`
	DonorCode           string          `json:"donor_code" db:"donor_code"`
	Name                string          `json:"name" db:"name"`
	Email               string          `json:"email" db:"email"`
	Phone               string          `json:"phone,omitempty" db:"phone"`
	BloodType           BloodType       `json:"blood_type" db:"blood_type"`
	DateOfBirth         time.Time       `json:"date_of_birth" db:"date_of_birth"`
	LastDonationDate    *time.Time      `json:"last_donation_date,omitempty" db:"last_donation_date"`
	MedicalHistory      *MedicalHistory `json:"medical_history,omitempty" db:"medical_history"`
	IsDeferredTemporary bool            `json:"is_deferred_temporary" db:"is_deferred_temporary"`
	IsDeferredPermanent bool            `json:"is_deferred_permanent" db:"is_deferred_permanent"`
	DeferredUntil       *time.Time      `json:"deferred_until,omitempty" db:"deferred_until"`
	BatchID             string          `json:"batch_id,omitempty" db:"batch_id"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
	IsActive            bool            `json:"is_active" db:"is_active"`
}

// DonorCreate represents the data needed to register a new donor.
type DonorCreate struct {
	DonorCode        string          `json:"donor_code" validate:"required,min=1,max=50"`
	Name             string          `json:"name" validate:"required,min=1,max=200"`
	Email            string          `json:"email" validate:"required,email"`
	Phone            string          `json:"phone,omitempty"`
	BloodType        BloodType       `json:"blood_type" validate:"required"`
	DateOfBirth      time.Time       `json:"date_of_birth" validate:"required"`
	LastDonationDate *time.Time      `json:"last_donation_date,omitempty"`
	MedicalHistory   *MedicalHistory `json:"medical_history,omitempty"`
	BatchID          string          `json:"batch_id,omitempty"`
}

// DonorSummary is a lightweight view of a donor for listing operations.
type DonorSummary struct {
	ID               int64      `json:"id"`
	DonorCode        string     `json:"donor_code"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	BloodType        BloodType  `json:"blood_type"`
	DateOfBirth      time.Time  `json:"date_of_birth"`
	LastDonationDate *time.Time `json:"last_donation_date,omitempty"`
}

// ToSummary converts a Donor to DonorSummary.
func (d *Donor) ToSummary() DonorSummary {
	return DonorSummary{
		ID:               d.ID,
		DonorCode:        d.DonorCode,
		Name:             d.Name,
		Email:            d.Email,
		BloodType:        d.BloodType,
		DateOfBirth:      d.DateOfBirth,
		LastDonationDate: d.LastDonationDate,
	}
}

// BulkInsertResult contains the results of a bulk insert operation.
type BulkInsertResult struct {
	InsertedCount int      `json:"inserted_count"`
	FailedCount   int      `json:"failed_count"`
	Errors        []string `json:"errors,omitempty"`
}

// DonorProfile is the immutable input snapshot consumed by the eligibility
// engine: date of birth, optional medical history, and the profile-held last
// donation date. It carries no persisted deferral flags.
type DonorProfile struct {
	DateOfBirth      time.Time       `json:"date_of_birth"`
	MedicalHistory   *MedicalHistory `json:"medical_history,omitempty"`
	LastDonationDate *time.Time      `json:"last_donation_date,omitempty"`
}

// Profile extracts the eligibility input snapshot from a donor record.
func (d *Donor) Profile() DonorProfile {
	return DonorProfile{
		DateOfBirth:      d.DateOfBirth,
		MedicalHistory:   d.MedicalHistory,
		LastDonationDate: d.LastDonationDate,
	}
}
