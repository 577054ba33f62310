package models

import (
	"time"
)

// StandardDonationVolumeML is the default whole blood draw volume.
const StandardDonationVolumeML = 450

// Donation represents a completed blood donation.
type Donation struct {
	ID            int64     `json:"id" db:"id"`
	DonorID       int64     `json:"donor_id" db:"donor_id"`
	AppointmentID *int64    `json:"appointment_id,omitempty" db:"appointment_id"`
	DonatedAt     time.Time `json:"donated_at" db:"donated_at"`
	VolumeML      int       `json:"volume_ml" db:"volume_ml"`
	BloodType     BloodType `json:"blood_type" db:"blood_type"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// DonationCreate represents the data needed to record a completed donation.
type DonationCreate struct {
	DonorID       int64     `json:"donor_id" validate:"required"`
	AppointmentID *int64    `json:"appointment_id,omitempty"`
	DonatedAt     time.Time `json:"donated_at" validate:"required"`
	VolumeML      int       `json:"volume_ml" validate:"required,gt=0"`
	BloodType     BloodType `json:"blood_type" validate:"required"`
}

// DonationActivity is one row of the donation activity report: a donation
// joined with its donor's identity.
type DonationActivity struct {
	DonationID int64     `json:"donation_id"`
	DonorCode  string    `json:"donor_code"`
	DonorName  string    `json:"donor_name"`
	BloodType  BloodType `json:"blood_type"`
	DonatedAt  time.Time `json:"donated_at"`
	VolumeML   int       `json:"volume_ml"`
	CenterName string    `json:"center_name,omitempty"`
}
