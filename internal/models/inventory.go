package models

import (
	"time"
)

// BloodUnitStatus represents the lifecycle state of a stored blood unit.
type BloodUnitStatus string

const (
	BloodUnitStatusAvailable BloodUnitStatus = "available"
	BloodUnitStatusReserved  BloodUnitStatus = "reserved"
	BloodUnitStatusUsed      BloodUnitStatus = "used"
	BloodUnitStatusExpired   BloodUnitStatus = "expired"
	BloodUnitStatusDiscarded BloodUnitStatus = "discarded"
)

// IsValid checks if the blood unit status is valid.
func (s BloodUnitStatus) IsValid() bool {
	switch s {
	case BloodUnitStatusAvailable, BloodUnitStatusReserved,
		BloodUnitStatusUsed, BloodUnitStatusExpired, BloodUnitStatusDiscarded:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from the current status to the target
// status is allowed. Used, expired and discarded are terminal; a reserved unit
// can be released back to available.
func (s BloodUnitStatus) CanTransitionTo(target BloodUnitStatus) bool {
	switch s {
	case BloodUnitStatusAvailable:
		return target == BloodUnitStatusReserved ||
			target == BloodUnitStatusUsed ||
			target == BloodUnitStatusExpired ||
			target == BloodUnitStatusDiscarded
	case BloodUnitStatusReserved:
		return target == BloodUnitStatusAvailable ||
			target == BloodUnitStatusUsed ||
			target == BloodUnitStatusExpired ||
			target == BloodUnitStatusDiscarded
	}
	return false
}

// ShelfLifeDays is how long a whole blood unit stays usable after collection.
const ShelfLifeDays = 42

// BloodUnit represents a single collected unit in the blood bank inventory.
type BloodUnit struct {
	ID          int64           `json:"id" db:"id"`
	UnitCode    string          `json:"unit_code" db:"unit_code"`
	BloodType   BloodType       `json:"blood_type" db:"blood_type"`
	VolumeML    int             `json:"volume_ml" db:"volume_ml"`
	CollectedAt time.Time       `json:"collected_at" db:"collected_at"`
	ExpiresAt   time.Time       `json:"expires_at" db:"expires_at"`
	Status      BloodUnitStatus `json:"status" db:"status"`
	DonationID  *int64          `json:"donation_id,omitempty" db:"donation_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the unit has passed its expiry date.
func (u *BloodUnit) IsExpired(at time.Time) bool {
	return at.After(u.ExpiresAt)
}

// BloodUnitCreate represents the data needed to register a collected unit.
type BloodUnitCreate struct {
	UnitCode    string    `json:"unit_code" validate:"required,min=1,max=50"`
	BloodType   BloodType `json:"blood_type" validate:"required"`
	VolumeML    int       `json:"volume_ml" validate:"required,gt=0"`
	CollectedAt time.Time `json:"collected_at" validate:"required"`
	DonationID  *int64    `json:"donation_id,omitempty"`
}

// InventoryLevel aggregates unit counts for one blood type.
type InventoryLevel struct {
	BloodType     BloodType `json:"blood_type"`
	Available     int       `json:"available"`
	Reserved      int       `json:"reserved"`
	TotalVolumeML int64     `json:"total_volume_ml"`
}
