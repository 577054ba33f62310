package models

import (
	"time"
)

// RequestUrgency represents how quickly a facility needs the requested units.
type RequestUrgency string

const (
	UrgencyRoutine  RequestUrgency = "routine"
	UrgencyUrgent   RequestUrgency = "urgent"
	UrgencyCritical RequestUrgency = "critical"
)

// IsValid checks if the urgency level is valid.
func (u RequestUrgency) IsValid() bool {
	switch u {
	case UrgencyRoutine, UrgencyUrgent, UrgencyCritical:
		return true
	}
	return false
}

// BloodRequestStatus represents the lifecycle state of a facility request.
type BloodRequestStatus string

const (
	RequestStatusPending   BloodRequestStatus = "pending"
	RequestStatusApproved  BloodRequestStatus = "approved"
	RequestStatusFulfilled BloodRequestStatus = "fulfilled"
	RequestStatusRejected  BloodRequestStatus = "rejected"
	RequestStatusCancelled BloodRequestStatus = "cancelled"
)

// IsValid checks if the request status is valid.
func (s BloodRequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved,
		RequestStatusFulfilled, RequestStatusRejected, RequestStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from the current status to the target
// status is allowed. Fulfilled, rejected and cancelled are terminal.
func (s BloodRequestStatus) CanTransitionTo(target BloodRequestStatus) bool {
	switch s {
	case RequestStatusPending:
		return target == RequestStatusApproved ||
			target == RequestStatusRejected ||
			target == RequestStatusCancelled
	case RequestStatusApproved:
		return target == RequestStatusFulfilled ||
			target == RequestStatusCancelled
	}
	return false
}

// BloodRequest represents a facility's request for blood units.
type BloodRequest struct {
	ID             int64              `json:"id" db:"id"`
	FacilityName   string             `json:"facility_name" db:"facility_name"`
	ContactEmail   string             `json:"contact_email" db:"contact_email"`
	BloodType      BloodType          `json:"blood_type" db:"blood_type"`
	UnitsRequested int                `json:"units_requested" db:"units_requested"`
	Urgency        RequestUrgency     `json:"urgency" db:"urgency"`
	Status         BloodRequestStatus `json:"status" db:"status"`
	Notes          string             `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

// BloodRequestCreate represents the data needed to file a new request.
type BloodRequestCreate struct {
	FacilityName   string         `json:"facility_name" validate:"required,min=1,max=200"`
	ContactEmail   string         `json:"contact_email" validate:"required,email"`
	BloodType      BloodType      `json:"blood_type" validate:"required"`
	UnitsRequested int            `json:"units_requested" validate:"required,gt=0"`
	Urgency        RequestUrgency `json:"urgency" validate:"required"`
	Notes          string         `json:"notes,omitempty"`
}
