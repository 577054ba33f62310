package models

import (
	"time"
)

// AppointmentStatus represents the lifecycle state of a donation appointment.
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// IsValid checks if the appointment status is valid.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from the current status to the target
// status is allowed. Completed, cancelled and no-show are terminal.
func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	switch s {
	case AppointmentStatusScheduled:
		return target == AppointmentStatusConfirmed ||
			target == AppointmentStatusCompleted ||
			target == AppointmentStatusCancelled ||
			target == AppointmentStatusNoShow
	case AppointmentStatusConfirmed:
		return target == AppointmentStatusCompleted ||
			target == AppointmentStatusCancelled ||
			target == AppointmentStatusNoShow
	}
	return false
}

// Appointment represents a scheduled blood donation visit.
type Appointment struct {
	ID               int64             `json:"id" db:"id"`
	DonorID          int64             `json:"donor_id" db:"donor_id"`
	CenterName       string            `json:"center_name" db:"center_name"`
	ScheduledAt      time.Time         `json:"scheduled_at" db:"scheduled_at"`
	Status           AppointmentStatus `json:"status" db:"status"`
	ConfirmationCode string            `json:"confirmation_code" db:"confirmation_code"`
	Notes            string            `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// AppointmentCreate represents the data needed to book a new appointment.
type AppointmentCreate struct {
	DonorID     int64     `json:"donor_id" validate:"required"`
	CenterName  string    `json:"center_name" validate:"required,min=1,max=200"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Notes       string    `json:"notes,omitempty"`
}
