package models

import (
	"time"
)

// EligibilityStatus represents the summarized outcome of an eligibility check.
type EligibilityStatus string

const (
	StatusEligible            EligibilityStatus = "eligible"
	StatusTemporarilyDeferred EligibilityStatus = "temporarily_deferred"
	StatusPermanentlyDeferred EligibilityStatus = "permanently_deferred"
)

// IsValid checks if the eligibility status is valid.
func (s EligibilityStatus) IsValid() bool {
	switch s {
	case StatusEligible, StatusTemporarilyDeferred, StatusPermanentlyDeferred:
		return true
	}
	return false
}

// TemporaryDeferral is a time-bounded block on donating.
type TemporaryDeferral struct {
	Reason string    `json:"reason"`
	Until  time.Time `json:"until"`
	Notes  string    `json:"notes,omitempty"`
}

// PermanentDeferral is an indefinite block on donating.
type PermanentDeferral struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes,omitempty"`
}

// EligibilityCheckResult is the full verdict produced by the eligibility
// engine. Reasons holds one human-readable entry per triggered rule, in rule
// evaluation order. A donor accumulates every applicable deferral in a single
// pass; the first failed rule never hides later ones.
type EligibilityCheckResult struct {
	IsEligible         bool                `json:"is_eligible"`
	Reasons            []string            `json:"reasons"`
	NextEligibleDate   *time.Time          `json:"next_eligible_date,omitempty"`
	TemporaryDeferrals []TemporaryDeferral `json:"temporary_deferrals"`
	PermanentDeferrals []PermanentDeferral `json:"permanent_deferrals"`
}

// EligibilitySummary is the condensed, donor-facing form of a check result.
type EligibilitySummary struct {
	Status           EligibilityStatus `json:"status"`
	Message          string            `json:"message"`
	NextEligibleDate *time.Time        `json:"next_eligible_date,omitempty"`
}
