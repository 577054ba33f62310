package eligibility

import (
	"strings"
)

// Donation eligibility rule constants for whole blood donations.
const (
	MinDonorAge             = 16
	MaxDonorAge             = 100
	MinDonationIntervalDays = 56

	MedicationDeferralDays    = 30
	PregnancyDeferralWeeks    = 6
	PregnancyDeferralDays     = 42
	TattooDeferralMonths      = 3
	TransfusionDeferralMonths = 12
	TravelDeferralMonths      = 12
)

// PermanentDeferralConditions are lowercase fragments of medical conditions
// that permanently disqualify a donor. Matching is case-insensitive substring
// containment against the donor's stated condition.
var PermanentDeferralConditions = []string{
	"hiv",
	"hepatitis b",
	"hepatitis c",
	"creutzfeldt-jakob",
	"babesiosis",
	"chagas",
	"leishmaniasis",
}

// DeferralMedications are lowercase fragments of medication names that
// trigger a temporary deferral pending medical staff review.
var DeferralMedications = []string{
	"isotretinoin",
	"finasteride",
	"dutasteride",
	"warfarin",
	"heparin",
	"aspirin",
}

// MalariaEndemicCountries are lowercase country names whose recent visitors
// are deferred from donating for twelve months after the trip ends.
var MalariaEndemicCountries = []string{
	"nigeria",
	"ghana",
	"kenya",
	"uganda",
	"tanzania",
	"mozambique",
	"democratic republic of the congo",
	"burkina faso",
	"india",
	"papua new guinea",
}

// containsAny reports whether text contains any of the given lowercase
// keywords, ignoring case.
func containsAny(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
