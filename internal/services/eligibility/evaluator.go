// Package eligibility implements the donor eligibility rule engine.
//
// All checks are pure functions of the donor profile and an injected
// reference date: no I/O, no clock reads, no cached deferral state. Rules
// run in a fixed order and never short-circuit, so a single pass records
// every applicable deferral.
package eligibility

import (
	"fmt"
	"time"

	"blood-donation-engine/internal/models"
)

// Check evaluates every donation eligibility rule against the profile and
// returns the accumulated verdict. Rule order is age, donation interval,
// then medical history (chronic conditions, medications, transfusions,
// pregnancy, tattoos/piercings, travel).
//
// lastDonationOverride, when non-nil, takes precedence over the profile's
// own last donation date. The reference date is injected so callers can
// evaluate eligibility as of any date.
func Check(profile models.DonorProfile, lastDonationOverride *time.Time, at time.Time) (*models.EligibilityCheckResult, error) {
	if profile.DateOfBirth.IsZero() {
		return nil, models.ErrInvalidDateOfBirth
	}

	result := &models.EligibilityCheckResult{
		IsEligible:         true,
		Reasons:            []string{},
		TemporaryDeferrals: []models.TemporaryDeferral{},
		PermanentDeferrals: []models.PermanentDeferral{},
	}

	checkAge(profile.DateOfBirth, at, result)

	lastDonation := profile.LastDonationDate
	if lastDonationOverride != nil {
		lastDonation = lastDonationOverride
	}
	if lastDonation != nil {
		checkDonationInterval(*lastDonation, at, result)
	}

	if profile.MedicalHistory != nil {
		checkMedicalHistory(profile.MedicalHistory, at, result)
	}

	return result, nil
}

// Summary runs a full check and condenses the verdict into a donor-facing
// status and message.
func Summary(profile models.DonorProfile, lastDonationOverride *time.Time, at time.Time) (*models.EligibilitySummary, error) {
	result, err := Check(profile, lastDonationOverride, at)
	if err != nil {
		return nil, err
	}
	return Summarize(result), nil
}

// Summarize condenses a check result into a status and message. Permanent
// deferrals take priority over temporary ones; an ineligible result with no
// deferral entries (for example an underage donor) falls back to a generic
// consult-staff message without a next eligible date.
func Summarize(result *models.EligibilityCheckResult) *models.EligibilitySummary {
	if result.IsEligible {
		return &models.EligibilitySummary{
			Status:  models.StatusEligible,
			Message: "You are eligible to donate blood!",
		}
	}

	if len(result.PermanentDeferrals) > 0 {
		return &models.EligibilitySummary{
			Status:  models.StatusPermanentlyDeferred,
			Message: "You are permanently deferred from donating: " + result.PermanentDeferrals[0].Reason,
		}
	}

	if len(result.TemporaryDeferrals) > 0 {
		until := earliestUntil(result.TemporaryDeferrals)
		return &models.EligibilitySummary{
			Status:           models.StatusTemporarilyDeferred,
			Message:          "You are temporarily deferred: " + result.Reasons[0],
			NextEligibleDate: &until,
		}
	}

	return &models.EligibilitySummary{
		Status:  models.StatusTemporarilyDeferred,
		Message: "Please consult with medical staff about your eligibility",
	}
}

// NextEligibleDate returns the earliest date a donor may donate again after
// a whole blood donation.
func NextEligibleDate(lastDonation time.Time) time.Time {
	return lastDonation.AddDate(0, 0, MinDonationIntervalDays)
}

// IsEligibleToday runs a full check against the current time and reports
// only the boolean outcome.
func IsEligibleToday(profile models.DonorProfile, lastDonationOverride *time.Time) (bool, error) {
	result, err := Check(profile, lastDonationOverride, time.Now())
	if err != nil {
		return false, err
	}
	return result.IsEligible, nil
}

// checkAge enforces the minimum and maximum donor age. Donors under the
// minimum get a next eligible date on their qualifying birthday; donors over
// the maximum are permanently deferred.
func checkAge(dateOfBirth, at time.Time, result *models.EligibilityCheckResult) {
	age := ageInYears(dateOfBirth, at)

	if age < MinDonorAge {
		result.IsEligible = false
		result.Reasons = append(result.Reasons, fmt.Sprintf("Must be at least %d years old", MinDonorAge))
		next := dateOfBirth.AddDate(MinDonorAge, 0, 0)
		result.NextEligibleDate = &next
	}

	if age > MaxDonorAge {
		result.IsEligible = false
		result.Reasons = append(result.Reasons, "Age limit exceeded")
		result.PermanentDeferrals = append(result.PermanentDeferrals, models.PermanentDeferral{
			Reason: fmt.Sprintf("Age limit exceeded (maximum %d years)", MaxDonorAge),
		})
	}
}

// checkDonationInterval enforces the minimum gap between whole blood
// donations. When it fires it overwrites any next eligible date set by the
// age check.
func checkDonationInterval(lastDonation, at time.Time, result *models.EligibilityCheckResult) {
	elapsed := daysBetweenCeil(lastDonation, at)
	if elapsed >= MinDonationIntervalDays {
		return
	}

	result.IsEligible = false
	next := lastDonation.AddDate(0, 0, MinDonationIntervalDays)
	result.NextEligibleDate = &next
	result.TemporaryDeferrals = append(result.TemporaryDeferrals, models.TemporaryDeferral{
		Reason: "Minimum interval between donations not met",
		Until:  next,
		Notes:  fmt.Sprintf("Must wait %d days between whole blood donations", MinDonationIntervalDays),
	})
	result.Reasons = append(result.Reasons,
		fmt.Sprintf("Must wait %d more days since last donation", MinDonationIntervalDays-elapsed))
}

// checkMedicalHistory runs the medical history rules in a fixed order.
func checkMedicalHistory(history *models.MedicalHistory, at time.Time, result *models.EligibilityCheckResult) {
	checkChronicConditions(history.ChronicConditions, result)
	checkMedications(history.CurrentMedications, at, result)
	checkTransfusions(history.BloodTransfusions, at, result)
	checkPregnancy(history.Pregnancies, at, result)
	checkLifestyle(history.Lifestyle, at, result)
}

// checkChronicConditions permanently defers donors whose stated conditions
// match the disqualifying condition list. Each matching condition adds its
// own deferral entry.
func checkChronicConditions(conditions []models.ChronicCondition, result *models.EligibilityCheckResult) {
	for _, condition := range conditions {
		if !containsAny(condition.Condition, PermanentDeferralConditions) {
			continue
		}

		result.IsEligible = false
		reason := "Medical condition: " + condition.Condition
		result.Reasons = append(result.Reasons, reason)
		result.PermanentDeferrals = append(result.PermanentDeferrals, models.PermanentDeferral{
			Reason: reason,
			Notes:  condition.Notes,
		})
	}
}

// checkMedications temporarily defers donors taking medications on the
// deferral list. Each matching medication adds its own deferral entry.
func checkMedications(medications []string, at time.Time, result *models.EligibilityCheckResult) {
	for _, medication := range medications {
		if !containsAny(medication, DeferralMedications) {
			continue
		}

		result.IsEligible = false
		result.TemporaryDeferrals = append(result.TemporaryDeferrals, models.TemporaryDeferral{
			Reason: "Current medication: " + medication,
			Until:  at.AddDate(0, 0, MedicationDeferralDays),
			Notes:  "Consult with medical staff about medication deferral period",
		})
		result.Reasons = append(result.Reasons, "Current medication may affect eligibility: "+medication)
	}
}

// checkTransfusions temporarily defers donors transfused within the deferral
// window. Only the first qualifying transfusion, in list order, creates a
// deferral; entries without a date are skipped.
func checkTransfusions(transfusions []models.Transfusion, at time.Time, result *models.EligibilityCheckResult) {
	for _, transfusion := range transfusions {
		if transfusion.Date == nil {
			continue
		}
		if monthsBetween(*transfusion.Date, at) >= TransfusionDeferralMonths {
			continue
		}

		result.IsEligible = false
		result.TemporaryDeferrals = append(result.TemporaryDeferrals, models.TemporaryDeferral{
			Reason: "Recent blood transfusion",
			Until:  transfusion.Date.AddDate(0, TransfusionDeferralMonths, 0),
			Notes:  fmt.Sprintf("Must wait %d months after blood transfusion", TransfusionDeferralMonths),
		})
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("Recent blood transfusion - must wait %d months", TransfusionDeferralMonths))
		break
	}
}

// checkPregnancy temporarily defers donors whose last pregnancy ended within
// the deferral window. Requires both the pregnancy flag and a date.
func checkPregnancy(pregnancies *models.PregnancyHistory, at time.Time, result *models.EligibilityCheckResult) {
	if pregnancies == nil || !pregnancies.HasBeenPregnant || pregnancies.LastPregnancyDate == nil {
		return
	}

	weeks := weeksSince(*pregnancies.LastPregnancyDate, at)
	if weeks >= PregnancyDeferralWeeks {
		return
	}

	result.IsEligible = false
	result.TemporaryDeferrals = append(result.TemporaryDeferrals, models.TemporaryDeferral{
		Reason: "Recent pregnancy",
		Until:  pregnancies.LastPregnancyDate.AddDate(0, 0, PregnancyDeferralDays),
		Notes:  fmt.Sprintf("Must wait %d weeks after pregnancy", PregnancyDeferralWeeks),
	})
	result.Reasons = append(result.Reasons,
		fmt.Sprintf("Recent pregnancy - must wait %d more weeks", PregnancyDeferralWeeks-weeks))
}

// checkLifestyle handles tattoo/piercing and travel deferrals. The deferral
// for tattoos and piercings is anchored on the reference date since only a
// boolean flag is collected. Only the first qualifying trip, in list order,
// creates a travel deferral.
func checkLifestyle(lifestyle *models.Lifestyle, at time.Time, result *models.EligibilityCheckResult) {
	if lifestyle == nil {
		return
	}

	if lifestyle.RecentTattoos || lifestyle.RecentPiercings {
		result.IsEligible = false
		result.TemporaryDeferrals = append(result.TemporaryDeferrals, models.TemporaryDeferral{
			Reason: "Recent tattoo or piercing",
			Until:  at.AddDate(0, TattooDeferralMonths, 0),
			Notes:  fmt.Sprintf("Must wait %d months after tattoo or piercing", TattooDeferralMonths),
		})
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("Recent tattoo/piercing - must wait %d months", TattooDeferralMonths))
	}

	for _, trip := range lifestyle.RecentTravel {
		if !containsAny(trip.Country, MalariaEndemicCountries) {
			continue
		}
		if monthsBetween(trip.DateTo, at) >= TravelDeferralMonths {
			continue
		}

		result.IsEligible = false
		result.TemporaryDeferrals = append(result.TemporaryDeferrals, models.TemporaryDeferral{
			Reason: "Recent travel to " + trip.Country,
			Until:  trip.DateTo.AddDate(0, TravelDeferralMonths, 0),
			Notes:  "Travel to malaria-endemic area requires 12-month deferral",
		})
		result.Reasons = append(result.Reasons, "Recent travel to high-risk area: "+trip.Country)
		break
	}
}

// earliestUntil returns the soonest expiry among temporary deferrals.
func earliestUntil(deferrals []models.TemporaryDeferral) time.Time {
	earliest := deferrals[0].Until
	for _, d := range deferrals[1:] {
		if d.Until.Before(earliest) {
			earliest = d.Until
		}
	}
	return earliest
}
