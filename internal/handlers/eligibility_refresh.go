// Package handlers provides Lambda handlers for the blood donation engine.
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"

	appConfig "blood-donation-engine/internal/config"
	"blood-donation-engine/internal/models"
	"blood-donation-engine/internal/services/database"
	"blood-donation-engine/internal/services/eligibility"
	sesservice "blood-donation-engine/internal/services/ses"
	"blood-donation-engine/internal/utils"
)

// EligibilityRefreshHandler re-runs the eligibility rules for every active donor
// on a schedule and keeps the cached deferral flags in sync with the verdicts.
type EligibilityRefreshHandler struct {
	db               *database.DB
	donorRepo        *database.DonorRepository
	appointmentRepo  *database.AppointmentRepository
	unitRepo         *database.BloodUnitRepository
	email            *sesservice.Service
	reminderLeadDays int
}

// NewEligibilityRefreshHandler creates a new eligibility refresh handler.
func NewEligibilityRefreshHandler() (*EligibilityRefreshHandler, error) {
	cfg, err := appConfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load app config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	email, err := sesservice.NewService(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SES service: %w", err)
	}

	return &EligibilityRefreshHandler{
		db:               db,
		donorRepo:        database.NewDonorRepository(db),
		appointmentRepo:  database.NewAppointmentRepository(db),
		unitRepo:         database.NewBloodUnitRepository(db),
		email:            email,
		reminderLeadDays: cfg.ReminderLeadDays,
	}, nil
}

// RefreshResult is the result of a scheduled eligibility refresh run.
type RefreshResult struct {
	Message           string   `json:"message"`
	DonorsChecked     int      `json:"donors_checked"`
	FlagsUpdated      int      `json:"flags_updated"`
	NotificationsSent int      `json:"notifications_sent"`
	RemindersSent     int      `json:"reminders_sent"`
	UnitsExpired      int64    `json:"units_expired"`
	Errors            []string `json:"errors,omitempty"`
}

// Handle processes a scheduled refresh event.
func (h *EligibilityRefreshHandler) Handle(ctx context.Context, event events.CloudWatchEvent) (RefreshResult, error) {
	logger := utils.GetLogger()
	now := time.Now().UTC()

	result := RefreshResult{Message: "Refresh completed"}

	donors, err := h.donorRepo.GetAllActive(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to load donors: %w", err)
	}
	result.DonorsChecked = len(donors)

	notifications := make([]sesservice.EligibilityNotificationParams, 0)

	for _, donor := range donors {
		check, err := eligibility.Check(donor.Profile(), nil, now)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("donor %s: %v", donor.DonorCode, err))
			continue
		}
		summary := eligibility.Summarize(check)

		temporary := summary.Status == models.StatusTemporarilyDeferred
		permanent := summary.Status == models.StatusPermanentlyDeferred

		// Only donors whose cached verdict changed need a write and an email.
		if temporary == donor.IsDeferredTemporary && permanent == donor.IsDeferredPermanent {
			continue
		}

		if err := h.donorRepo.UpdateDeferralStatus(ctx, donor.ID, temporary, permanent, summary.NextEligibleDate); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("donor %s: %v", donor.DonorCode, err))
			continue
		}
		result.FlagsUpdated++

		notifications = append(notifications, sesservice.BuildEligibilityNotificationParams(donor, summary))
	}

	if len(notifications) > 0 {
		sent, sendErrors := h.email.SendBatchEligibilityNotifications(ctx, notifications)
		result.NotificationsSent = len(sent)
		for _, e := range sendErrors {
			result.Errors = append(result.Errors, e.Error())
		}
	}

	reminders, err := h.sendAppointmentReminders(ctx, now)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("reminders: %v", err))
	}
	result.RemindersSent = reminders

	expired, err := h.unitRepo.MarkExpired(ctx, now)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("inventory: %v", err))
	}
	result.UnitsExpired = expired

	// Limit errors in response
	if len(result.Errors) > 10 {
		result.Errors = result.Errors[:10]
	}

	logger.Info("Eligibility refresh completed",
		utils.Int("donorsChecked", result.DonorsChecked),
		utils.Int("flagsUpdated", result.FlagsUpdated),
		utils.Int("notificationsSent", result.NotificationsSent),
		utils.Int("remindersSent", result.RemindersSent),
		utils.Int64("unitsExpired", result.UnitsExpired))

	return result, nil
}

// sendAppointmentReminders emails every donor with an appointment inside the
// reminder window.
func (h *EligibilityRefreshHandler) sendAppointmentReminders(ctx context.Context, now time.Time) (int, error) {
	to := now.AddDate(0, 0, h.reminderLeadDays)

	appointments, err := h.appointmentRepo.ListUpcoming(ctx, now, to)
	if err != nil {
		return 0, err
	}
	if len(appointments) == 0 {
		return 0, nil
	}

	donorIDs := make([]int64, 0, len(appointments))
	for _, appointment := range appointments {
		donorIDs = append(donorIDs, appointment.DonorID)
	}

	donors, err := h.donorRepo.GetByIDs(ctx, donorIDs)
	if err != nil {
		return 0, err
	}

	donorsByID := make(map[int64]*models.Donor, len(donors))
	for _, donor := range donors {
		donorsByID[donor.ID] = donor
	}

	reminders := make([]sesservice.AppointmentEmailParams, 0, len(appointments))
	for _, appointment := range appointments {
		donor, ok := donorsByID[appointment.DonorID]
		if !ok {
			continue
		}
		reminders = append(reminders, sesservice.AppointmentEmailParams{
			DonorName:        donor.Name,
			DonorEmail:       donor.Email,
			CenterName:       appointment.CenterName,
			ScheduledAt:      appointment.ScheduledAt,
			ConfirmationCode: appointment.ConfirmationCode,
		})
	}

	sent, sendErrors := h.email.SendBatchAppointmentReminders(ctx, reminders)
	if len(sendErrors) > 0 {
		utils.GetLogger().Warn("Some appointment reminders failed",
			utils.Int("failed", len(sendErrors)))
	}

	return len(sent), nil
}

// Close cleans up resources.
func (h *EligibilityRefreshHandler) Close() {
	if h.db != nil {
		h.db.Close()
	}
}
