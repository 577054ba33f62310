// Package ses provides email notification services via AWS SES
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	appConfig "blood-donation-engine/internal/config"
	"blood-donation-engine/internal/models"
	"blood-donation-engine/internal/utils"
)

// Service handles SES email operations
type Service struct {
	client    *ses.Client
	fromEmail string
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To        string
	Subject   string
	HTMLBody  string
	TextBody  string
	ReplyTo   string
	CC        []string
	BCC       []string
	ConfigSet string
}

// AppointmentEmailParams contains data for appointment confirmation and reminder emails
type AppointmentEmailParams struct {
	DonorName        string
	DonorEmail       string
	CenterName       string
	ScheduledAt      time.Time
	ConfirmationCode string
}

// EligibilityNotificationParams contains data for an eligibility status email
type EligibilityNotificationParams struct {
	DonorName        string
	DonorEmail       string
	Status           models.EligibilityStatus
	Message          string
	NextEligibleDate *time.Time
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service
func NewService(ctx context.Context) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	appCfg, err := appConfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load app config: %w", err)
	}

	client := ses.NewFromConfig(cfg)

	return &Service{
		client:    client,
		fromEmail: appCfg.SESSenderEmail,
	}, nil
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	// Add HTML body if provided
	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	// Add text body if provided
	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	// Add CC addresses
	if len(params.CC) > 0 {
		input.Destination.CcAddresses = params.CC
	}

	// Add BCC addresses
	if len(params.BCC) > 0 {
		input.Destination.BccAddresses = params.BCC
	}

	// Add reply-to
	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	// Add config set if specified
	if params.ConfigSet != "" {
		input.ConfigurationSetName = aws.String(params.ConfigSet)
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.Logger.Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	utils.Logger.Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", *result.MessageId),
	)

	return &SendEmailResult{
		MessageID: *result.MessageId,
		SentAt:    time.Now(),
	}, nil
}

// SendAppointmentConfirmation sends a booking confirmation email to a donor
func (s *Service) SendAppointmentConfirmation(ctx context.Context, params AppointmentEmailParams) (*SendEmailResult, error) {
	view := appointmentEmailView{
		Heading:          "Your Donation Appointment is Booked!",
		Intro:            "Thank you for choosing to donate blood. Here are your appointment details:",
		DonorName:        params.DonorName,
		CenterName:       params.CenterName,
		ScheduledAt:      params.ScheduledAt.Format("Monday, January 2, 2006 at 3:04 PM"),
		ConfirmationCode: params.ConfirmationCode,
		ShowPrep:         true,
	}

	htmlBody, err := s.renderAppointmentHTML(view)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	textBody := s.renderAppointmentText(view)

	subject := fmt.Sprintf("🩸 Your donation appointment is booked for %s", params.ScheduledAt.Format("Jan 2, 2006"))

	return s.SendEmail(ctx, EmailParams{
		To:       params.DonorEmail,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// SendAppointmentReminder sends a reminder email ahead of a scheduled appointment
func (s *Service) SendAppointmentReminder(ctx context.Context, params AppointmentEmailParams) (*SendEmailResult, error) {
	view := appointmentEmailView{
		Heading:          "Your Donation Appointment is Coming Up",
		Intro:            "This is a friendly reminder about your upcoming blood donation appointment:",
		DonorName:        params.DonorName,
		CenterName:       params.CenterName,
		ScheduledAt:      params.ScheduledAt.Format("Monday, January 2, 2006 at 3:04 PM"),
		ConfirmationCode: params.ConfirmationCode,
		ShowPrep:         true,
	}

	htmlBody, err := s.renderAppointmentHTML(view)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	textBody := s.renderAppointmentText(view)

	subject := fmt.Sprintf("Reminder: blood donation appointment on %s", params.ScheduledAt.Format("Jan 2, 2006"))

	return s.SendEmail(ctx, EmailParams{
		To:       params.DonorEmail,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// SendBatchAppointmentReminders sends reminder emails to multiple donors
func (s *Service) SendBatchAppointmentReminders(ctx context.Context, reminders []AppointmentEmailParams) ([]SendEmailResult, []error) {
	results := make([]SendEmailResult, 0, len(reminders))
	errors := make([]error, 0)

	for _, reminder := range reminders {
		result, err := s.SendAppointmentReminder(ctx, reminder)
		if err != nil {
			errors = append(errors, fmt.Errorf("failed to send to %s: %w", reminder.DonorEmail, err))
			continue
		}
		results = append(results, *result)
	}

	utils.Logger.Info("Batch reminders sent",
		zap.Int("total", len(reminders)),
		zap.Int("success", len(results)),
		zap.Int("failed", len(errors)),
	)

	return results, errors
}

// SendEligibilityNotification sends an eligibility status email to a donor
func (s *Service) SendEligibilityNotification(ctx context.Context, params EligibilityNotificationParams) (*SendEmailResult, error) {
	view := eligibilityEmailView{
		DonorName: params.DonorName,
		Message:   params.Message,
	}

	subject := "Update on your blood donation eligibility"

	switch params.Status {
	case models.StatusEligible:
		view.Heading = "You Can Donate Again!"
		view.BadgeColor = "#28a745"
		view.BadgeText = "Eligible"
		subject = "🩸 Good news! You are eligible to donate blood again"
	case models.StatusTemporarilyDeferred:
		view.Heading = "Your Donation is on Hold"
		view.BadgeColor = "#ffc107"
		view.BadgeText = "Temporarily Deferred"
	case models.StatusPermanentlyDeferred:
		view.Heading = "Your Donation Eligibility Has Changed"
		view.BadgeColor = "#dc3545"
		view.BadgeText = "Permanently Deferred"
	}

	if params.NextEligibleDate != nil {
		view.NextEligibleDate = params.NextEligibleDate.Format("January 2, 2006")
	}

	htmlBody, err := s.renderEligibilityHTML(view)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	textBody := s.renderEligibilityText(view)

	return s.SendEmail(ctx, EmailParams{
		To:       params.DonorEmail,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// SendBatchEligibilityNotifications sends eligibility emails to multiple donors
func (s *Service) SendBatchEligibilityNotifications(ctx context.Context, notifications []EligibilityNotificationParams) ([]SendEmailResult, []error) {
	results := make([]SendEmailResult, 0, len(notifications))
	errors := make([]error, 0)

	for _, notif := range notifications {
		result, err := s.SendEligibilityNotification(ctx, notif)
		if err != nil {
			errors = append(errors, fmt.Errorf("failed to send to %s: %w", notif.DonorEmail, err))
			continue
		}
		results = append(results, *result)
	}

	utils.Logger.Info("Batch notifications sent",
		zap.Int("total", len(notifications)),
		zap.Int("success", len(results)),
		zap.Int("failed", len(errors)),
	)

	return results, errors
}

// BuildEligibilityNotificationParams creates notification params from a donor and summary
func BuildEligibilityNotificationParams(donor *models.Donor, summary *models.EligibilitySummary) EligibilityNotificationParams {
	return EligibilityNotificationParams{
		DonorName:        donor.Name,
		DonorEmail:       donor.Email,
		Status:           summary.Status,
		Message:          summary.Message,
		NextEligibleDate: summary.NextEligibleDate,
	}
}

// appointmentEmailView is the template view for appointment emails
type appointmentEmailView struct {
	Heading          string
	Intro            string
	DonorName        string
	CenterName       string
	ScheduledAt      string
	ConfirmationCode string
	ShowPrep         bool
}

// eligibilityEmailView is the template view for eligibility emails
type eligibilityEmailView struct {
	Heading          string
	BadgeColor       string
	BadgeText        string
	DonorName        string
	Message          string
	NextEligibleDate string
}

// renderAppointmentHTML renders the HTML email template
func (s *Service) renderAppointmentHTML(view appointmentEmailView) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #c0392b 0%, #8e2016 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .detail-card { background: white; border-radius: 8px; padding: 20px; margin: 15px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .detail-card .detail-item { margin: 8px 0; }
        .detail-card .detail-label { font-size: 12px; color: #999; }
        .detail-card .detail-value { font-weight: bold; color: #333; }
        .code-badge { display: inline-block; background: #c0392b; color: white; padding: 8px 16px; border-radius: 6px; font-weight: bold; font-size: 18px; letter-spacing: 2px; }
        .prep-list { background: white; border-radius: 8px; padding: 20px; margin: 15px 0; }
        .footer { text-align: center; margin-top: 30px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Heading}}</h1>
        <p>Hi {{.DonorName}}</p>
    </div>
    <div class="content">
        <p>{{.Intro}}</p>

        <div class="detail-card">
            <div class="detail-item">
                <div class="detail-label">Donation Center</div>
                <div class="detail-value">{{.CenterName}}</div>
            </div>
            <div class="detail-item">
                <div class="detail-label">Date &amp; Time</div>
                <div class="detail-value">{{.ScheduledAt}}</div>
            </div>
            <div class="detail-item">
                <div class="detail-label">Confirmation Code</div>
                <div class="detail-value"><span class="code-badge">{{.ConfirmationCode}}</span></div>
            </div>
        </div>

        {{if .ShowPrep}}
        <div class="prep-list">
            <strong>Before you donate:</strong>
            <ul>
                <li>Drink plenty of water and eat a healthy meal</li>
                <li>Bring a photo ID and your confirmation code</li>
                <li>Avoid heavy exercise on the day of donation</li>
            </ul>
        </div>
        {{end}}
    </div>
    <div class="footer">
        <p>This email was sent by Blood Donation Engine</p>
        <p>You received this because you booked a donation appointment.</p>
    </div>
</body>
</html>`

	t, err := template.New("appointment_email").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, view); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// renderAppointmentText renders plain text version
func (s *Service) renderAppointmentText(view appointmentEmailView) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", view.DonorName))
	buf.WriteString(view.Intro + "\n\n")
	buf.WriteString(fmt.Sprintf("Donation Center: %s\n", view.CenterName))
	buf.WriteString(fmt.Sprintf("Date & Time: %s\n", view.ScheduledAt))
	buf.WriteString(fmt.Sprintf("Confirmation Code: %s\n\n", view.ConfirmationCode))

	if view.ShowPrep {
		buf.WriteString("Before you donate:\n")
		buf.WriteString("- Drink plenty of water and eat a healthy meal\n")
		buf.WriteString("- Bring a photo ID and your confirmation code\n")
		buf.WriteString("- Avoid heavy exercise on the day of donation\n\n")
	}

	buf.WriteString("Best regards,\nBlood Donation Engine Team\n")

	return buf.String()
}

// renderEligibilityHTML renders the HTML email template
func (s *Service) renderEligibilityHTML(view eligibilityEmailView) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #c0392b 0%, #8e2016 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .status-card { background: white; border-radius: 8px; padding: 20px; margin: 15px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .status-badge { display: inline-block; background: {{.BadgeColor}}; color: white; padding: 5px 12px; border-radius: 20px; font-weight: bold; }
        .next-date { margin-top: 15px; font-size: 14px; color: #666; }
        .footer { text-align: center; margin-top: 30px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Heading}}</h1>
        <p>Hi {{.DonorName}}</p>
    </div>
    <div class="content">
        <div class="status-card">
            <p><span class="status-badge">{{.BadgeText}}</span></p>
            <p>{{.Message}}</p>
            {{if .NextEligibleDate}}
            <p class="next-date">You can donate again from <strong>{{.NextEligibleDate}}</strong>.</p>
            {{end}}
        </div>
        <p>If you have any questions about your eligibility, please contact our medical staff.</p>
    </div>
    <div class="footer">
        <p>This email was sent by Blood Donation Engine</p>
        <p>You received this because you are a registered blood donor.</p>
    </div>
</body>
</html>`

	t, err := template.New("eligibility_email").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, view); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// renderEligibilityText renders plain text version
func (s *Service) renderEligibilityText(view eligibilityEmailView) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", view.DonorName))
	buf.WriteString(fmt.Sprintf("Status: %s\n\n", view.BadgeText))
	buf.WriteString(view.Message + "\n\n")

	if view.NextEligibleDate != "" {
		buf.WriteString(fmt.Sprintf("You can donate again from %s.\n\n", view.NextEligibleDate))
	}

	buf.WriteString("If you have any questions about your eligibility, please contact our medical staff.\n\n")
	buf.WriteString("Best regards,\nBlood Donation Engine Team\n")

	return buf.String()
}

// VerifyEmailAddress verifies an email address for sending
func (s *Service) VerifyEmailAddress(ctx context.Context, email string) error {
	input := &ses.VerifyEmailAddressInput{
		EmailAddress: aws.String(email),
	}

	_, err := s.client.VerifyEmailAddress(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	utils.Logger.Info("Email verification initiated", zap.String("email", email))
	return nil
}

// GetSendQuota returns the current SES sending quota
func (s *Service) GetSendQuota(ctx context.Context) (*ses.GetSendQuotaOutput, error) {
	result, err := s.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get send quota: %w", err)
	}
	return result, nil
}
