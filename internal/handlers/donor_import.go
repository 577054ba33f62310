// Package handlers provides Lambda handlers for the blood donation engine.
package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/events"

	appConfig "blood-donation-engine/internal/config"
	"blood-donation-engine/internal/models"
	"blood-donation-engine/internal/services/database"
	"blood-donation-engine/internal/services/eligibility"
	s3service "blood-donation-engine/internal/services/s3"
	"blood-donation-engine/internal/utils"
)

// DonorImportHandler handles S3 events for donor CSV imports.
type DonorImportHandler struct {
	s3         *s3service.Service
	db         *database.DB
	donorRepo  *database.DonorRepository
	webhookURL string
}

// NewDonorImportHandler creates a new donor import handler.
func NewDonorImportHandler() (*DonorImportHandler, error) {
	cfg, err := appConfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load app config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s3Svc, err := s3service.NewService(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 service: %w", err)
	}

	return &DonorImportHandler{
		s3:         s3Svc,
		db:         db,
		donorRepo:  database.NewDonorRepository(db),
		webhookURL: cfg.ImportWebhookURL,
	}, nil
}

// ImportResult is the result of processing a donor CSV file.
type ImportResult struct {
	Message  string   `json:"message"`
	BatchID  string   `json:"batch_id"`
	Inserted int      `json:"inserted"`
	Failed   int      `json:"failed"`
	Deferred int      `json:"deferred"`
	Errors   []string `json:"errors,omitempty"`
}

// Handle processes S3 events for uploaded donor CSV files.
func (h *DonorImportHandler) Handle(ctx context.Context, s3Event events.S3Event) (ImportResult, error) {
	logger := utils.GetLogger()

	if len(s3Event.Records) == 0 {
		return ImportResult{Message: "No records to process"}, nil
	}

	record := s3Event.Records[0]
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to decode S3 key: %w", err)
	}

	logger.Info("Processing donor CSV",
		utils.String("bucket", record.S3.Bucket.Name),
		utils.String("key", key))

	// Download CSV from S3
	csvContent, err := h.s3.DownloadFile(ctx, key)
	if err != nil {
		logger.Error("Failed to download CSV", utils.Error(err))
		return ImportResult{}, fmt.Errorf("failed to download CSV: %w", err)
	}
	if len(csvContent) == 0 {
		return ImportResult{}, fmt.Errorf("CSV file is empty")
	}

	// Generate batch ID
	batchID := generateBatchID(key)

	// Parse CSV
	parser := utils.NewCSVParser()
	donors, parseErrors := parser.ParseDonors(string(csvContent), batchID)

	if len(donors) == 0 {
		errMsgs := make([]string, len(parseErrors))
		for i, e := range parseErrors {
			errMsgs[i] = e.Error()
		}
		return ImportResult{
			Message: "No valid donors found in CSV",
			BatchID: batchID,
			Errors:  errMsgs,
		}, nil
	}

	logger.Info("Parsed CSV",
		utils.String("batchID", batchID),
		utils.Int("validDonors", len(donors)),
		utils.Int("parseErrors", len(parseErrors)))

	// Insert donors into database
	result, err := h.donorRepo.BulkInsert(ctx, donors)
	if err != nil {
		logger.Error("Failed to insert donors", utils.Error(err))
		return ImportResult{}, fmt.Errorf("failed to insert donors: %w", err)
	}

	// Upserts can re-tag donors from earlier batches, so the stored count is
	// the authoritative batch size.
	stored, err := h.donorRepo.CountByBatchID(ctx, batchID)
	if err != nil {
		logger.Warn("Failed to count batch donors", utils.Error(err))
	}

	logger.Info("Inserted donors",
		utils.String("batchID", batchID),
		utils.Int("inserted", result.InsertedCount),
		utils.Int("failed", result.FailedCount),
		utils.Int("stored", stored))

	// Seed cached deferral flags for the imported batch
	deferred, err := h.seedDeferralFlags(ctx, batchID)
	if err != nil {
		logger.Warn("Failed to seed deferral flags", utils.Error(err))
	}

	// Notify the import webhook if donors were inserted
	if result.InsertedCount > 0 && h.webhookURL != "" {
		if err := h.notifyImport(ctx, batchID, result.InsertedCount); err != nil {
			logger.Warn("Failed to notify import webhook", utils.Error(err))
		}
	}

	// Archive processed file
	if err := h.s3.ArchiveImport(ctx, key); err != nil {
		logger.Warn("Failed to archive file", utils.Error(err))
	}

	// Combine parse errors with insert errors
	allErrors := make([]string, 0)
	for _, e := range parseErrors {
		allErrors = append(allErrors, e.Error())
	}
	allErrors = append(allErrors, result.Errors...)

	// Limit errors in response
	if len(allErrors) > 10 {
		allErrors = allErrors[:10]
	}

	return ImportResult{
		Message:  "CSV processed successfully",
		BatchID:  batchID,
		Inserted: result.InsertedCount,
		Failed:   result.FailedCount + len(parseErrors),
		Deferred: deferred,
		Errors:   allErrors,
	}, nil
}

// seedDeferralFlags runs an eligibility check for every donor in the batch and
// stores the verdict in the cached deferral columns. Returns the number of
// donors that came in deferred.
func (h *DonorImportHandler) seedDeferralFlags(ctx context.Context, batchID string) (int, error) {
	donors, err := h.donorRepo.GetByBatchID(ctx, batchID)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	deferred := 0

	for _, donor := range donors {
		check, err := eligibility.Check(donor.Profile(), nil, now)
		if err != nil {
			continue
		}
		summary := eligibility.Summarize(check)

		temporary := summary.Status == models.StatusTemporarilyDeferred
		permanent := summary.Status == models.StatusPermanentlyDeferred

		if err := h.donorRepo.UpdateDeferralStatus(ctx, donor.ID, temporary, permanent, summary.NextEligibleDate); err != nil {
			return deferred, err
		}
		if temporary || permanent {
			deferred++
		}
	}

	return deferred, nil
}

// generateBatchID generates a unique batch ID for this upload.
func generateBatchID(key string) string {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	hash := sha256.Sum256([]byte(key + timestamp))
	return hex.EncodeToString(hash[:])[:16]
}

// notifyImport posts a batch summary to the configured import webhook.
func (h *DonorImportHandler) notifyImport(ctx context.Context, batchID string, donorCount int) error {
	payload := map[string]interface{}{
		"batch_id":     batchID,
		"donor_count":  donorCount,
		"trigger_type": "csv_import",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", h.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Close cleans up resources.
func (h *DonorImportHandler) Close() {
	if h.db != nil {
		h.db.Close()
	}
}
