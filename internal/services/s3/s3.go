// Package s3service stores donor CSV imports and generated reports in S3.
package s3service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appConfig "blood-donation-engine/internal/config"
	"blood-donation-engine/internal/utils"
)

// Bucket layout: fresh CSV uploads land under uploads/, imported files are
// moved to processed/, and generated workbooks live under reports/.
const (
	importPrefix    = "uploads/"
	processedPrefix = "processed/"
	reportPrefix    = "reports/"
)

// Default lifetimes for presigned links.
const (
	DefaultUploadExpiryMinutes   = 60
	DefaultDownloadExpiryMinutes = 60
)

// Service handles S3 operations
type Service struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucketName string
}

// PresignedURLResult contains the presigned URL details
type PresignedURLResult struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewService creates a new S3 service
func NewService(ctx context.Context) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	appCfg, err := appConfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load app config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	presigner := s3.NewPresignClient(client)

	return &Service{
		client:     client,
		presigner:  presigner,
		bucketName: appCfg.S3Bucket,
	}, nil
}

// ImportKey builds a date-partitioned object key for an uploaded donor CSV.
// The filename is sanitized so donor-supplied names cannot escape the prefix.
func ImportKey(filename string) string {
	datePath := time.Now().UTC().Format("2006/01/02")
	return importPrefix + datePath + "/" + uuid.New().String() + "_" + sanitizeFilename(filename)
}

// sanitizeFilename strips everything but letters, digits, dots, dashes and
// underscores, and caps the length.
func sanitizeFilename(filename string) string {
	safe := make([]rune, 0, len(filename))
	for _, r := range filename {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			safe = append(safe, r)
		}
	}
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return string(safe)
}

// GeneratePresignedUploadURL creates a presigned URL for uploading files
func (s *Service) GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, expiryMinutes int) (*PresignedURLResult, error) {
	if expiryMinutes <= 0 {
		expiryMinutes = 15
	}

	expiry := time.Duration(expiryMinutes) * time.Minute

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	presignedReq, err := s.presigner.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		utils.Logger.Error("Failed to generate presigned URL",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	utils.Logger.Info("Generated presigned upload URL",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.Int("expiry_minutes", expiryMinutes),
	)

	return &PresignedURLResult{
		URL:       presignedReq.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// GeneratePresignedDownloadURL creates a presigned URL for downloading files
func (s *Service) GeneratePresignedDownloadURL(ctx context.Context, key string, expiryMinutes int) (*PresignedURLResult, error) {
	if expiryMinutes <= 0 {
		expiryMinutes = 15
	}

	expiry := time.Duration(expiryMinutes) * time.Minute

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}

	presignedReq, err := s.presigner.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURLResult{
		URL:       presignedReq.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// DownloadFile downloads a file from S3
func (s *Service) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}

	result, err := s.client.GetObject(ctx, input)
	if err != nil {
		utils.Logger.Error("Failed to download file from S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	utils.Logger.Info("Downloaded file from S3",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)

	return data, nil
}

// UploadFile uploads a file to S3
func (s *Service) UploadFile(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		utils.Logger.Error("Failed to upload file to S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload file: %w", err)
	}

	utils.Logger.Info("Uploaded file to S3",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)

	return nil
}

// PublishReport stores a generated workbook and returns a time-limited
// download link for it.
func (s *Service) PublishReport(ctx context.Context, key string, workbook []byte, contentType string) (*PresignedURLResult, error) {
	if err := s.UploadFile(ctx, key, workbook, contentType); err != nil {
		return nil, err
	}

	return s.GeneratePresignedDownloadURL(ctx, key, DefaultDownloadExpiryMinutes)
}

// ListReports lists generated report objects under the report prefix.
func (s *Service) ListReports(ctx context.Context, maxKeys int32) ([]types.Object, error) {
	if maxKeys <= 0 {
		maxKeys = 100
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucketName),
		Prefix:  aws.String(reportPrefix),
		MaxKeys: aws.Int32(maxKeys),
	}

	result, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	return result.Contents, nil
}

// ArchiveImport moves a processed donor CSV out of the upload area so the
// import trigger cannot fire on it twice.
func (s *Service) ArchiveImport(ctx context.Context, key string) error {
	if err := s.copyObject(ctx, key, processedPrefix+key); err != nil {
		return err
	}

	return s.deleteObject(ctx, key)
}

func (s *Service) copyObject(ctx context.Context, sourceKey, destKey string) error {
	input := &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucketName),
		CopySource: aws.String(fmt.Sprintf("%s/%s", s.bucketName, sourceKey)),
		Key:        aws.String(destKey),
	}

	_, err := s.client.CopyObject(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	utils.Logger.Info("Copied file in S3",
		zap.String("source", sourceKey),
		zap.String("destination", destKey),
	)

	return nil
}

func (s *Service) deleteObject(ctx context.Context, key string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}

	_, err := s.client.DeleteObject(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	utils.Logger.Info("Deleted file from S3",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
	)

	return nil
}
