// Package handlers provides Lambda handlers for the blood donation engine.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	s3service "blood-donation-engine/internal/services/s3"
	"blood-donation-engine/internal/utils"
)

// PresignedURLHandler handles requests for generating presigned S3 upload URLs.
type PresignedURLHandler struct {
	s3 *s3service.Service
}

// NewPresignedURLHandler creates a new presigned URL handler.
func NewPresignedURLHandler() (*PresignedURLHandler, error) {
	s3Svc, err := s3service.NewService(context.Background())
	if err != nil {
		return nil, err
	}

	return &PresignedURLHandler{s3: s3Svc}, nil
}

// PresignedURLResponse is the response structure for presigned URL requests.
type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	S3Key     string `json:"s3Key"`
	ExpiresIn int    `json:"expiresIn"`
}

// Handle processes the API Gateway request for generating presigned URLs.
func (h *PresignedURLHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()

	// CORS headers
	headers := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "GET,OPTIONS",
		"Content-Type":                 "application/json",
	}

	// Handle CORS preflight
	if request.HTTPMethod == "OPTIONS" {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	// Get filename from query params
	filename := request.QueryStringParameters["filename"]
	if filename == "" {
		filename = "donors_" + uuid.New().String()[:8] + ".csv"
	}

	// Validate filename
	if len(filename) < 4 || filename[len(filename)-4:] != ".csv" {
		return errorResponse(headers, http.StatusBadRequest, "Only CSV files are allowed")
	}

	s3Key := s3service.ImportKey(filename)

	result, err := h.s3.GeneratePresignedUploadURL(ctx, s3Key, "text/csv", s3service.DefaultUploadExpiryMinutes)
	if err != nil {
		logger.Error("Failed to generate presigned URL", utils.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Failed to generate upload URL")
	}

	response := PresignedURLResponse{
		UploadURL: result.URL,
		S3Key:     result.Key,
		ExpiresIn: s3service.DefaultUploadExpiryMinutes * 60,
	}

	body, _ := json.Marshal(response)

	logger.Info("Generated presigned URL",
		utils.String("s3Key", s3Key))

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// errorResponse creates an error response.
func errorResponse(headers map[string]string, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"error":   http.StatusText(statusCode),
		"message": message,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
