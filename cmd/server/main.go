// Package main provides a local HTTP server for development and testing
// This server exposes the API endpoints for donor registration, eligibility
// checks, appointments, donations, inventory, blood requests and reports
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"blood-donation-engine/internal/config"
	"blood-donation-engine/internal/models"
	"blood-donation-engine/internal/services/database"
	"blood-donation-engine/internal/services/eligibility"
	"blood-donation-engine/internal/services/reports"
	s3service "blood-donation-engine/internal/services/s3"
	sesservice "blood-donation-engine/internal/services/ses"
	"blood-donation-engine/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/cors"
)

// Server holds all dependencies
type Server struct {
	db           *database.DB
	donorRepo    *database.DonorRepository
	apptRepo     *database.AppointmentRepository
	unitRepo     *database.BloodUnitRepository
	requestRepo  *database.BloodRequestRepository
	donationRepo *database.DonationRepository
	s3           *s3service.Service
	email        *sesservice.Service
	config       *config.Config
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// UploadResponse contains CSV upload processing results
type UploadResponse struct {
	BatchID      string `json:"batch_id"`
	TotalRows    int    `json:"total_rows"`
	ValidDonors  int    `json:"valid_donors"`
	Errors       int    `json:"errors"`
	Deferred     int    `json:"deferred"`
	ProcessingMs int64  `json:"processing_ms"`
}

// PresignedURLRequest represents the request for presigned URL
type PresignedURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// PresignedURLResponse contains the presigned URL data
type PresignedURLResponse struct {
	URL     string `json:"url"`
	Key     string `json:"key"`
	Expires int    `json:"expires"`
}

func main() {
	// Initialize logger first
	if err := utils.InitLogger("info"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Logger.Sync()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load config from environment: %v", err)
		cfg = &config.Config{}
	}

	// Initialize database
	db, err := database.New(cfg)
	if err != nil {
		log.Printf("Warning: Could not connect to database: %v", err)
		log.Println("Server will run in demo mode without database")
	}

	server := &Server{
		db:     db,
		config: cfg,
	}

	if db != nil {
		server.donorRepo = database.NewDonorRepository(db)
		server.apptRepo = database.NewAppointmentRepository(db)
		server.unitRepo = database.NewBloodUnitRepository(db)
		server.requestRepo = database.NewBloodRequestRepository(db)
		server.donationRepo = database.NewDonationRepository(db)
	}

	// Initialize S3 (may fail without AWS credentials)
	s3Svc, err := s3service.NewService(context.Background())
	if err != nil {
		log.Printf("Warning: Could not initialize S3 service: %v", err)
	}
	server.s3 = s3Svc

	// Initialize SES (may fail without AWS credentials)
	emailSvc, err := sesservice.NewService(context.Background())
	if err != nil {
		log.Printf("Warning: Could not initialize SES service: %v", err)
	}
	server.email = emailSvc

	// Setup routes
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", server.healthHandler)
	mux.HandleFunc("/api/health", server.healthHandler)

	// Donors and eligibility
	mux.HandleFunc("/api/donors", server.donorsHandler)
	mux.HandleFunc("/api/donors/", server.donorSubHandler)
	mux.HandleFunc("/api/eligibility/check", server.eligibilityCheckHandler)

	// Appointments
	mux.HandleFunc("/api/appointments", server.appointmentsHandler)
	mux.HandleFunc("/api/appointments/", server.appointmentStatusHandler)

	// Donations
	mux.HandleFunc("/api/donations", server.donationsHandler)

	// Inventory
	mux.HandleFunc("/api/inventory", server.inventoryHandler)
	mux.HandleFunc("/api/inventory/summary", server.inventorySummaryHandler)
	mux.HandleFunc("/api/inventory/", server.unitStatusHandler)

	// Blood requests
	mux.HandleFunc("/api/requests", server.requestsHandler)
	mux.HandleFunc("/api/requests/", server.requestStatusHandler)

	// Reports
	mux.HandleFunc("/api/reports", server.reportsListHandler)
	mux.HandleFunc("/api/reports/donations", server.donationReportHandler)
	mux.HandleFunc("/api/reports/inventory", server.inventoryReportHandler)

	// Presigned URL endpoint (for S3 uploads)
	mux.HandleFunc("/api/presigned-url", server.presignedURLHandler)

	// Direct CSV upload endpoint (for local testing)
	mux.HandleFunc("/api/upload", server.uploadHandler)

	// Process CSV uploaded through the local presigned path
	mux.HandleFunc("/api/process", server.processHandler)

	// Clear data endpoint
	mux.HandleFunc("/api/clear-data", server.clearDataHandler)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := c.Handler(mux)

	port := getEnvOrDefault("PORT", "8080")
	addr := fmt.Sprintf("0.0.0.0:%s", port)

	log.Printf("Blood Donation Engine API Server")
	log.Printf("Listening on http://localhost:%s", port)
	log.Printf("Health: http://localhost:%s/health", port)
	log.Println("")

	// Start server (this blocks until error)
	log.Printf("Starting HTTP server on %s...", addr)
	serverErr := http.ListenAndServe(addr, handler)
	if serverErr != nil {
		log.Fatalf("Server failed: %v", serverErr)
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	dbStatus := "disconnected"
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err == nil {
			dbStatus = "connected"
		}
	}

	response := Response{
		Success: true,
		Message: "Blood Donation Engine API is running",
		Data: map[string]interface{}{
			"status":    "healthy",
			"database":  dbStatus,
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
		},
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) donorsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listDonors(w, r)
	case http.MethodPost:
		s.createDonor(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listDonors(w http.ResponseWriter, r *http.Request) {
	if s.donorRepo == nil {
		writeJSON(w, http.StatusOK, Response{
			Success: true,
			Data:    []models.DonorSummary{},
		})
		return
	}

	ctx := r.Context()

	var donors []*models.Donor
	var err error

	if batchID := r.URL.Query().Get("batch_id"); batchID != "" {
		donors, err = s.donorRepo.GetByBatchID(ctx, batchID)
	} else {
		donors, err = s.donorRepo.GetAllActive(ctx)
	}
	if err != nil {
		log.Printf("Error fetching donors: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch donors",
		})
		return
	}

	summaries := make([]models.DonorSummary, 0, len(donors))
	for _, donor := range donors {
		summaries = append(summaries, donor.ToSummary())
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    summaries,
	})
}

func (s *Server) createDonor(w http.ResponseWriter, r *http.Request) {
	if s.donorRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	var req models.DonorCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	req.BloodType = models.NormalizeBloodType(string(req.BloodType))
	if err := models.ValidateDonorCreate(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	id, err := s.donorRepo.Create(r.Context(), &req)
	if err != nil {
		log.Printf("Error creating donor %s: %v", req.DonorCode, err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to create donor",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Donor registered",
		Data:    map[string]interface{}{"id": id, "donor_code": req.DonorCode},
	})
}

// donorSubHandler routes /api/donors/{ref}, /api/donors/{ref}/eligibility and
// /api/donors/{ref}/eligibility/summary. {ref} is a numeric ID or a donor code.
func (s *Server) donorSubHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.donorRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/donors/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Missing donor reference",
		})
		return
	}

	donor, err := s.lookupDonor(r.Context(), parts[0])
	if err != nil {
		log.Printf("Error fetching donor %s: %v", parts[0], err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch donor",
		})
		return
	}
	if donor == nil {
		writeJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Donor not found",
		})
		return
	}

	switch {
	case len(parts) == 1:
		writeJSON(w, http.StatusOK, Response{Success: true, Data: donor})
	case len(parts) == 2 && parts[1] == "eligibility":
		s.donorEligibility(w, r, donor, false)
	case len(parts) == 3 && parts[1] == "eligibility" && parts[2] == "summary":
		s.donorEligibility(w, r, donor, true)
	default:
		writeJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Not found",
		})
	}
}

// lookupDonor resolves a path reference to a donor: numeric IDs hit the primary
// key, everything else is treated as a donor code.
func (s *Server) lookupDonor(ctx context.Context, ref string) (*models.Donor, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.donorRepo.GetByID(ctx, id)
	}
	return s.donorRepo.GetByDonorCode(ctx, ref)
}

func (s *Server) donorEligibility(w http.ResponseWriter, r *http.Request, donor *models.Donor, summarized bool) {
	at := time.Now().UTC()
	if onParam := r.URL.Query().Get("on"); onParam != "" {
		parsed, err := parseDateParam(onParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid 'on' date, expected YYYY-MM-DD or RFC 3339",
			})
			return
		}
		at = parsed
	}

	result, err := eligibility.Check(donor.Profile(), nil, at)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if summarized {
		writeJSON(w, http.StatusOK, Response{Success: true, Data: eligibility.Summarize(result)})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// eligibilityCheckHandler runs an ad-hoc what-if check against a profile that
// is not necessarily registered. Works without a database connection.
func (s *Server) eligibilityCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		DateOfBirth      time.Time              `json:"date_of_birth"`
		MedicalHistory   *models.MedicalHistory `json:"medical_history,omitempty"`
		LastDonationDate *time.Time             `json:"last_donation_date,omitempty"`
		AsOf             *time.Time             `json:"as_of,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	at := time.Now().UTC()
	if req.AsOf != nil {
		at = *req.AsOf
	}

	profile := models.DonorProfile{
		DateOfBirth:    req.DateOfBirth,
		MedicalHistory: req.MedicalHistory,
	}

	result, err := eligibility.Check(profile, req.LastDonationDate, at)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"result":  result,
			"summary": eligibility.Summarize(result),
		},
	})
}

func (s *Server) appointmentsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAppointments(w, r)
	case http.MethodPost:
		s.bookAppointment(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	if s.apptRepo == nil {
		writeJSON(w, http.StatusOK, Response{
			Success: true,
			Data:    []models.Appointment{},
		})
		return
	}

	ctx := r.Context()

	if code := r.URL.Query().Get("code"); code != "" {
		appointment, err := s.apptRepo.GetByConfirmationCode(ctx, code)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, Response{
				Success: false,
				Error:   "Failed to fetch appointment",
			})
			return
		}
		if appointment == nil {
			writeJSON(w, http.StatusNotFound, Response{
				Success: false,
				Error:   "Appointment not found",
			})
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Data: appointment})
		return
	}

	if donorIDParam := r.URL.Query().Get("donor_id"); donorIDParam != "" {
		donorID, err := strconv.ParseInt(donorIDParam, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid donor_id",
			})
			return
		}

		appointments, err := s.apptRepo.GetByDonorID(ctx, donorID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, Response{
				Success: false,
				Error:   "Failed to fetch appointments",
			})
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Data: appointments})
		return
	}

	// Default: upcoming appointments inside the next N days
	days := 7
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		if parsed, err := strconv.Atoi(daysParam); err == nil && parsed > 0 {
			days = parsed
		}
	}

	now := time.Now().UTC()
	appointments, err := s.apptRepo.ListUpcoming(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch appointments",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: appointments})
}

func (s *Server) bookAppointment(w http.ResponseWriter, r *http.Request) {
	if s.apptRepo == nil || s.donorRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	var req models.AppointmentCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	if err := models.ValidateAppointmentCreate(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	ctx := r.Context()

	donor, err := s.donorRepo.GetByID(ctx, req.DonorID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch donor",
		})
		return
	}
	if donor == nil {
		writeJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Donor not found",
		})
		return
	}

	// A donor who would still be deferred on the scheduled date cannot book.
	summary, err := eligibility.Summary(donor.Profile(), nil, req.ScheduledAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	if summary.Status != models.StatusEligible {
		writeJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   summary.Message,
			Data:    summary,
		})
		return
	}

	code := newConfirmationCode()
	id, err := s.apptRepo.Create(ctx, &req, code)
	if err != nil {
		log.Printf("Error booking appointment for donor %d: %v", req.DonorID, err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to book appointment",
		})
		return
	}

	if s.email != nil {
		_, err := s.email.SendAppointmentConfirmation(ctx, sesservice.AppointmentEmailParams{
			DonorName:        donor.Name,
			DonorEmail:       donor.Email,
			CenterName:       req.CenterName,
			ScheduledAt:      req.ScheduledAt,
			ConfirmationCode: code,
		})
		if err != nil {
			log.Printf("Warning: Could not send confirmation email: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Appointment booked",
		Data: map[string]interface{}{
			"id":                id,
			"confirmation_code": code,
		},
	})
}

// appointmentStatusHandler handles POST /api/appointments/{id}/status.
func (s *Server) appointmentStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.apptRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	id, ok := parseStatusPath(w, r.URL.Path, "/api/appointments/")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	target := models.AppointmentStatus(req.Status)
	if !target.IsValid() {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("Invalid status: %s", req.Status),
		})
		return
	}

	ctx := r.Context()

	appointment, err := s.apptRepo.GetByID(ctx, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch appointment",
		})
		return
	}
	if appointment == nil {
		writeJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Appointment not found",
		})
		return
	}

	if !appointment.Status.CanTransitionTo(target) {
		writeJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   fmt.Sprintf("Cannot change status from %s to %s", appointment.Status, target),
		})
		return
	}

	if err := s.apptRepo.UpdateStatus(ctx, id, target); err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to update appointment",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Appointment updated",
		Data:    map[string]interface{}{"id": id, "status": target},
	})
}

func (s *Server) donationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listDonations(w, r)
	case http.MethodPost:
		s.recordDonation(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listDonations(w http.ResponseWriter, r *http.Request) {
	if s.donationRepo == nil {
		writeJSON(w, http.StatusOK, Response{
			Success: true,
			Data:    []models.Donation{},
		})
		return
	}

	donorIDParam := r.URL.Query().Get("donor_id")
	if donorIDParam == "" {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Missing required parameter: donor_id",
		})
		return
	}

	donorID, err := strconv.ParseInt(donorIDParam, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid donor_id",
		})
		return
	}

	ctx := r.Context()

	donations, err := s.donationRepo.ListByDonor(ctx, donorID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch donations",
		})
		return
	}

	yearAgo := time.Now().UTC().AddDate(-1, 0, 0)
	lastYear, err := s.donationRepo.CountSince(ctx, donorID, yearAgo)
	if err != nil {
		log.Printf("Error counting donations for donor %d: %v", donorID, err)
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"donations":      donations,
			"last_12_months": lastYear,
		},
	})
}

func (s *Server) recordDonation(w http.ResponseWriter, r *http.Request) {
	if s.donationRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	var req models.DonationCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	if req.VolumeML == 0 {
		req.VolumeML = models.StandardDonationVolumeML
	}
	req.BloodType = models.NormalizeBloodType(string(req.BloodType))
	if err := models.ValidateDonationCreate(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	id, err := s.donationRepo.Record(r.Context(), &req)
	if err != nil {
		log.Printf("Error recording donation for donor %d: %v", req.DonorID, err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to record donation",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Donation recorded",
		Data:    map[string]interface{}{"id": id},
	})
}

func (s *Server) inventoryHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listUnits(w, r)
	case http.MethodPost:
		s.addUnit(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listUnits(w http.ResponseWriter, r *http.Request) {
	if s.unitRepo == nil {
		writeJSON(w, http.StatusOK, Response{
			Success: true,
			Data:    []models.BloodUnit{},
		})
		return
	}

	status := models.BloodUnitStatusAvailable
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status = models.BloodUnitStatus(statusParam)
		if !status.IsValid() {
			writeJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   fmt.Sprintf("Invalid status: %s", statusParam),
			})
			return
		}
	}

	units, err := s.unitRepo.ListByStatus(r.Context(), status)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch inventory",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: units})
}

func (s *Server) addUnit(w http.ResponseWriter, r *http.Request) {
	if s.unitRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	var req models.BloodUnitCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	req.BloodType = models.NormalizeBloodType(string(req.BloodType))
	if err := models.ValidateBloodUnitCreate(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	id, err := s.unitRepo.Create(r.Context(), &req)
	if err != nil {
		log.Printf("Error adding blood unit %s: %v", req.UnitCode, err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to add blood unit",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Blood unit added",
		Data:    map[string]interface{}{"id": id, "unit_code": req.UnitCode},
	})
}

func (s *Server) inventorySummaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.unitRepo == nil {
		writeJSON(w, http.StatusOK, Response{
			Success: true,
			Data:    []models.InventoryLevel{},
		})
		return
	}

	levels, err := s.unitRepo.Levels(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch inventory levels",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: levels})
}

// unitStatusHandler handles POST /api/inventory/{id}/status.
func (s *Server) unitStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.unitRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	id, ok := parseStatusPath(w, r.URL.Path, "/api/inventory/")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	target := models.BloodUnitStatus(req.Status)
	if !target.IsValid() {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("Invalid status: %s", req.Status),
		})
		return
	}

	ctx := r.Context()

	unit, err := s.unitRepo.GetByID(ctx, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch blood unit",
		})
		return
	}
	if unit == nil {
		writeJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Blood unit not found",
		})
		return
	}

	if !unit.Status.CanTransitionTo(target) {
		writeJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   fmt.Sprintf("Cannot change status from %s to %s", unit.Status, target),
		})
		return
	}

	if err := s.unitRepo.UpdateStatus(ctx, id, target); err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to update blood unit",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Blood unit updated",
		Data:    map[string]interface{}{"id": id, "status": target},
	})
}

func (s *Server) requestsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listRequests(w, r)
	case http.MethodPost:
		s.createRequest(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	if s.requestRepo == nil {
		writeJSON(w, http.StatusOK, Response{
			Success: true,
			Data:    []models.BloodRequest{},
		})
		return
	}

	ctx := r.Context()

	var requests []*models.BloodRequest
	var err error

	switch {
	case r.URL.Query().Get("status") != "":
		status := models.BloodRequestStatus(r.URL.Query().Get("status"))
		if !status.IsValid() {
			writeJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   fmt.Sprintf("Invalid status: %s", status),
			})
			return
		}
		requests, err = s.requestRepo.ListByStatus(ctx, status)
	case r.URL.Query().Get("facility") != "":
		requests, err = s.requestRepo.ListByFacility(ctx, r.URL.Query().Get("facility"))
	default:
		requests, err = s.requestRepo.ListRecent(ctx, 50)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch requests",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: requests})
}

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	if s.requestRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	var req models.BloodRequestCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	req.BloodType = models.NormalizeBloodType(string(req.BloodType))
	if req.Urgency == "" {
		req.Urgency = models.UrgencyRoutine
	}
	if err := models.ValidateBloodRequestCreate(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	id, err := s.requestRepo.Create(r.Context(), &req)
	if err != nil {
		log.Printf("Error creating blood request from %s: %v", req.FacilityName, err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to create blood request",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Blood request created",
		Data:    map[string]interface{}{"id": id},
	})
}

// requestStatusHandler handles POST /api/requests/{id}/status.
func (s *Server) requestStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.requestRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	id, ok := parseStatusPath(w, r.URL.Path, "/api/requests/")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	target := models.BloodRequestStatus(req.Status)
	if !target.IsValid() {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("Invalid status: %s", req.Status),
		})
		return
	}

	ctx := r.Context()

	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch request",
		})
		return
	}
	if request == nil {
		writeJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Request not found",
		})
		return
	}

	if !request.Status.CanTransitionTo(target) {
		writeJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   fmt.Sprintf("Cannot change status from %s to %s", request.Status, target),
		})
		return
	}

	if err := s.requestRepo.UpdateStatus(ctx, id, target); err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to update request",
		})
		return
	}

	data := map[string]interface{}{"id": id, "status": target}

	// On approval, include current stock for the requested type. Does not
	// gate the transition.
	if target == models.RequestStatusApproved && s.unitRepo != nil {
		available, err := s.unitRepo.CountAvailableByType(ctx, request.BloodType)
		if err != nil {
			log.Printf("Error counting available units for %s: %v", request.BloodType, err)
		} else {
			data["available_units"] = available
		}
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Request updated",
		Data:    data,
	})
}

func (s *Server) donationReportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.donationRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if fromParam := r.URL.Query().Get("from"); fromParam != "" {
		parsed, err := parseDateParam(fromParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid 'from' date, expected YYYY-MM-DD or RFC 3339",
			})
			return
		}
		from = parsed
	}
	if toParam := r.URL.Query().Get("to"); toParam != "" {
		parsed, err := parseDateParam(toParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid 'to' date, expected YYYY-MM-DD or RFC 3339",
			})
			return
		}
		to = parsed
	}

	ctx := r.Context()

	activity, err := s.donationRepo.ActivityBetween(ctx, from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch donation activity",
		})
		return
	}

	entries := make([]models.DonationActivity, 0, len(activity))
	for _, entry := range activity {
		entries = append(entries, *entry)
	}

	workbook, err := reports.GenerateDonationActivityReport(entries)
	if err != nil {
		log.Printf("Error generating donation report: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to generate report",
		})
		return
	}

	s.deliverReport(w, r, workbook, reports.ActivityReportFilename(from, to), len(entries))
}

func (s *Server) inventoryReportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.unitRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	levels, err := s.unitRepo.Levels(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to fetch inventory levels",
		})
		return
	}

	entries := make([]models.InventoryLevel, 0, len(levels))
	for _, level := range levels {
		entries = append(entries, *level)
	}

	workbook, err := reports.GenerateInventoryReport(entries)
	if err != nil {
		log.Printf("Error generating inventory report: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to generate report",
		})
		return
	}

	s.deliverReport(w, r, workbook, reports.InventoryReportFilename(time.Now().UTC()), len(entries))
}

// deliverReport uploads the workbook to S3 and returns a presigned link, or
// streams the bytes directly when S3 is not configured.
func (s *Server) deliverReport(w http.ResponseWriter, r *http.Request, workbook []byte, key string, rows int) {
	if s.s3 != nil {
		result, err := s.s3.PublishReport(r.Context(), key, workbook, reports.ContentTypeXLSX)
		if err != nil {
			log.Printf("Error publishing report %s: %v", key, err)
			writeJSON(w, http.StatusInternalServerError, Response{
				Success: false,
				Error:   "Failed to store report",
			})
			return
		}

		writeJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Report generated",
			Data: map[string]interface{}{
				"download_url": result.URL,
				"key":          result.Key,
				"expires_at":   result.ExpiresAt,
				"rows":         rows,
			},
		})
		return
	}

	// No S3: stream directly
	w.Header().Set("Content-Type", reports.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(key)))
	w.WriteHeader(http.StatusOK)
	w.Write(workbook)
}

// reportsListHandler lists previously generated reports in the archive.
func (s *Server) reportsListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.s3 == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Report archive not configured",
		})
		return
	}

	objects, err := s.s3.ListReports(r.Context(), 100)
	if err != nil {
		log.Printf("Error listing reports: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list reports",
		})
		return
	}

	type reportEntry struct {
		Key          string    `json:"key"`
		SizeBytes    int64     `json:"size_bytes"`
		LastModified time.Time `json:"last_modified"`
	}

	entries := make([]reportEntry, 0, len(objects))
	for _, obj := range objects {
		entry := reportEntry{}
		if obj.Key != nil {
			entry.Key = *obj.Key
		}
		if obj.Size != nil {
			entry.SizeBytes = *obj.Size
		}
		if obj.LastModified != nil {
			entry.LastModified = *obj.LastModified
		}
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"reports": entries,
			"count":   len(entries),
		},
	})
}

func (s *Server) presignedURLHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PresignedURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	if req.Filename == "" {
		req.Filename = "donors_" + uuid.New().String()[:8] + ".csv"
	}

	if s.s3 != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "text/csv"
		}

		key := s3service.ImportKey(req.Filename)
		result, err := s.s3.GeneratePresignedUploadURL(r.Context(), key, contentType, s3service.DefaultUploadExpiryMinutes)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, Response{
				Success: false,
				Error:   "Failed to generate upload URL",
			})
			return
		}

		writeJSON(w, http.StatusOK, Response{
			Success: true,
			Data: PresignedURLResponse{
				URL:     result.URL,
				Key:     result.Key,
				Expires: s3service.DefaultUploadExpiryMinutes * 60,
			},
		})
		return
	}

	// For local development, return a mock presigned URL that points to our upload endpoint
	key := fmt.Sprintf("uploads/%d_%s", time.Now().Unix(), req.Filename)

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: PresignedURLResponse{
			URL:     fmt.Sprintf("http://localhost:%s/api/upload?key=%s", getEnvOrDefault("PORT", "8080"), key),
			Key:     key,
			Expires: 3600,
		},
	})
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPut {
		// Handle presigned URL upload (S3-style)
		s.handlePresignedUpload(w, r)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log.Printf("📤 CSV Upload request received")

	// Handle multipart form upload
	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10MB max
		log.Printf("Failed to parse form: %v", err)
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Failed to parse form: " + err.Error(),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Printf("No file in form: %v", err)
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "No file provided",
		})
		return
	}
	defer file.Close()

	log.Printf("📄 Processing file: %s (%.2f KB)", header.Filename, float64(header.Size)/1024)

	// Validate file type
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Only CSV files are allowed",
		})
		return
	}

	// Read file content
	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to read file",
		})
		return
	}

	// Structure check before full parsing
	validation, err := utils.ValidateCSVStructure(string(content))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to validate CSV",
		})
		return
	}
	if !validation.Valid {
		errMsg := "CSV file contains no data rows"
		if len(validation.MissingColumns) > 0 {
			errMsg = "Missing required columns: " + strings.Join(validation.MissingColumns, ", ")
		} else if len(validation.Errors) > 0 {
			errMsg = validation.Errors[0]
		}
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   errMsg,
		})
		return
	}

	// Process the CSV
	result, err := s.processCSVContent(r.Context(), content, header.Filename)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "CSV processed successfully",
		Data:    result,
	})
}

func (s *Server) handlePresignedUpload(w http.ResponseWriter, r *http.Request) {
	// Read the raw body (CSV content)
	content, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	// Store temporarily for processing
	key := r.URL.Query().Get("key")
	filename := filepath.Base(key)
	if filename == "" {
		filename = "upload.csv"
	}

	// Save to temp file
	tempDir := os.TempDir()
	tempFile := filepath.Join(tempDir, filename)
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		http.Error(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Get the key from request
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request",
		})
		return
	}

	// Read from temp file
	filename := filepath.Base(req.Key)
	tempFile := filepath.Join(os.TempDir(), filename)

	content, err := os.ReadFile(tempFile)
	if err != nil {
		writeJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "File not found. Please upload again.",
		})
		return
	}

	// Process
	result, err := s.processCSVContent(r.Context(), content, filename)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	// Cleanup temp file
	os.Remove(tempFile)

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "CSV processed successfully",
		Data:    result,
	})
}

func (s *Server) processCSVContent(ctx context.Context, content []byte, filename string) (*UploadResponse, error) {
	startTime := time.Now()
	batchID := fmt.Sprintf("batch_%d", time.Now().Unix())

	log.Printf("Processing CSV: %s (BatchID: %s)", filename, batchID)

	// Parse CSV
	parser := utils.NewCSVParser()
	donors, parseErrors := parser.ParseDonors(string(content), batchID)

	log.Printf("Parsed: %d valid donors, %d errors", len(donors), len(parseErrors))

	// Log first few errors for debugging
	if len(parseErrors) > 0 {
		log.Printf("Parse errors:")
		for i, err := range parseErrors {
			if i >= 5 { // Only log first 5 errors
				log.Printf("   ... and %d more errors", len(parseErrors)-5)
				break
			}
			log.Printf("   - %v", err)
		}
	}

	result := &UploadResponse{
		BatchID:     batchID,
		TotalRows:   len(donors) + len(parseErrors),
		ValidDonors: len(donors),
		Errors:      len(parseErrors),
	}

	// If no database connection, return parse results only
	if s.db == nil || s.donorRepo == nil {
		result.ProcessingMs = time.Since(startTime).Milliseconds()
		return result, nil
	}

	// Save donors to database and collect IDs
	var donorIDs []int64
	for _, donor := range donors {
		id, err := s.donorRepo.Create(ctx, donor)
		if err != nil {
			log.Printf("Warning: Could not save donor %s: %v", donor.DonorCode, err)
			continue
		}
		donorIDs = append(donorIDs, id)
	}

	log.Printf("💾 Saved %d donors to database", len(donorIDs))

	// Seed cached deferral flags for the saved donors
	if len(donorIDs) > 0 {
		deferred, err := s.seedDeferralFlags(ctx, donorIDs)
		if err != nil {
			log.Printf("Warning: Could not seed deferral flags: %v", err)
		}
		result.Deferred = deferred
	}

	result.ProcessingMs = time.Since(startTime).Milliseconds()
	return result, nil
}

// seedDeferralFlags runs an eligibility check for the given donors and stores
// the verdicts in the cached deferral columns. Returns how many are deferred.
func (s *Server) seedDeferralFlags(ctx context.Context, donorIDs []int64) (int, error) {
	donors, err := s.donorRepo.GetByIDs(ctx, donorIDs)
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

		if err := s.donorRepo.UpdateDeferralStatus(ctx, donor.ID, temporary, permanent, summary.NextEligibleDate); err != nil {
			return deferred, err
		}
		if temporary || permanent {
			deferred++
		}
	}

	return deferred, nil
}

func (s *Server) clearDataHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Database not available",
		})
		return
	}

	log.Printf("Clearing all data")

	// Child tables first to satisfy foreign keys
	tables := []string{"blood_units", "donations", "appointments", "blood_requests", "donors"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(r.Context(), "DELETE FROM "+table); err != nil {
			log.Printf("Error clearing %s: %v", table, err)
			writeJSON(w, http.StatusInternalServerError, Response{
				Success: false,
				Error:   fmt.Sprintf("Failed to clear %s: %v", table, err),
			})
			return
		}
	}

	log.Printf("All data cleared successfully")

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "All data cleared successfully",
	})
}

// parseStatusPath extracts the numeric ID from a "{prefix}{id}/status" path.
// Writes the error response and returns false when the path does not match.
func parseStatusPath(w http.ResponseWriter, path, prefix string) (int64, bool) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, prefix), "/"), "/")
	if len(parts) != 2 || parts[1] != "status" {
		writeJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Not found",
		})
		return 0, false
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid id",
		})
		return 0, false
	}

	return id, true
}

// newConfirmationCode returns a short human-readable booking code.
func newConfirmationCode() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

// parseDateParam accepts YYYY-MM-DD or RFC 3339 timestamps.
func parseDateParam(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
