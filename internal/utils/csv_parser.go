// Package utils provides utility functions for the blood donation engine.
package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"blood-donation-engine/internal/models"
)

// CSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
	ErrInvalidRowData = errors.New("invalid row data")
)

// RequiredColumns defines the columns that must be present in the CSV.
var RequiredColumns = []string{
	"donor_code",
	"name",
	"email",
	"blood_type",
	"date_of_birth",
}

// OptionalColumns are recognized but not required.
var OptionalColumns = []string{
	"phone",
	"last_donation_date",
}

// ColumnAliases maps alternative column names to standard names.
var ColumnAliases = map[string]string{
	// donor_code aliases
	"donorcode":  "donor_code",
	"donor code": "donor_code",
	"donor_id":   "donor_code",
	"donorid":    "donor_code",
	"donor id":   "donor_code",
	"code":       "donor_code",

	// name aliases
	"full_name":  "name",
	"fullname":   "name",
	"full name":  "name",
	"donor_name": "name",
	"donorname":  "name",

	// email aliases
	"emailaddress":  "email",
	"email_address": "email",
	"mail":          "email",

	// blood_type aliases
	"bloodtype":   "blood_type",
	"blood type":  "blood_type",
	"blood_group": "blood_type",
	"bloodgroup":  "blood_type",
	"blood group": "blood_type",
	"abo":         "blood_type",

	// date_of_birth aliases
	"dateofbirth":   "date_of_birth",
	"date of birth": "date_of_birth",
	"dob":           "date_of_birth",
	"birth_date":    "date_of_birth",
	"birthdate":     "date_of_birth",
	"birth date":    "date_of_birth",

	// phone aliases
	"phone_number": "phone",
	"phonenumber":  "phone",
	"phone number": "phone",
	"mobile":       "phone",
	"contact":      "phone",

	// last_donation_date aliases
	"lastdonationdate":   "last_donation_date",
	"last donation date": "last_donation_date",
	"last_donation":      "last_donation_date",
	"lastdonation":       "last_donation_date",
	"last donation":      "last_donation_date",
}

// dateLayouts are the accepted date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
}

// CSVParser handles parsing of donor CSV files.
type CSVParser struct {
	columnMapping map[string]int
}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{
		columnMapping: make(map[string]int),
	}
}

// ParseDonors parses CSV content and returns a slice of DonorCreate objects.
func (p *CSVParser) ParseDonors(content string, batchID string) ([]*models.DonorCreate, []error) {
	if strings.TrimSpace(content) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	// Build column mapping
	if err := p.buildColumnMapping(header); err != nil {
		return nil, []error{err}
	}

	// Parse data rows
	var donors []*models.DonorCreate
	var parseErrors []error
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		donor, err := p.parseRow(record, batchID)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		// Validate donor
		if err := models.ValidateDonorCreate(donor); err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		donors = append(donors, donor)
	}

	if len(donors) == 0 && len(parseErrors) > 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return donors, parseErrors
}

// buildColumnMapping creates a mapping of standard column names to their indices.
func (p *CSVParser) buildColumnMapping(header []string) error {
	p.columnMapping = make(map[string]int)

	for i, col := range header {
		// Normalize column name
		normalized := strings.ToLower(strings.TrimSpace(col))

		// Apply alias if exists
		if alias, ok := ColumnAliases[normalized]; ok {
			normalized = alias
		}

		p.columnMapping[normalized] = i
	}

	// Check for required columns
	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := p.columnMapping[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

// parseRow parses a single CSV row into a DonorCreate object.
func (p *CSVParser) parseRow(record []string, batchID string) (*models.DonorCreate, error) {
	getValue := func(column string) (string, error) {
		idx, ok := p.columnMapping[column]
		if !ok {
			return "", fmt.Errorf("column %s not found", column)
		}
		if idx >= len(record) {
			return "", fmt.Errorf("column %s index out of range", column)
		}
		return strings.TrimSpace(record[idx]), nil
	}

	getOptional := func(column string) string {
		idx, ok := p.columnMapping[column]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	donorCode, err := getValue("donor_code")
	if err != nil {
		return nil, err
	}

	name, err := getValue("name")
	if err != nil {
		return nil, err
	}

	email, err := getValue("email")
	if err != nil {
		return nil, err
	}

	bloodTypeStr, err := getValue("blood_type")
	if err != nil {
		return nil, err
	}
	bloodType := models.NormalizeBloodType(bloodTypeStr)

	dobStr, err := getValue("date_of_birth")
	if err != nil {
		return nil, err
	}
	dateOfBirth, err := parseDate(dobStr)
	if err != nil {
		return nil, fmt.Errorf("invalid date_of_birth: %w", err)
	}

	donor := &models.DonorCreate{
		DonorCode:   donorCode,
		Name:        name,
		Email:       email,
		Phone:       getOptional("phone"),
		BloodType:   bloodType,
		DateOfBirth: dateOfBirth,
		BatchID:     batchID,
	}

	if lastStr := getOptional("last_donation_date"); lastStr != "" {
		lastDonation, err := parseDate(lastStr)
		if err != nil {
			return nil, fmt.Errorf("invalid last_donation_date: %w", err)
		}
		donor.LastDonationDate = &lastDonation
	}

	return donor, nil
}

// parseDate parses a date string, trying the accepted layouts in order.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty value")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// ValidateCSVStructure performs a quick validation of CSV structure without full parsing.
func ValidateCSVStructure(content string) (*CSVValidationResult, error) {
	result := &CSVValidationResult{
		Valid:          false,
		RowCount:       0,
		Columns:        []string{},
		MissingColumns: []string{},
		Errors:         []string{},
	}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, "empty file")
		return result, nil
	}

	reader := csv.NewReader(strings.NewReader(content))

	// Read header
	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read header: %v", err))
		return result, nil
	}

	// Normalize and check columns
	normalizedColumns := make(map[string]bool)
	for _, col := range header {
		normalized := strings.ToLower(strings.TrimSpace(col))
		if alias, ok := ColumnAliases[normalized]; ok {
			normalized = alias
		}
		normalizedColumns[normalized] = true
		result.Columns = append(result.Columns, col)
	}

	// Check for required columns
	for _, required := range RequiredColumns {
		if !normalizedColumns[required] {
			result.MissingColumns = append(result.MissingColumns, required)
		}
	}

	// Count rows
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row error: %v", err))
			continue
		}
		result.RowCount++
	}

	result.Valid = len(result.MissingColumns) == 0 && result.RowCount > 0

	return result, nil
}

// CSVValidationResult contains the results of CSV validation.
type CSVValidationResult struct {
	Valid          bool     `json:"valid"`
	RowCount       int      `json:"row_count"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns"`
	Errors         []string `json:"errors"`
}
