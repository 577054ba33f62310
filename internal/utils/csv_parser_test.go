// Package utils_test contains unit tests for the donor CSV parser
package utils_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blood-donation-engine/internal/models"
	"blood-donation-engine/internal/utils"
)

func TestCSVParser_ValidFile(t *testing.T) {
	csvContent := `donor_code,name,email,phone,blood_type,date_of_birth,last_donation_date
D10001,Aarav Sharma,aarav@example.com,+91-98100-11001,O+,1990-03-14,2025-05-12
D10002,Priya Nair,priya@example.com,,A-,1985-11-02,`

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "test-batch-001")

	require.Empty(t, errors, "Expected no parse errors")
	require.Len(t, donors, 2, "Expected 2 donors")

	// Verify first donor
	assert.Equal(t, "D10001", donors[0].DonorCode)
	assert.Equal(t, "Aarav Sharma", donors[0].Name)
	assert.Equal(t, "aarav@example.com", donors[0].Email)
	assert.Equal(t, "+91-98100-11001", donors[0].Phone)
	assert.Equal(t, models.BloodTypeOPositive, donors[0].BloodType)
	assert.Equal(t, time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC), donors[0].DateOfBirth)
	require.NotNil(t, donors[0].LastDonationDate)
	assert.Equal(t, time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), *donors[0].LastDonationDate)
	assert.Equal(t, "test-batch-001", donors[0].BatchID)

	// Second donor has no donation history
	assert.Nil(t, donors[1].LastDonationDate)
}

func TestCSVParser_ColumnAliases(t *testing.T) {
	// Test with alternative column names (aliases)
	csvContent := `donorid,full_name,email_address,bloodgroup,dob
D10001,Aarav Sharma,aarav@example.com,O+,1990-03-14`

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "batch-123")

	require.Empty(t, errors, "Expected no parse errors")
	require.Len(t, donors, 1, "Expected 1 donor")

	assert.Equal(t, "D10001", donors[0].DonorCode)
	assert.Equal(t, "Aarav Sharma", donors[0].Name)
	assert.Equal(t, models.BloodTypeOPositive, donors[0].BloodType)
}

func TestCSVParser_MissingRequiredColumns(t *testing.T) {
	// Missing blood_type column
	csvContent := `donor_code,name,email,date_of_birth
D10001,Aarav Sharma,aarav@example.com,1990-03-14`

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "test-batch")

	assert.Empty(t, donors, "Expected no valid donors")
	assert.NotEmpty(t, errors, "Expected errors for missing columns")
}

func TestCSVParser_EmptyFile(t *testing.T) {
	csvContent := ``

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "test-batch")

	assert.Empty(t, donors, "Expected no donors")
	assert.NotEmpty(t, errors, "Expected error for empty file")
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	csvContent := `donor_code,name,email,blood_type,date_of_birth`

	parser := utils.NewCSVParser()
	donors, _ := parser.ParseDonors(csvContent, "test-batch")

	// No data rows means no donors
	assert.Empty(t, donors, "Expected no donors")
}

func TestCSVParser_InvalidBloodType(t *testing.T) {
	csvContent := `donor_code,name,email,blood_type,date_of_birth
D10001,Aarav Sharma,aarav@example.com,C+,1990-03-14`

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "test-batch")

	assert.Empty(t, donors, "Expected no valid donors")
	assert.NotEmpty(t, errors, "Expected validation error")
}

func TestCSVParser_InvalidEmail(t *testing.T) {
	csvContent := `donor_code,name,email,blood_type,date_of_birth
D10001,Aarav Sharma,not-an-email,O+,1990-03-14`

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "test-batch")

	assert.Empty(t, donors, "Expected no valid donors")
	assert.NotEmpty(t, errors, "Expected validation error for invalid email")
}

func TestCSVParser_FutureDateOfBirth(t *testing.T) {
	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	csvContent := `donor_code,name,email,blood_type,date_of_birth
D10001,Aarav Sharma,aarav@example.com,O+,` + future

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "test-batch")

	assert.Empty(t, donors, "Expected no valid donors")
	assert.NotEmpty(t, errors, "Expected validation error for future date of birth")
}

func TestCSVParser_InvalidLastDonationDate(t *testing.T) {
	csvContent := `donor_code,name,email,blood_type,date_of_birth,last_donation_date
D10001,Aarav Sharma,aarav@example.com,O+,1990-03-14,not-a-date`

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "test-batch")

	assert.Empty(t, donors, "Expected no valid donors")
	assert.NotEmpty(t, errors, "Expected error for unparseable donation date")
}

func TestCSVParser_PartiallyValidFile(t *testing.T) {
	// Mix of valid and invalid rows
	csvContent := `donor_code,name,email,blood_type,date_of_birth
D10001,Aarav Sharma,aarav@example.com,O+,1990-03-14
D10002,Priya Nair,invalid-email,A-,1985-11-02
D10003,Rohan Mehta,rohan@example.com,B+,1992-01-20`

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "test-batch")

	assert.Len(t, donors, 2, "Expected 2 valid donors")
	assert.Len(t, errors, 1, "Expected 1 error for invalid email")
}

func TestCSVParser_BloodTypeNormalization(t *testing.T) {
	testCases := []struct {
		input    string
		expected models.BloodType
	}{
		{"O+", models.BloodTypeOPositive},
		{"o+", models.BloodTypeOPositive},
		{"O Positive", models.BloodTypeOPositive},
		{"A NEG", models.BloodTypeANegative},
		{"ab pos", models.BloodTypeABPositive},
		{"AB Negative", models.BloodTypeABNegative},
		{"bneg", models.BloodTypeBNegative},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			csvContent := `donor_code,name,email,blood_type,date_of_birth
D10001,Test Donor,test@example.com,` + tc.input + `,1990-03-14`

			parser := utils.NewCSVParser()
			donors, errors := parser.ParseDonors(csvContent, "test-batch")

			require.Empty(t, errors)
			require.Len(t, donors, 1)
			assert.Equal(t, tc.expected, donors[0].BloodType)
		})
	}
}

func TestCSVParser_DateFormats(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Time
	}{
		{"1990-03-14", time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"03/14/1990", time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"1990/03/14", time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"14-Mar-1990", time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			csvContent := `donor_code,name,email,blood_type,date_of_birth
D10001,Test Donor,test@example.com,O+,` + tc.input

			parser := utils.NewCSVParser()
			donors, errors := parser.ParseDonors(csvContent, "test-batch")

			require.Empty(t, errors)
			require.Len(t, donors, 1)
			assert.Equal(t, tc.expected, donors[0].DateOfBirth)
		})
	}
}

func TestCSVParser_WhitespaceHandling(t *testing.T) {
	// Test with extra whitespace
	csvContent := `donor_code,name,email,blood_type,date_of_birth
  D10001  ,  Aarav Sharma  ,  aarav@example.com  ,  O+  ,  1990-03-14  `

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "test-batch")

	require.Empty(t, errors, "Expected no parse errors")
	require.Len(t, donors, 1, "Expected 1 donor")

	assert.Equal(t, "D10001", donors[0].DonorCode)
	assert.Equal(t, "aarav@example.com", donors[0].Email)
}

func TestCSVParser_LargeFile(t *testing.T) {
	// Generate CSV with 100 rows
	csvContent := "donor_code,name,email,blood_type,date_of_birth\n"
	for i := 1; i <= 100; i++ {
		csvContent += fmt.Sprintf("D%05d,Donor %d,donor%d@example.com,O+,1990-03-14\n", i, i, i)
	}

	parser := utils.NewCSVParser()
	donors, errors := parser.ParseDonors(csvContent, "test-batch")

	assert.Empty(t, errors, "Expected no parse errors")
	assert.Len(t, donors, 100, "Expected 100 donors")
}

func TestValidateCSVStructure(t *testing.T) {
	csvContent := `donor_code,name,email,blood_type,date_of_birth
D10001,Aarav Sharma,aarav@example.com,O+,1990-03-14
D10002,Priya Nair,priya@example.com,A-,1985-11-02`

	result, err := utils.ValidateCSVStructure(csvContent)

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 2, result.RowCount)
	assert.Empty(t, result.MissingColumns)
}

func TestValidateCSVStructure_MissingColumns(t *testing.T) {
	csvContent := `donor_code,name,email
D10001,Aarav Sharma,aarav@example.com`

	result, err := utils.ValidateCSVStructure(csvContent)

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.MissingColumns, "blood_type")
	assert.Contains(t, result.MissingColumns, "date_of_birth")
}
