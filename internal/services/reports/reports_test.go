package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"blood-donation-engine/internal/models"
)

func TestGenerateDonationActivityReport_RowsAndTotals(t *testing.T) {
	activity := []models.DonationActivity{
		{
			DonorCode:  "D10001",
			DonorName:  "Jane Doe",
			BloodType:  models.BloodTypeOPositive,
			DonatedAt:  time.Date(2025, time.June, 1, 10, 30, 0, 0, time.UTC),
			VolumeML:   450,
			CenterName: "Central Blood Bank",
		},
		{
			DonorCode:  "D10002",
			DonorName:  "John Smith",
			BloodType:  models.BloodTypeABNegative,
			DonatedAt:  time.Date(2025, time.June, 3, 14, 0, 0, 0, time.UTC),
			VolumeML:   450,
			CenterName: "Westside Donation Center",
		},
	}

	data, err := GenerateDonationActivityReport(activity)
	assert.NoError(t, err, "Report generation should succeed")
	assert.NotEmpty(t, data, "Report should not be empty")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	assert.NoError(t, err, "Generated workbook should open")
	defer f.Close()

	rows, err := f.GetRows("Donation Activity")
	assert.NoError(t, err)
	assert.Len(t, rows, 4, "Should have header, two data rows and a totals row")

	assert.Equal(t, DonationActivityHeader, rows[0], "Header row should match")
	assert.Equal(t, "D10001", rows[1][0])
	assert.Equal(t, "o+", rows[1][2])
	assert.Equal(t, "450", rows[1][3])
	assert.Equal(t, "2025-06-01 10:30:00", rows[1][4])
	assert.Equal(t, "Central Blood Bank", rows[1][5])

	assert.Equal(t, "Total", rows[3][0], "Last row should be the totals row")
	assert.Equal(t, "2 donations", rows[3][1])
	assert.Equal(t, "900", rows[3][3], "Total volume should be summed")
}

func TestGenerateDonationActivityReport_EmptyPeriod(t *testing.T) {
	data, err := GenerateDonationActivityReport(nil)
	assert.NoError(t, err, "Empty activity should still produce a report")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	assert.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Donation Activity")
	assert.NoError(t, err)
	assert.Len(t, rows, 2, "Should have header and a totals row")
	assert.Equal(t, "0 donations", rows[1][1])
}

func TestGenerateInventoryReport_RowsAndTotals(t *testing.T) {
	levels := []models.InventoryLevel{
		{BloodType: models.BloodTypeAPositive, Available: 12, Reserved: 3, TotalVolumeML: 5400},
		{BloodType: models.BloodTypeONegative, Available: 4, Reserved: 1, TotalVolumeML: 1800},
	}

	data, err := GenerateInventoryReport(levels)
	assert.NoError(t, err, "Report generation should succeed")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	assert.NoError(t, err, "Generated workbook should open")
	defer f.Close()

	rows, err := f.GetRows("Inventory Levels")
	assert.NoError(t, err)
	assert.Len(t, rows, 4, "Should have header, two data rows and a totals row")

	assert.Equal(t, InventoryHeader, rows[0], "Header row should match")
	assert.Equal(t, []string{"a+", "12", "3", "5400"}, rows[1])
	assert.Equal(t, []string{"o-", "4", "1", "1800"}, rows[2])
	assert.Equal(t, []string{"Total", "16", "4", "7200"}, rows[3])
}

func TestReportFilenames(t *testing.T) {
	from := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "reports/donations_2025-06-01_2025-06-30.xlsx", ActivityReportFilename(from, to))
	assert.Equal(t, "reports/inventory_2025-06-30.xlsx", InventoryReportFilename(to))
}
