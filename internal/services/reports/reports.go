// Package reports generates Excel workbooks for donation activity and inventory levels.
package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"blood-donation-engine/internal/models"
)

// ContentTypeXLSX is the MIME type for generated workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DonationActivityHeader is the column layout of the donation activity report.
var DonationActivityHeader = []string{
	"Donor Code",
	"Donor Name",
	"Blood Type",
	"Volume (mL)",
	"Donated At",
	"Donation Center",
}

// InventoryHeader is the column layout of the inventory level report.
var InventoryHeader = []string{
	"Blood Type",
	"Available Units",
	"Reserved Units",
	"Total Volume (mL)",
}

var donationActivityWidths = []float64{15, 25, 12, 14, 22, 30}

var inventoryWidths = []float64{12, 16, 16, 20}

// GenerateDonationActivityReport builds a workbook listing every donation in the
// period with a totals row at the bottom.
func GenerateDonationActivityReport(activity []models.DonationActivity) ([]byte, error) {
	rows := make([][]interface{}, 0, len(activity)+1)

	totalVolume := 0
	for _, entry := range activity {
		rows = append(rows, []interface{}{
			entry.DonorCode,
			entry.DonorName,
			string(entry.BloodType),
			entry.VolumeML,
			entry.DonatedAt.Format("2006-01-02 15:04:05"),
			entry.CenterName,
		})
		totalVolume += entry.VolumeML
	}

	rows = append(rows, []interface{}{
		"Total",
		fmt.Sprintf("%d donations", len(activity)),
		"",
		totalVolume,
		"",
		"",
	})

	return writeWorkbook("Donation Activity", DonationActivityHeader, donationActivityWidths, rows)
}

// GenerateInventoryReport builds a workbook with one row per blood type and a
// totals row at the bottom.
func GenerateInventoryReport(levels []models.InventoryLevel) ([]byte, error) {
	rows := make([][]interface{}, 0, len(levels)+1)

	totalAvailable := 0
	totalReserved := 0
	var totalVolume int64
	for _, level := range levels {
		rows = append(rows, []interface{}{
			string(level.BloodType),
			level.Available,
			level.Reserved,
			level.TotalVolumeML,
		})
		totalAvailable += level.Available
		totalReserved += level.Reserved
		totalVolume += level.TotalVolumeML
	}

	rows = append(rows, []interface{}{
		"Total",
		totalAvailable,
		totalReserved,
		totalVolume,
	})

	return writeWorkbook("Inventory Levels", InventoryHeader, inventoryWidths, rows)
}

// ActivityReportFilename returns the S3 key for a donation activity report.
func ActivityReportFilename(from, to time.Time) string {
	return fmt.Sprintf("reports/donations_%s_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// InventoryReportFilename returns the S3 key for an inventory level report.
func InventoryReportFilename(at time.Time) string {
	return fmt.Sprintf("reports/inventory_%s.xlsx", at.Format("2006-01-02"))
}

// writeWorkbook renders a single-sheet workbook with a styled, frozen header row.
func writeWorkbook(sheetName string, headers []string, widths []float64, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	// Note: don't defer Close() here, WriteTo needs the file to be open

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FDEDEC"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(widths) && widths[i] > 0 {
			if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			if value == nil || value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at %s: %w", cell, err)
			}
		}
	}

	// Freeze the header row
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	// File must remain open during the write
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}
