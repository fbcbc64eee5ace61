// Package export writes booking listings to xlsx workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"roomrenting/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{
	"Booking ID", "Room ID", "Building", "Room Type", "Customer",
	"Check-in", "Check-out", "Total", "Paid", "Payment Status", "Status",
}

// Exporter writes workbooks under dir.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
	now    func() time.Time
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger, now: time.Now}
}

// Bookings writes one row per booking and returns the file path.
func (e *Exporter) Bookings(bookings []models.Booking) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	unpaidStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FCE4D6"}, Pattern: 1},
	})

	for i, b := range bookings {
		row := i + 2
		values := []any{
			b.BookingID, b.RoomID, b.BuildingName, b.RoomType, b.CustomerName,
			b.CheckInDate, b.CheckOutDate, b.TotalAmount.Major(), b.PaymentAmount.Major(),
			b.PaymentStatus, b.Status,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return "", fmt.Errorf("error writing row %d: %w", row, err)
		}

		totalCell, _ := excelize.CoordinatesToCellName(8, row)
		paidCell, _ := excelize.CoordinatesToCellName(9, row)
		_ = f.SetCellStyle(sheetName, totalCell, paidCell, moneyStyle)

		if b.PaymentStatus != models.PaymentStatusCompleted && b.Status != models.BookingStatusCancelled {
			statusCell, _ := excelize.CoordinatesToCellName(10, row)
			_ = f.SetCellStyle(sheetName, statusCell, statusCell, unpaidStyle)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 12)
	_ = f.SetColWidth(sheetName, "C", "E", 22)
	_ = f.SetColWidth(sheetName, "F", "K", 15)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s.xlsx", e.now().Format("2006-01-02_150405"))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	if e.logger != nil {
		e.logger.Info().Str("file_path", filePath).Int("rows", len(bookings)).Msg("Excel file created")
	}
	return filePath, nil
}
