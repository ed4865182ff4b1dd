package excel

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"eventx/internal/domain"
)

const sheetName = "Bookings"

var headers = []string{
	"Booking ID", "Full Name", "Email", "Phone", "Roll Number", "Degree", "College",
	"Department", "Section", "Year", "Status", "Payment Status", "Payment ID", "Amount", "Booked At",
}

type exporter struct{}

// NewBookingExporter returns a BookingExporter writing .xlsx workbooks.
func NewBookingExporter() domain.BookingExporter {
	return exporter{}
}

func (exporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (exporter) FileExtension() string { return "xlsx" }

// Export writes one row per booking below a bold header row.
func (exporter) Export(w io.Writer, event *domain.Event, bookings []*domain.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: event.Title + " bookings", Creator: "eventx"}); err != nil {
		return fmt.Errorf("doc props: %w", err)
	}

	for i, h := range headers {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for r, b := range bookings {
		row := r + 2
		var paymentID, amount string
		if b.Payment != nil {
			paymentID = b.Payment.PaymentID
			amount = decimal.New(b.Payment.Amount, -2).StringFixed(2)
		}
		values := []any{
			b.BookingID, b.FullName, b.Email, b.Phone, b.RollNumber, b.Degree, b.College,
			b.Department, b.Section, b.Year, string(b.Status), string(b.PaymentStatus), paymentID, amount,
			b.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for c, v := range values {
			if err := setCell(f, c+1, row, v); err != nil {
				return err
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}
