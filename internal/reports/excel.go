package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/hostelite/hostel-backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of generated spreadsheets
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const exportTimeLayout = "2006-01-02 15:04:05"

// PaymentExportHeader lists the columns of the payments export
var PaymentExportHeader = []string{
	"Payment ID",
	"Student",
	"Amount",
	"Currency",
	"Status",
	"Month",
	"Order ID",
	"Gateway Payment ID",
	"Created At",
}

// UserExportHeader lists the columns of the users export
var UserExportHeader = []string{
	"User ID",
	"Name",
	"Email",
	"Role",
	"Room",
	"Created At",
}

// PaymentsWorkbook renders payments as an xlsx file
func PaymentsWorkbook(payments []models.Payment) ([]byte, error) {
	rows := make([][]interface{}, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []interface{}{
			p.ID.String(),
			p.StudentName,
			p.Amount.InexactFloat64(),
			p.Currency,
			p.Status,
			p.Month.String,
			p.OrderID.String,
			p.GatewayPaymentID.String,
			p.CreatedAt.UTC().Format(exportTimeLayout),
		})
	}
	return buildWorkbook("Payments", PaymentExportHeader, []float64{38, 24, 12, 10, 12, 12, 24, 24, 20}, rows)
}

// UsersWorkbook renders users as an xlsx file
func UsersWorkbook(users []models.UserWithRoom) ([]byte, error) {
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, []interface{}{
			u.ID.String(),
			u.Name,
			u.Email,
			u.Role,
			u.RoomNumber.String,
			u.CreatedAt.UTC().Format(exportTimeLayout),
		})
	}
	return buildWorkbook("Users", UserExportHeader, []float64{38, 24, 30, 10, 10, 20}, rows)
}

// ExportFileName returns a timestamped file name such as payments_20240102.xlsx
func ExportFileName(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, at.UTC().Format("20060102"))
}

func buildWorkbook(sheetName string, headers []string, widths []float64, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}

		if col < len(widths) {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return nil, fmt.Errorf("failed to convert column number: %w", err)
			}
			if err := f.SetColWidth(sheetName, name, name, widths[col]); err != nil {
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
