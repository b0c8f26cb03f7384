package reports

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/hostelite/hostel-backend/internal/models"
)

// PDFContentType is the MIME type of generated documents
const PDFContentType = "application/pdf"

const receiptTimeLayout = "02 Jan 2006 15:04 MST"

// PaymentReceipt renders the receipt of a completed payment
func PaymentReceipt(payment *models.Payment) ([]byte, error) {
	pdf := newDocument("Hostelite Payment Receipt")

	rows := [][2]string{
		{"Receipt No", payment.ReceiptNumber()},
		{"Student", payment.StudentName},
		{"Amount", payment.Currency + " " + payment.Amount.StringFixed(2)},
		{"Description", payment.Description},
		{"Month", orDash(payment.Month.String)},
		{"Status", strings.ToUpper(payment.Status)},
		{"Order ID", orDash(payment.OrderID.String)},
		{"Payment ID", orDash(payment.GatewayPaymentID.String)},
	}
	if payment.CompletedAt.Valid {
		rows = append(rows, [2]string{"Paid On", payment.CompletedAt.Time.UTC().Format(receiptTimeLayout)})
	}
	writeTable(pdf, rows)

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "This is a computer generated receipt.", "", 1, "C", false, 0, "")

	return render(pdf)
}

// ProfileDocument renders a resident's submitted profile
func ProfileDocument(profile *models.UserProfile) ([]byte, error) {
	pdf := newDocument("Hostelite Resident Profile")

	rows := [][2]string{
		{"Full Name", profile.FullName},
		{"Role", profile.Role},
		{"Father's Name", orDash(profile.FatherName.String)},
		{"Mother's Name", orDash(profile.MotherName.String)},
		{"Phone", profile.Phone},
		{"Address", orDash(profile.Address.String)},
		{"Permanent Address", orDash(profile.PermanentAddress.String)},
		{"Aadhaar Number", orDash(profile.AadhaarNumber.String)},
	}

	switch profile.StudentType.String {
	case models.StudentTypeUniversity:
		rows = append(rows,
			[2]string{"Student Type", "University Student"},
			[2]string{"University", orDash(profile.UniversityName.String)},
		)
	case models.StudentTypeProfessional:
		rows = append(rows,
			[2]string{"Student Type", "Working Professional"},
			[2]string{"Company", orDash(profile.CompanyName.String)},
		)
	}

	rows = append(rows,
		[2]string{"Profile Photo", profile.ProfilePhoto},
		[2]string{"Aadhaar Photo", profile.AadhaarPhoto},
		[2]string{"Submitted On", profile.CreatedAt.UTC().Format(receiptTimeLayout)},
	)
	writeTable(pdf, rows)

	return render(pdf)
}

func newDocument(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("Hostelite", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.Ln(6)
	return pdf
}

func writeTable(pdf *fpdf.Fpdf, rows [][2]string) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFillColor(230, 243, 255)

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(55, 9, tr(row[0]), "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 9, tr(row[1]), "1", "L", false)
	}
}

func render(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
