package certificate

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Data carries everything needed to render one certificate.
type Data struct {
	CertificateID string
	HolderName    string
	HolderEmail   string
	Level         string
	Score         int
	IssuedDate    time.Time
}

// Render produces a single-page A4 landscape certificate PDF.
func Render(d Data) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetY(50)
	pdf.CellFormat(0, 16, "Certificate of Competency", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.Ln(8)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")

	holder := d.HolderName
	if holder == "" {
		holder = d.HolderEmail
	}
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Ln(4)
	pdf.CellFormat(0, 12, holder, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.Ln(4)
	pdf.CellFormat(0, 8, "has achieved competency level", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 36)
	pdf.Ln(2)
	pdf.CellFormat(0, 18, d.Level, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.Ln(6)
	pdf.CellFormat(0, 7, fmt.Sprintf("Score: %d%%", d.Score), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Issued on %s", d.IssuedDate.Format("January 2, 2006")), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetY(-30)
	pdf.CellFormat(0, 6, fmt.Sprintf("Certificate ID: %s", d.CertificateID), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}

	return buf.Bytes(), nil
}
