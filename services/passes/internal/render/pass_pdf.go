package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/boombuler/barcode/qr"
	"github.com/phpdave11/gofpdf"
	"github.com/phpdave11/gofpdf/contrib/barcode"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func partyLabel(v domain.Variant) string {
	switch v {
	case domain.VariantDelivery:
		return "Delivery Company"
	case domain.VariantCab:
		return "Ride-hailing App"
	default:
		return "Visitor Name"
	}
}

// PassPDF renders a printable gate pass. The QR code carries only the pass identifier so the
// guard can scan it without a database lookup.
func PassPDF(h domain.Handoff) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(h.Variant.Label(), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, strings.ToUpper(h.Variant.Label()), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	key := barcode.RegisterQR(pdf, h.PassID, qr.M, qr.Auto)
	pageW, _ := pdf.GetPageSize()
	const qrSize = 50.0
	barcode.Barcode(pdf, key, (pageW-qrSize)/2, pdf.GetY(), qrSize, qrSize, false)
	pdf.SetY(pdf.GetY() + qrSize + 4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, h.PassID, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("%-18s: %s", partyLabel(h.Variant), safe(h.PartyName, "-")),
		fmt.Sprintf("%-18s: %s", "Phone", safe(h.PhoneNumber, "-")),
	}
	if h.Variant == domain.VariantCab {
		lines = append(lines, fmt.Sprintf("%-18s: %s", "Vehicle", safe(h.VehicleNumber, "-")))
	}
	lines = append(lines,
		fmt.Sprintf("%-18s: %s", "Purpose", safe(h.Purpose, "-")),
		fmt.Sprintf("%-18s: %s", "Unit", safe(h.UnitCode, domain.GuestPrefix)),
		fmt.Sprintf("%-18s: %s %s", "Valid From", h.FromDate, h.FromTime),
		fmt.Sprintf("%-18s: %s %s", "Valid Until", h.ToDate, h.ToTime),
		fmt.Sprintf("%-18s: #%s", "Record", h.DBRecordID),
	)
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Show this pass at the gate. Issued "+h.GeneratedAt+".", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := "PASS_" + unsafeFilename.ReplaceAllString(h.PassID, "_") + ".pdf"
	return buf.Bytes(), filename, nil
}
