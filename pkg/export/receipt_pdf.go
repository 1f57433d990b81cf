package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptDocument holds the fields printed on a return receipt.
type ReceiptDocument struct {
	ReceiptID      string
	ItemName       string
	ItemCategory   string
	Campus         string
	RecipientName  string
	DocumentNumber string
	RecipientPhone string
	HandledBy      string
	WitnessedBy    string
	ReturnedAt     time.Time
}

// ReceiptPDFRenderer renders a single return receipt into a printable PDF.
type ReceiptPDFRenderer struct{}

// NewReceiptPDFRenderer constructs the renderer.
func NewReceiptPDFRenderer() *ReceiptPDFRenderer {
	return &ReceiptPDFRenderer{}
}

// Render produces the PDF bytes for the given receipt.
func (r *ReceiptPDFRenderer) Render(doc ReceiptDocument) ([]byte, error) {
	if doc.ReceiptID == "" {
		return nil, fmt.Errorf("receipt id required")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "ITEM RETURN RECEIPT", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Receipt No. %s", strings.ToUpper(doc.ReceiptID)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Item", doc.ItemName},
		{"Category", doc.ItemCategory},
		{"Campus", doc.Campus},
		{"Recipient", doc.RecipientName},
		{"Document No.", doc.DocumentNumber},
		{"Phone", doc.RecipientPhone},
		{"Handled by", doc.HandledBy},
		{"Witnessed by", doc.WitnessedBy},
		{"Returned at", doc.ReturnedAt.Format("02 Jan 2006 15:04 MST")},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(135, 8, row[1], "1", 1, "", false, 0, "")
	}

	pdf.Ln(14)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(90, 6, "Recipient signature", "T", 0, "C", false, 0, "")
	pdf.CellFormat(10, 6, "", "", 0, "", false, 0, "")
	pdf.CellFormat(80, 6, "Staff signature", "T", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
