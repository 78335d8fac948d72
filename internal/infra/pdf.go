package infra

// pdf.go — Closing statement generation using go-pdf/fpdf.
// Generates an A5 statement for a financially closed job with:
//   - Job id, title and customer
//   - Grand total
//   - Pre-payment and final-payment breakdown per method
//   - Discount line (if applicable)
//   - Bold remaining balance (zero when closed)
//
// The output file is saved to storagePath/statement_{jobID}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/mudogruer/istakip-18.01.26/internal/model"
)

// GenerateClosingStatementPDF renders the financial closure statement for a
// job. storagePath is the directory where the PDF will be written (created if
// needed). Returns the absolute path to the generated file.
func GenerateClosingStatementPDF(job *model.Job, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("statement_%s.pdf", job.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Closing Statement", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, job.Title, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	// ── Job info ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, job.ID, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, "Customer: "+job.CustomerName, "", 1, "L", false, 0, "")
	if job.Finance.ClosedAt != nil {
		pdf.CellFormat(contentW, 4, "Closed: "+job.Finance.ClosedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(3)

	labelW := contentW * 0.65
	amountW := contentW * 0.35

	row := func(label string, amount decimal.Decimal, sign string) {
		pdf.CellFormat(labelW, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(amountW, 5, sign+amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	// ── Amounts ──────────────────────────────────────────────────────────────
	fin := job.Finance

	pdf.SetFont("Helvetica", "B", 9)
	row("Total", fin.Total, "")
	pdf.SetFont("Helvetica", "", 8)

	pre := fin.PrePayments
	if !pre.Cash.IsZero() {
		row("Pre-payment (cash)", pre.Cash, "-")
	}
	if !pre.Card.IsZero() {
		row("Pre-payment (card)", pre.Card, "-")
	}
	if !pre.Cheque.IsZero() {
		row("Pre-payment (cheque)", pre.Cheque, "-")
	}

	final := fin.FinalPayments
	if !final.Cash.IsZero() {
		row("Payment (cash)", final.Cash, "-")
	}
	if !final.Card.IsZero() {
		row("Payment (card)", final.Card, "-")
	}
	if !final.Cheque.IsZero() {
		row("Payment (cheque)", final.Cheque, "-")
	}

	if fin.Discount != nil && !fin.Discount.Amount.IsZero() {
		label := "Discount"
		if fin.Discount.Note != "" {
			label += " (" + fin.Discount.Note + ")"
		}
		row(label, fin.Discount.Amount, "-")
	}

	pdf.Ln(2)
	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(2)

	paid := pre.Cash.Add(pre.Card).Add(pre.Cheque).
		Add(final.Cash).Add(final.Card).Add(final.Cheque)
	balance := fin.Total.Sub(paid)
	if fin.Discount != nil {
		balance = balance.Sub(fin.Discount.Amount)
	}

	pdf.SetFont("Helvetica", "B", 11)
	row("BALANCE", balance, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
