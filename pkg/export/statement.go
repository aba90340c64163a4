// Package export renders instructor payout statements as PDF documents.
package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// StatementLine is one payment contributing to a payout.
type StatementLine struct {
	PaidAt     string
	MemberName string
	ClassName  string
	Amount     float64
	Commission float64
}

// Statement is the renderable payout summary for one instructor.
type Statement struct {
	InstructorName  string
	PeriodFrom      string
	PeriodTo        string
	Lines           []StatementLine
	TotalAmount     float64
	TotalCommission float64
}

// StatementRenderer renders payout statements into tabular PDFs.
type StatementRenderer struct{}

// NewStatementRenderer constructs a renderer.
func NewStatementRenderer() *StatementRenderer {
	return &StatementRenderer{}
}

// Render creates the PDF document for a statement.
func (r *StatementRenderer) Render(s Statement) ([]byte, error) {
	if s.InstructorName == "" {
		return nil, fmt.Errorf("statement requires an instructor name")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "PAYOUT STATEMENT", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, s.InstructorName, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("%s to %s", s.PeriodFrom, s.PeriodTo), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	headers := []string{"Date", "Member", "Class", "Amount", "Commission"}
	widths := []float64{28, 55, 55, 26, 26}

	pdf.SetFont("Arial", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, line := range s.Lines {
		pdf.CellFormat(widths[0], 7, line.PaidAt, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 7, line.MemberName, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 7, line.ClassName, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%.2f", line.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.2f", line.Commission), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, fmt.Sprintf("%.2f", s.TotalAmount), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 8, fmt.Sprintf("%.2f", s.TotalCommission), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}
	return buf.Bytes(), nil
}
