package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const pdfTitle = "Transactions Report"

// WritePDF renders rows as a single-column A4 report ending with totals.
func WritePDF(w io.Writer, rows []Row) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(pdfTitle, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, pdfTitle)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	if len(rows) == 0 {
		pdf.Cell(0, 8, "No shifts recorded.")
		pdf.Ln(7)
	}
	for _, r := range rows {
		pdf.Cell(0, 8, fmt.Sprintf("%s  %s - %s", r.Date, r.Start, r.End))
		pdf.Ln(6)
		pdf.Cell(0, 8, fmt.Sprintf("Hrs: %.2f, Earned: $%.2f", r.Hours, r.Earnings))
		pdf.Ln(9)
	}

	hours, earned := totals(rows)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total Hrs: %.2f, Total Earned: $%.2f", hours, earned))

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}
