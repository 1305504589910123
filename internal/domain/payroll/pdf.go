package payroll

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin = 15.0
	colWidth   = 45.0
	rowHeight  = 8.0
	// Core PDF fonts have no rupee glyph.
	currencyPrefix = "Rs. "
)

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func rupees(v float64) string {
	return currencyPrefix + FormatINR(v)
}

func rupeesOf(v *float64) string {
	return currencyPrefix + Money(v)
}

// RenderPayslip writes a single-page A4 payslip to w.
func RenderPayslip(w io.Writer, doc PayslipDocument) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	p, e, bank := doc.Payslip, doc.Employee, doc.Bank

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(4*colWidth, 10, issuerName, "LTR", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(4*colWidth, rowHeight, tr("Pay Slip for "+p.Period()), "LBR", 1, "C", false, 0, "")
	pdf.Ln(2)

	row := func(cells ...string) {
		for i, c := range cells {
			style := ""
			if i%2 == 0 {
				style = "B"
			}
			pdf.SetFont("Helvetica", style, 10)
			pdf.CellFormat(colWidth, rowHeight, tr(c), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	row("Employee ID", orDash(e.ID.String()), "UAN", orDash(bank.UAN))
	row("Employee Name", orDash(e.FullName), "PF No.", orDash(bank.PFNo))
	row("Designation", orDash(e.Designation()), "ESI No.", orDash(bank.ESINo))
	row("Department", orDash(e.Department), "Bank", orDash(bank.Bank))
	row("Date of Joining", orDash(e.JoiningDate), "Account No.", orDash(bank.AccountNo))
	pdf.Ln(2)

	att := p.Attendance()
	row("Gross Wages", rupees(p.TotalEarnings()), "", "")
	row("Total Working Days", strconv.Itoa(att.WorkingDays), "Leaves", strconv.Itoa(att.Leaves))
	row("LOP Days", strconv.Itoa(att.LOPDays), "Paid Days", strconv.Itoa(att.PaidDays))
	pdf.Ln(2)

	pdf.SetFillColor(230, 230, 230)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(2*colWidth, rowHeight, "Earnings", "1", 0, "C", true, 0, "")
	pdf.CellFormat(2*colWidth, rowHeight, "Deductions", "1", 1, "C", true, 0, "")

	money := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(colWidth, rowHeight, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidth, rowHeight, value, "1", 0, "R", false, 0, "")
	}
	earnings := [][2]string{
		{"Basic", rupeesOf(p.BasicSalary)},
		{"HRA", rupeesOf(p.HRA)},
		{"Allowances", rupeesOf(p.Allowances)},
		{"Bonuses", rupeesOf(p.Bonuses)},
	}
	deductions := [][2]string{
		{"EPF", rupeesOf(p.PFDeduction)},
		{"Tax", rupeesOf(p.TaxDeduction)},
		{"Other", rupeesOf(p.OtherDeductions)},
		{"", ""},
	}
	for i := range earnings {
		money(earnings[i][0], earnings[i][1])
		money(deductions[i][0], deductions[i][1])
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colWidth, rowHeight, "Total Earnings", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colWidth, rowHeight, rupees(p.TotalEarnings()), "1", 0, "R", true, 0, "")
	pdf.CellFormat(colWidth, rowHeight, "Total Deductions", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colWidth, rowHeight, rupees(p.TotalDeductionAmount()), "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(3*colWidth, 10, "Net Salary", "1", 0, "L", false, 0, "")
	pdf.CellFormat(colWidth, 10, rupees(p.NetSalary()), "1", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(4*colWidth, 5, "This is a system generated payslip and does not require a signature.", "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render payslip: %w", err)
	}
	return nil
}

// PayslipFilename is the attachment name used for downloads.
func PayslipFilename(doc PayslipDocument) string {
	name := strings.Join(strings.Fields(orDash(doc.Employee.FullName)), "-")
	period := strings.ReplaceAll(orDash(doc.Payslip.Period()), " ", "-")
	return fmt.Sprintf("Payslip-%s-%s.pdf", name, period)
}
