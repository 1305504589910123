package payroll

func amount(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func days(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// TotalEarnings is the gross salary, or the sum of earning components when the
// backend did not send one.
func (p Payslip) TotalEarnings() float64 {
	if p.GrossSalary != nil {
		return *p.GrossSalary
	}
	return amount(p.BasicSalary) + amount(p.HRA) + amount(p.Allowances) + amount(p.Bonuses)
}

func (p Payslip) TotalDeductionAmount() float64 {
	switch {
	case p.TotalDeductions != nil:
		return *p.TotalDeductions
	case p.Deductions != nil:
		return *p.Deductions
	}
	return amount(p.PFDeduction) + amount(p.TaxDeduction) + amount(p.OtherDeductions)
}

func (p Payslip) NetSalary() float64 {
	if p.NetPay != nil {
		return *p.NetPay
	}
	return p.TotalEarnings() - p.TotalDeductionAmount()
}

type Attendance struct {
	WorkingDays int
	Leaves      int
	LOPDays     int
	PaidDays    int
}

// Attendance derives paid and loss-of-pay days. Without a present-day count every
// working day is paid.
func (p Payslip) Attendance() Attendance {
	a := Attendance{WorkingDays: days(p.WorkingDays), Leaves: days(p.LeaveDays)}
	a.PaidDays = a.WorkingDays
	if p.PresentDays != nil {
		a.PaidDays = min(*p.PresentDays+a.Leaves, a.WorkingDays)
	}
	a.LOPDays = max(a.WorkingDays-a.PaidDays, 0)
	return a
}

func (c CTC) Allowances() float64 {
	return c.ConveyanceAllowance + c.MedicalAllowance + c.SpecialAllowance
}

func (c CTC) TotalCTC() float64 {
	return c.BasicSalary + c.HRA + c.Allowances() + c.PerformanceBonus + c.EmployerPF + c.Gratuity
}

// Normalize recomputes the derived total and rejects negative components.
func (c CTC) Normalize() (CTC, error) {
	for _, v := range []float64{c.BasicSalary, c.HRA, c.ConveyanceAllowance, c.MedicalAllowance, c.SpecialAllowance, c.PerformanceBonus, c.EmployerPF, c.Gratuity} {
		if v < 0 {
			return c, ErrInvalidCTC
		}
	}
	if c.EmployeeID == "" {
		return c, ErrEmployeeRequired
	}
	c.AnnualCTC = c.TotalCTC()
	if c.Status == "" {
		c.Status = CTCStatusActive
	}
	return c, nil
}
