package realestate

import (
	"fmt"
	"math"
)

const (
	// MonthsPerYear converts annual rates to monthly costs.
	MonthsPerYear = 12
	// PropertyTaxRate is the annual effective tax rate applied to the price.
	PropertyTaxRate = 0.018
	// InsuranceRate is the annual homeowner's insurance cost per dollar of price.
	InsuranceRate = 0.005
	// PMIRate is the annual mortgage insurance rate below 20% down.
	PMIRate = 0.007
	// MaintenanceRate is the annual upkeep reserve per dollar of price.
	MaintenanceRate = 0.01
)

// CostItem is one line of an ownership cost breakdown.
type CostItem struct {
	Category string  `json:"category"`
	Monthly  float64 `json:"monthly"`
	Notes    string  `json:"notes,omitempty"`
}

// CostReport contains the full monthly cost breakdown.
type CostReport struct {
	PropertyID   string     `json:"property_id"`
	Price        float64    `json:"price"`
	DownPayment  float64    `json:"down_payment"`
	LoanAmount   float64    `json:"loan_amount"`
	InterestRate float64    `json:"interest_rate_percent"`
	LoanYears    int        `json:"loan_years"`
	Currency     string     `json:"currency"`
	Items        []CostItem `json:"items"`
	TotalMonthly float64    `json:"total_monthly"`
	Warnings     []string   `json:"warnings,omitempty"`
}

// Financing describes how a purchase is paid for.
type Financing struct {
	DownPaymentPercent float64
	InterestRate       float64
	LoanYears          int
}

// Validate checks the financing terms are plausible.
func (f Financing) Validate() error {
	switch {
	case f.DownPaymentPercent < 0 || f.DownPaymentPercent > 100:
		return fmt.Errorf("down payment must be between 0 and 100 percent, got %g", f.DownPaymentPercent)
	case f.InterestRate < 0 || f.InterestRate > 25:
		return fmt.Errorf("interest rate must be between 0 and 25 percent, got %g", f.InterestRate)
	case f.LoanYears < 1 || f.LoanYears > 40:
		return fmt.Errorf("loan term must be between 1 and 40 years, got %d", f.LoanYears)
	}
	return nil
}

// EstimateOwnershipCost breaks down the monthly cost of owning p.
func EstimateOwnershipCost(p Property, f Financing) (*CostReport, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	down := p.Price * f.DownPaymentPercent / 100
	loan := p.Price - down
	report := &CostReport{
		PropertyID:   p.ID,
		Price:        p.Price,
		DownPayment:  round(down, 2),
		LoanAmount:   round(loan, 2),
		InterestRate: f.InterestRate,
		LoanYears:    f.LoanYears,
		Currency:     "USD",
	}

	add := func(category string, monthly float64, notes string) {
		monthly = round(monthly, 2)
		report.Items = append(report.Items, CostItem{Category: category, Monthly: monthly, Notes: notes})
		report.TotalMonthly += monthly
	}

	if loan > 0 {
		add("mortgage", monthlyPayment(loan, f.InterestRate, f.LoanYears),
			fmt.Sprintf("%d-year fixed at %g%%", f.LoanYears, f.InterestRate))
	}
	add("property_tax", p.Price*PropertyTaxRate/MonthsPerYear, fmt.Sprintf("%.1f%% of price per year", PropertyTaxRate*100))
	add("insurance", p.Price*InsuranceRate/MonthsPerYear, "Based on a standard homeowner's policy")
	if loan > 0 && f.DownPaymentPercent < 20 {
		add("mortgage_insurance", loan*PMIRate/MonthsPerYear, "Required below 20% down")
		report.Warnings = append(report.Warnings, "Down payment below 20% adds mortgage insurance")
	}
	if p.HOAMonthly > 0 {
		add("hoa", p.HOAMonthly, "")
	}
	add("maintenance", p.Price*MaintenanceRate/MonthsPerYear, "1% of price per year reserve")

	if p.YearBuilt > 0 && p.YearBuilt < 1980 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Built in %d; budget for higher maintenance", p.YearBuilt))
	}
	report.TotalMonthly = round(report.TotalMonthly, 2)
	return report, nil
}

// monthlyPayment is the fixed payment of a fully amortizing loan.
func monthlyPayment(principal, annualRatePercent float64, years int) float64 {
	n := float64(years * MonthsPerYear)
	r := annualRatePercent / 100 / MonthsPerYear
	if r == 0 {
		return principal / n
	}
	return principal * r / (1 - math.Pow(1+r, -n))
}
