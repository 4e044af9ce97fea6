package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"formflow/internal/calc"
	"formflow/internal/form"
)

// scheduleBThreshold is the interest or dividend amount above which
// Schedule B must be filed.
var scheduleBThreshold = decimal.NewFromInt(1500)

// Default returns a validator with the built-in Schedule C and Form 1040
// checks.
func Default() *Validator {
	v := New()
	v.Register(form.SchedC, schedCGrossIncome)
	v.Register(form.SchedC, schedCTotalExpenses)
	v.Register(form.SchedC, schedCNetProfit)
	v.Register(form.Form1040, totalIncome)
	v.Register(form.Form1040, scheduleBRequired)

	return v
}

func schedCGrossIncome(r *Report, s *form.Structure) {
	want := num(s, "Line1_GrossReceiptsSales").
		Sub(num(s, "Line2_ReturnsAllowances")).
		Sub(num(s, "Line4_CostOfGoodsSold")).
		Add(num(s, "Line6_OtherIncome"))
	r.Identity(s, "Line7_TotalGrossIncome", "L1 - L2 - L4 + L6", want)
}

func schedCTotalExpenses(r *Report, s *form.Structure) {
	r.Identity(s, "Line28_TotalExpenses", "sum of L8..L27a", sum(s, calc.SchedCExpenseLines...))
}

func schedCNetProfit(r *Report, s *form.Structure) {
	want := num(s, "Line7_TotalGrossIncome").
		Sub(num(s, "Line28_TotalExpenses")).
		Sub(num(s, "Line30_BusinessUseOfHome"))
	r.Identity(s, calc.SchedCNetProfit, "L7 - L28 - L30", want)
}

func totalIncome(r *Report, s *form.Structure) {
	want := sum(s,
		"Income_1z",
		"Line2b_TaxableInterest",
		"Line3b_OrdinaryDividends",
		"Line4b_TaxableIRADistributions",
		"Line5b_TaxablePensionsAnnuities",
		"Line6b_TaxableSocialSecurity",
		"Line7_CapitalGainLoss",
		"Line8_AdditionalIncome",
	)
	r.Identity(s, "Line9_TotalIncome", "L1z + L2b + L3b + L4b + L5b + L6b + L7 + L8", want)
}

func scheduleBRequired(r *Report, s *form.Structure) {
	for _, line := range []string{"Line2b_TaxableInterest", "Line3b_OrdinaryDividends"} {
		if d, ok := s.Number(line); ok && d.GreaterThan(scheduleBThreshold) {
			r.Diagnostics.AddWarning(CodeScheduleBRequired,
				fmt.Sprintf("%s of %s exceeds %s; Schedule B is required", line, d.StringFixed(2), scheduleBThreshold),
				string(r.Form), line)
		}
	}
}
