package calc

import (
	"formflow/internal/form"
)

// form1040 computes the return from income through the refund or amount
// owed, pulling schedule totals from the cache.
func form1040(sh *Sheet) {
	p := sh.Params()
	fs := filingStatus(sh)

	l8 := sh.Set("Line8_AdditionalIncome", sh.DepOr(form.Schedule1, Sch1AdditionalIncome, "Line8_AdditionalIncome"))
	l9 := sh.Set("Line9_TotalIncome", sh.Sum(
		"Income_1z",
		"Line2b_TaxableInterest",
		"Line3b_OrdinaryDividends",
		"Line4b_TaxableIRADistributions",
		"Line5b_TaxablePensionsAnnuities",
		"Line6b_TaxableSocialSecurity",
		"Line7_CapitalGainLoss",
	).Add(l8))
	l10 := sh.Set("Line10_AdjustmentsToIncome", sh.DepOr(form.Schedule1, Sch1Adjustments, "Line10_AdjustmentsToIncome"))
	l11 := sh.Set("Line11_AdjustedGrossIncome", l9.Sub(l10))

	deduction, itemized := p.StandardDeductionFor(fs), false
	if schA, ok := sh.Cached(form.ScheduleA); ok {
		if total, _ := schA.Number(SchATotalItemized); total.GreaterThan(deduction) {
			deduction, itemized = total, true
		}
	}

	l12 := sh.Set("Line12_DeductionAmount", deduction)
	sh.SetValue("Line12_UsedItemized", itemized)
	l14 := sh.Set("Line14_TotalDeductions", l12.Add(sh.Num("Line13_QualifiedBusinessIncomeDeduction")))
	l15 := sh.Set("Line15_TaxableIncome", maxZero(l11.Sub(l14)))
	l16 := sh.Set("Line16_Tax", p.Tax(l15, fs))

	l17 := sh.Set("Line17_AmountFromSchedule2", sh.DepOr(form.Schedule2, Sch2Total, "Line17_AmountFromSchedule2"))
	l18 := sh.Set("Line18_TotalTaxBeforeCredits", l16.Add(l17))
	l19 := sh.Set("Line19_ChildTaxCredit", sh.DepOr(form.Form8812, F8812Credit, "Line19_ChildTaxCredit"))
	l20 := sh.Set("Line20_AmountFromSchedule3", sh.DepOr(form.Schedule3, Sch3Nonrefundable, "Line20_AmountFromSchedule3"))
	l21 := sh.Set("Line21_TotalNonrefundableCredits", l19.Add(l20))
	l22 := sh.Set("Line22_TaxAfterNonrefundableCredits", maxZero(l18.Sub(l21)))
	l23 := sh.Set("Line23_OtherTaxes", sh.DepOr(form.Schedule2, Sch2OtherTaxes, "Line23_OtherTaxes"))
	l24 := sh.Set("Line24_TotalTax", l22.Add(l23))

	l25d := sh.Set("Line25d_TotalWithholding", sh.Sum("Line25a_FormW2", "Line25b_Form1099", "Line25c_OtherForms"))
	l31 := sh.Set("Line31_AmountFromSchedule3", sh.DepOr(form.Schedule3, Sch3OtherPayments, "Line31_AmountFromSchedule3"))
	l32 := sh.Set("Line32_TotalOtherPayments", sh.Sum(
		"Line27_EarnedIncomeCredit",
		"Line28_AdditionalChildTaxCredit",
		"Line29_AmericanOpportunityCredit",
	).Add(l31))
	l33 := sh.Set("Line33_TotalPayments", l25d.Add(sh.Num("Line26_EstimatedTaxPayments")).Add(l32))

	sh.Set("Line34_AmountOverpaid", maxZero(l33.Sub(l24)))
	sh.Set("Line37_AmountYouOwe", maxZero(l24.Sub(l33)))
}
