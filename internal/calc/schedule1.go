package calc

import (
	"github.com/shopspring/decimal"

	"formflow/internal/form"
)

// schedule1 computes additional income and adjustments to income. Business
// and rental results come from Schedule C and Schedule E when processed, the
// deductible part of SE tax from Schedule SE.
func schedule1(sh *Sheet) {
	sh.Set("Sch1_Line3_BusinessIncome", sh.DepOr(form.SchedC, SchedCNetProfit, "Sch1_Line3_BusinessIncome"))
	sh.Set("Sch1_Line5_RentalRealEstate", sh.DepOr(form.SchedE, SchedETotalIncomeLoss, "Sch1_Line5_RentalRealEstate"))

	l9 := sh.Set("Sch1_Line9_TotalOtherIncome", sh.Sum(
		"Sch1_Line8b_GamblingWinnings",
		"Sch1_Line8g_AlaskaPermanentFund",
		"Sch1_Line8z_OtherIncomeAmount",
	))
	sh.Set(Sch1AdditionalIncome, sh.Sum(
		"Sch1_Line1_TaxableRefunds",
		"Sch1_Line2a_AlimonyReceived",
		"Sch1_Line3_BusinessIncome",
		"Sch1_Line5_RentalRealEstate",
		"Sch1_Line7_UnemploymentComp",
	).Add(l9))

	sh.Set("Sch1_Line15_DeductibleSETax", sh.DepOr(form.SchedSE, SEDeduction, "Sch1_Line15_DeductibleSETax"))

	if sh.Has("Sch1_Line21_StudentLoanInterest") {
		sh.Set("Sch1_Line21_StudentLoanInterest",
			decimal.Min(sh.Num("Sch1_Line21_StudentLoanInterest"), sh.Params().StudentLoanInterestCap))
	}

	sh.Set(Sch1Adjustments, sh.Sum(
		"Sch1_Line11_EducatorExpenses",
		"Sch1_Line13_HSADeduction",
		"Sch1_Line14_MovingExpenses",
		"Sch1_Line15_DeductibleSETax",
		"Sch1_Line16_SEPSimpleQualifiedPlans",
		"Sch1_Line17_SEHealthInsurance",
		"Sch1_Line19a_AlimonyPaid",
		"Sch1_Line20_IRADeduction",
		"Sch1_Line21_StudentLoanInterest",
	))
}
