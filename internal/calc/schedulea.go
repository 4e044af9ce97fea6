package calc

import (
	"github.com/shopspring/decimal"
)

// scheduleA computes itemized deductions. AGI is provisional because
// Form 1040 has not been processed yet.
func scheduleA(sh *Sheet) {
	p := sh.Params()

	l2 := sh.Set("SchA_Line2_AGI", provisionalAGI(sh))
	l3 := sh.Set("SchA_Line3_MedicalFloor", l2.Mul(p.MedicalFloorRate).Round(2))
	l4 := sh.Set("SchA_Line4_MedicalDeduction", maxZero(sh.Num("SchA_Line1_MedicalDentalExpenses").Sub(l3)))

	l5d := sh.Set("SchA_Line5d_TotalSALT", sh.Sum(
		"SchA_Line5a_StateLocalTaxes",
		"SchA_Line5b_RealEstateTaxes",
		"SchA_Line5c_PersonalPropertyTaxes",
	))
	l5e := sh.Set("SchA_Line5e_SALTDeduction", decimal.Min(l5d, p.SALTCapFor(filingStatus(sh))))
	l7 := sh.Set("SchA_Line7_TotalTaxes", l5e.Add(sh.Num("SchA_Line6_OtherTaxes")))

	l10 := sh.Set("SchA_Line10_TotalInterest", sh.Sum("SchA_Line8a_HomeMortgageInterest", "SchA_Line9_InvestmentInterest"))
	l14 := sh.Set("SchA_Line14_TotalGifts", sh.Sum(
		"SchA_Line11_ContributionsCash",
		"SchA_Line12_ContributionsOther",
		"SchA_Line13_Carryover",
	))

	sh.Set(SchATotalItemized, l4.Add(l7).Add(l10).Add(l14).
		Add(sh.Num("SchA_Line15_CasualtyTheftLoss")).
		Add(sh.Num("SchA_Line16_OtherItemized")))
}
