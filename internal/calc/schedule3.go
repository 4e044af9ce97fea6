package calc

import (
	"formflow/internal/form"
)

func schedule3(sh *Sheet) {
	sh.Set("Sch3_Line2_ChildCareCredit", sh.DepOr(form.Form2441, F2441Credit, "Sch3_Line2_ChildCareCredit"))
	sh.Set(Sch3Nonrefundable, sh.Sum(
		"Sch3_Line1_ForeignTaxCredit",
		"Sch3_Line2_ChildCareCredit",
		"Sch3_Line3_EducationCredits",
		"Sch3_Line4_RetirementSavingsCredit",
		"Sch3_Line5a_ResidentialCleanEnergy",
		"Sch3_Line5b_EnergyEfficientHomeImprovement",
	))
	sh.Set(Sch3OtherPayments, sh.Sum(
		"Sch3_Line9_NetPremiumTaxCredit",
		"Sch3_Line10_AmountPaidWithExtension",
		"Sch3_Line11_ExcessSSTaxWithheld",
		"Sch3_Line12_CreditForFuelTax",
		"Sch3_Line13a_CreditFromForm2439",
	))
}
