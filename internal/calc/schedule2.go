package calc

import (
	"formflow/internal/form"
)

// schedule2 computes additional taxes. Line 4 is the SE tax from
// Schedule SE.
func schedule2(sh *Sheet) {
	sh.Set(Sch2Total, sh.Sum("Sch2_Line1_AMT", "Sch2_Line2_ExcessAdvPTC"))
	sh.Set("Sch2_Line4_SETax", sh.DepOr(form.SchedSE, SESelfEmploymentTax, "Sch2_Line4_SETax"))
	sh.Set(Sch2OtherTaxes, sh.Sum(
		"Sch2_Line4_SETax",
		"Sch2_Line5_UnreportedSSMedicareTax",
		"Sch2_Line8_AdditionalTaxIRAs",
		"Sch2_Line9_HouseholdEmploymentTaxes",
		"Sch2_Line10_FirstTimeHomebuyerRepayment",
		"Sch2_Line11_AdditionalMedicareTax",
		"Sch2_Line12_NetInvestmentIncomeTax",
	))
}
