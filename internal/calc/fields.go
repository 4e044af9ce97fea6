package calc

// Field names read across forms.
const (
	SchedCNetProfit       = "Line31_NetProfitLoss"
	SchedETotalIncomeLoss = "SchedE_Line26_TotalIncomeLoss"
	SESelfEmploymentTax   = "SE_Line12_SETax"
	SEDeduction           = "SE_Line13_Deduction"
	Sch1AdditionalIncome  = "Sch1_Line10_TotalAdditionalIncome"
	Sch1Adjustments       = "Sch1_Line26_TotalAdjustments"
	Sch2Total             = "Sch2_Line3_Total"
	Sch2OtherTaxes        = "Sch2_Line21_TotalOtherTaxes"
	Sch3Nonrefundable     = "Sch3_Line8_TotalNonrefundable"
	Sch3OtherPayments     = "Sch3_Line15_TotalOtherPayments"
	F2441Credit           = "F2441_Line11_Credit"
	F8812Credit           = "F8812_Line14_ChildTaxCredit"
	SchATotalItemized     = "SchA_Line17_TotalItemizedDeductions"
	F1040FilingStatus     = "FilingStatus"
)
