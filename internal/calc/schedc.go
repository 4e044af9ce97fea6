package calc

// SchedCExpenseLines are the Schedule C expense lines summed into line 28.
var SchedCExpenseLines = []string{
	"Line8_Advertising",
	"Line9_CarTruckExpenses",
	"Line10_CommissionsFees",
	"Line11_ContractLabor",
	"Line12_Depletion",
	"Line13_DepreciationSection179",
	"Line14_EmployeeBenefitPrograms",
	"Line15_Insurance",
	"Line16a_InterestMortgage",
	"Line16b_InterestOther",
	"Line17_LegalProfessionalServices",
	"Line18_OfficeExpense",
	"Line19_PensionProfitSharing",
	"Line20a_RentLeaseVehicles",
	"Line20b_RentLeaseOther",
	"Line21_RepairsMaintenance",
	"Line22_Supplies",
	"Line23_TaxesLicenses",
	"Line24a_Travel",
	"Line24b_DeductibleMeals",
	"Line25_Utilities",
	"Line26_Wages",
	"Line27a_OtherExpenses",
}

// scheduleC computes gross profit, total expenses and net profit.
func scheduleC(sh *Sheet) {
	l3 := sh.Set("Line3_GrossProfit", sh.Num("Line1_GrossReceiptsSales").Sub(sh.Num("Line2_ReturnsAllowances")))
	l5 := sh.Set("Line5_GrossIncome", l3.Sub(sh.Num("Line4_CostOfGoodsSold")))
	l7 := sh.Set("Line7_TotalGrossIncome", l5.Add(sh.Num("Line6_OtherIncome")))
	l28 := sh.Set("Line28_TotalExpenses", sh.Sum(SchedCExpenseLines...))
	l29 := sh.Set("Line29_TentativeProfit", l7.Sub(l28))
	sh.Set(SchedCNetProfit, l29.Sub(sh.Num("Line30_BusinessUseOfHome")))
}
