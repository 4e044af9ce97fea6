package rules

import (
	"formflow/internal/aggregate"
	"formflow/internal/form"
	"formflow/internal/taxdoc"
)

// DefaultPrecedence is the fixed processing order. Form 2441 runs before
// Schedule 3 because Schedule 3 line 2 reads the 2441 credit.
var DefaultPrecedence = []form.Type{
	form.SchedC,
	form.SchedE,
	form.SchedSE,
	form.Schedule1,
	form.Schedule2,
	form.Form2441,
	form.Schedule3,
	form.Form8812,
	form.ScheduleA,
	form.Form1040,
}

// DefaultProprietorIndicators flag documents issued to the proprietor.
var DefaultProprietorIndicators = []taxdoc.Key{KeyEmployeeSSN, KeyRecipientTIN, KeyProprietorSSN}

var proprietorKeys = []taxdoc.Key{KeyEmployeeName, KeyEmployeeSSN}

// policies builds a policy table from per-policy key lists.
func policies(sum, mode, list []taxdoc.Key) map[taxdoc.Key]aggregate.MergePolicy {
	out := make(map[taxdoc.Key]aggregate.MergePolicy, len(sum)+len(mode)+len(list))
	for _, k := range sum {
		out[k] = aggregate.Sum
	}

	for _, k := range mode {
		out[k] = aggregate.Mode
	}

	for _, k := range list {
		out[k] = aggregate.List
	}

	return out
}

func keys(k ...taxdoc.Key) []taxdoc.Key { return k }

func withIncome(k ...taxdoc.Key) []taxdoc.Key {
	return append(append([]taxdoc.Key(nil), IncomeKeys...), k...)
}

// incomeDocs are the income sources of Form 1040. Forms that estimate AGI
// before Form 1040 runs read the same documents so their AGI matches line 11.
var incomeDocs = []taxdoc.DocType{
	taxdoc.DocW2, taxdoc.Doc1099INT, taxdoc.Doc1099DIV, taxdoc.Doc1099MISC, taxdoc.Doc1099,
}

// Default returns the built-in rule tables.
func Default() *Registry {
	r, err := NewRegistry(DefaultPrecedence, DefaultProprietorIndicators, defaultRules()...)
	if err != nil {
		// The built-in tables are static; an error here is a programming bug.
		panic(err)
	}

	return r
}

func defaultRules() []*FormRule {
	return []*FormRule{
		{
			Form:     form.Form1040,
			Relevant: append([]taxdoc.DocType(nil), incomeDocs...),
			Policies: policies(
				withIncome("FederalIncomeTaxWithheld", "StateWagesTipsEtc", "StateIncomeTax",
					"Aggregated1099Withholding", "AggregatedOtherWithholding", "EstimatedTaxPaymentsMade"),
				keys(KeyEmployeeName, KeyEmployeeSSN, "TaxYear", "EmployeeAddress", KeyFilingStatus),
				keys("EmployerName", "EmployerEIN", KeyDependentName, KeyDependentSSN, "DependentRelationship"),
			),
			Always: true,
			DependsOn: []form.Type{
				form.Schedule1, form.Schedule2, form.Schedule3, form.Form8812, form.ScheduleA,
			},
		},
		{
			Form: form.SchedC,
			Relevant: []taxdoc.DocType{
				taxdoc.DocProfitLoss, taxdoc.Doc1099NEC, taxdoc.DocInvoice, taxdoc.DocReceipt, taxdoc.DocInsurancePolicy,
			},
			Policies: policies(
				keys("TotalRevenue", "NonemployeeCompensation", "GrossReceiptsOrSales", "ReturnsAllowances",
					"CostOfGoodsSold", "OtherIncome", "AdvertisingExpense", "CarTruckExpense", "CommissionsFeesExpense",
					"ContractLaborExpense", "DepletionExpense", "DepreciationExpense", "EmployeeBenefitExpense",
					"InsuranceExpense", "InterestMortgageExpense", "InterestOtherExpense", "LegalProfessionalExpense",
					"OfficeExpense", "PensionProfitSharingExpense", "RentLeaseVehicleExpense", "RentLeaseOtherExpense",
					"RepairsMaintenanceExpense", "SuppliesExpense", "TaxesLicensesExpense", "TravelExpense",
					"MealsExpense", "UtilitiesExpense", "WagesExpense", "OtherExpenseAmount", "BusinessUseOfHomeExpense"),
				keys("BusinessName", "PrincipalBusinessActivity", "EmployerIdentificationNumber",
					"BusinessAddress", "BusinessCityStateZip"),
				keys("OtherExpenseDescription"),
			),
			ProprietorKeys: proprietorKeys,
			Indicators: keys("NonemployeeCompensation", "GrossReceipts", "TotalRevenue", KeyNetIncomeLoss,
				"GrossProfit", "ExpenseCategory", "VendorName", "CostOfGoodsSold", "TotalOperatingExpenses",
				"BusinessName", "PrincipalBusinessActivity"),
			IndicatorDocs: []taxdoc.DocType{
				taxdoc.DocProfitLoss, taxdoc.DocInvoice, taxdoc.DocReceipt, taxdoc.Doc1099NEC,
			},
		},
		{
			Form:     form.SchedE,
			Relevant: []taxdoc.DocType{taxdoc.DocCashFlow, taxdoc.DocProfitLoss},
			Policies: policies(
				keys("TotalRevenue", "RentalIncome", "RoyaltyIncome", "AdvertisingExpense", "AutoTravelExpense",
					"CleaningMaintenanceExpense", "CommissionsExpense", "InsuranceExpense", "LegalProfessionalExpense",
					"ManagementFeeExpense", "MortgageInterestExpense", "OtherInterestExpense", "RepairsExpense",
					"SuppliesExpense", "TaxesExpense", "UtilitiesExpense", "DepreciationExpense",
					"TotalOperatingExpenses"),
				keys(aggregate.PropertyAddressKey),
				nil,
			),
			PropertyColumns: true,
			Indicators: keys("RentalIncome", "RoyaltyIncome", "PartnershipIncome", "SCorpIncome",
				aggregate.PropertyAddressKey, "RentalExpenses", "PropertyTaxes", "MortgageInterest"),
			IndicatorDocs: []taxdoc.DocType{taxdoc.DocCashFlow, taxdoc.DocProfitLoss},
			TriggerDocs:   []taxdoc.DocType{taxdoc.DocCashFlow},
		},
		{
			Form:           form.SchedSE,
			Relevant:       []taxdoc.DocType{taxdoc.DocProfitLoss, taxdoc.DocW2},
			Policies:       policies(keys(KeyNetIncomeLoss, KeyWages, KeySocialSecurityWages), nil, nil),
			ProprietorKeys: proprietorKeys,
			IncludedBy:     []form.Type{form.SchedC},
			DependsOn:      []form.Type{form.SchedC},
		},
		{
			Form: form.Schedule1,
			Relevant: []taxdoc.DocType{
				taxdoc.DocAlimony, taxdoc.DocUnemployment, taxdoc.DocGambling, taxdoc.DocStudentLoan,
				taxdoc.DocHSA, taxdoc.DocIRA,
			},
			Policies: policies(
				keys("AlimonyReceived", "TaxableRefundsCreditsOffsets", "UnemploymentCompensation",
					"OtherIncomeAmount", "OtherIncomeGamblingWinnings", "AlaskaPermanentFundDividends",
					"EducatorExpenses", "HSA_DeductionAmount", "MovingExpensesAmount",
					"SE_HealthInsuranceDeductionAmount", "SEP_SIMPLE_QualifiedPlanDeduction", "AlimonyPaid",
					"IRA_DeductionAmount", "StudentLoanInterestDeduction"),
				keys("AlimonyRecipientSSN"),
				keys("OtherIncomeDescription"),
			),
			Indicators: keys("AlimonyReceived", "BusinessIncomeLoss", "OtherGainsLosses",
				"RentalRealEstateIncomeLoss", "FarmIncomeLoss", "UnemploymentCompensation",
				"OtherIncomeGamblingWinnings", "PrizesAwards", "StockOptions", "AlaskaPermanentFundDividends",
				"EducatorExpenses", "CertainBusinessExpensesReservists", "HealthSavingsAccountDeduction",
				"MovingExpensesMilitary", "DeductibleSETax", "SEHealthInsuranceDeduction",
				"SEP_SIMPLE_QualifiedPlans", "AlimonyPaid", "IRADeduction", "StudentLoanInterestDeduction"),
			IncludedBy: []form.Type{form.SchedC, form.SchedE, form.SchedSE},
			DependsOn:  []form.Type{form.SchedC, form.SchedE, form.SchedSE},
		},
		{
			Form:     form.Schedule2,
			Relevant: []taxdoc.DocType{taxdoc.DocForm6251, taxdoc.DocForm8962},
			Policies: policies(schedule2Indicators, nil, nil),
			Indicators: schedule2Indicators,
			IncludedBy: []form.Type{form.SchedSE},
			DependsOn:  []form.Type{form.SchedSE},
		},
		{
			Form:     form.Form2441,
			Relevant: append([]taxdoc.DocType{taxdoc.DocChildCare}, incomeDocs...),
			Policies: policies(
				withIncome("ChildCareExpenses", "EmployerProvidedDependentCareBenefits", "ProviderAmountPaid"),
				keys("DependentCareProviderName", "ProviderAddress", "ProviderTaxID", KeyFilingStatus),
				keys(KeyDependentNameForCare, KeyDependentSSNForCare),
			),
			Indicators: keys("ChildCareExpenses", "DependentCareProviderName", "ProviderTaxID",
				KeyDependentNameForCare, KeyDependentSSNForCare, "EmployerProvidedDependentCareBenefits"),
			DependsOn: []form.Type{form.SchedC, form.Schedule1},
		},
		{
			Form: form.Schedule3,
			Relevant: []taxdoc.DocType{
				taxdoc.DocForm4868, taxdoc.DocW2, taxdoc.Doc1099, taxdoc.DocForm2439, taxdoc.DocForm8962,
			},
			Policies: policies(
				keys("AmountPaidWithExtension", "ExcessSocialSecurityTaxWithheld", "CreditFromForm2439",
					"ForeignTaxCreditAmount", "EducationCreditsAmount", "RetirementSavingsContributionsCreditAmount",
					"ResidentialCleanEnergyCreditAmount", "EnergyEfficientHomeImprovementCreditAmount",
					"NetPremiumTaxCreditAmount", "CreditForFuelTaxAmount"),
				nil, nil,
			),
			Indicators: keys("ForeignTaxCreditAmount", "ChildCareExpenses", "EducationCreditsAmount",
				"RetirementSavingsContributionsCreditAmount", "ResidentialEnergyCreditsAmount",
				"NetPremiumTaxCreditAmount", "AmountPaidWithExtension", "ExcessSocialSecurityTaxWithheld"),
			IncludedBy: []form.Type{form.Form2441},
			DependsOn:  []form.Type{form.Form2441},
		},
		{
			Form:     form.Form8812,
			Relevant: append([]taxdoc.DocType(nil), incomeDocs...),
			Policies: policies(
				withIncome(),
				keys(KeyFilingStatus),
				keys(KeyDependentName, KeyDependentSSN, "DependentRelationship"),
			),
			Indicators: keys(KeyDependentName, KeyDependentSSN),
			DependsOn:  []form.Type{form.Schedule1},
		},
		{
			Form: form.ScheduleA,
			Relevant: append([]taxdoc.DocType{
				taxdoc.DocMedicalBill, taxdoc.DocPropertyTax, taxdoc.DocMortgageInterest, taxdoc.DocCharitable,
			}, incomeDocs...),
			Policies: policies(
				withIncome("MedicalExpenses", "StateAndLocalTaxes", "RealEstateTaxes", "PersonalPropertyTaxes",
					"OtherTaxesPaid", "HomeMortgageInterest", "InvestmentInterest", "CharitableContributionsCash",
					"CharitableContributionsNonCash", "CharitableCarryover", "CasualtyTheftLossAmount",
					"OtherItemizedDeductionAmount"),
				keys(KeyFilingStatus),
				keys("OtherItemizedDeductionDescription"),
			),
			Indicators: keys("MedicalExpenses", "StateAndLocalTaxes", "SALT", "RealEstateTaxes",
				"PersonalPropertyTaxes", "HomeMortgageInterest", "InvestmentInterest",
				"CharitableContributionsCash", "CharitableContributionsNonCash"),
			DependsOn: []form.Type{form.Schedule1},
		},
	}
}

var schedule2Indicators = keys("AlternativeMinimumTaxAmount", "ExcessAdvancePTCRepaymentAmount",
	"UnreportedSocialSecurityMedicareTax", "AdditionalTaxOnIRAs", "HouseholdEmploymentTaxesAmount",
	"AdditionalMedicareTaxAmount", "NetInvestmentIncomeTaxAmount", "FirstTimeHomebuyerCreditRepayment")
