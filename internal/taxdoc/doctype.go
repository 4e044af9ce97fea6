package taxdoc

import "strings"

// DocType is the classified type of a source document.
type DocType string

const (
	DocW2               DocType = "W-2"
	Doc1099NEC          DocType = "1099-NEC"
	Doc1099INT          DocType = "1099-INT"
	Doc1099DIV          DocType = "1099-DIV"
	Doc1099MISC         DocType = "1099-MISC"
	Doc1099             DocType = "Form 1099"
	DocProfitLoss       DocType = "Profit and Loss Statement"
	DocBalanceSheet     DocType = "Balance Sheet"
	DocCashFlow         DocType = "Cash Flow Statement"
	DocInvoice          DocType = "Invoice"
	DocReceipt          DocType = "Receipt"
	DocBankStatement    DocType = "Bank Statement"
	DocInsurancePolicy  DocType = "Insurance Policy"
	DocAlimony          DocType = "Alimony Agreement"
	DocUnemployment     DocType = "Unemployment Statement"
	DocGambling         DocType = "Gambling Winnings Form"
	DocStudentLoan      DocType = "Student Loan Interest Statement"
	DocHSA              DocType = "HSA Contribution Form"
	DocIRA              DocType = "IRA Contribution Form"
	DocForm6251         DocType = "Form 6251 Data"
	DocForm8962         DocType = "Form 8962 Data"
	DocForm4868         DocType = "Form 4868"
	DocForm2439         DocType = "Form 2439"
	DocChildCare        DocType = "Child Care Statement"
	DocMedicalBill      DocType = "Medical Bill"
	DocPropertyTax      DocType = "Property Tax Statement"
	DocMortgageInterest DocType = "Mortgage Interest Statement (1098)"
	DocCharitable       DocType = "Charitable Donation Receipt"
	DocOther            DocType = "Other"
)

var allDocTypes = []DocType{
	DocW2, Doc1099NEC, Doc1099INT, Doc1099DIV, Doc1099MISC, Doc1099,
	DocProfitLoss, DocBalanceSheet, DocCashFlow, DocInvoice, DocReceipt,
	DocBankStatement, DocInsurancePolicy, DocAlimony, DocUnemployment,
	DocGambling, DocStudentLoan, DocHSA, DocIRA, DocForm6251, DocForm8962,
	DocForm4868, DocForm2439, DocChildCare, DocMedicalBill, DocPropertyTax,
	DocMortgageInterest, DocCharitable, DocOther,
}

// DocTypes returns every known document type, Other last.
func DocTypes() []DocType {
	return append([]DocType(nil), allDocTypes...)
}

// ParseDocType maps a classifier label onto the closed DocType set.
// Matching ignores surrounding whitespace and letter case; anything
// unrecognised becomes DocOther.
func ParseDocType(label string) DocType {
	label = strings.TrimSpace(label)
	for _, t := range allDocTypes {
		if strings.EqualFold(string(t), label) {
			return t
		}
	}

	return DocOther
}

// Known reports whether t is a member of the closed set.
func (t DocType) Known() bool {
	for _, k := range allDocTypes {
		if k == t {
			return true
		}
	}

	return false
}
