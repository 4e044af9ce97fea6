package calc

import (
	"github.com/shopspring/decimal"

	"formflow/internal/form"
	"formflow/internal/rules"
)

// provisionalAGI estimates AGI for forms processed before Form 1040: the
// form's own aggregated income plus Schedule 1 additional income less
// Schedule 1 adjustments.
func provisionalAGI(sh *Sheet) decimal.Decimal {
	total := decimal.Zero
	for _, k := range rules.IncomeKeys {
		total = total.Add(sh.Amount(k))
	}

	add, _ := sh.Dep(form.Schedule1, Sch1AdditionalIncome)
	adj, _ := sh.Dep(form.Schedule1, Sch1Adjustments)

	return total.Add(add).Sub(adj)
}

// filingStatus resolves the filing status from the form's aggregated
// record, then from the form's own FilingStatus field, then from a processed
// Form 1040. Single is the default.
func filingStatus(sh *Sheet) FilingStatus {
	if v, ok := sh.agg[rules.KeyFilingStatus]; ok {
		if fs, ok := ParseFilingStatus(v.Text); ok {
			return fs
		}
	}

	if fs, ok := ParseFilingStatus(sh.s.Text(F1040FilingStatus)); ok {
		return fs
	}

	if f1040, ok := sh.Cached(form.Form1040); ok {
		if fs, ok := ParseFilingStatus(f1040.Text(F1040FilingStatus)); ok {
			return fs
		}
	}

	return Single
}
