package calc

import (
	"github.com/shopspring/decimal"

	"formflow/internal/rules"
)

// form8812 computes the child tax credit for the aggregated dependents,
// reduced by PerStep for each Step (or part of one) of AGI above the
// filing-status threshold.
func form8812(sh *Sheet) {
	p := sh.Params().ChildTaxCredit

	agi := sh.Set("F8812_Line1_AGI", provisionalAGI(sh))

	children := max(sh.Count(rules.KeyDependentName), sh.Count(rules.KeyDependentSSN))
	l4 := sh.Set("F8812_Line4_QualifyingChildren", decimal.NewFromInt(int64(children)))
	l5 := sh.Set("F8812_Line5_Credit", l4.Mul(p.PerChild))
	l8 := sh.Set("F8812_Line8_TotalCredit", l5)

	threshold := p.Threshold
	if filingStatus(sh) == MarriedFilingJointly {
		threshold = p.ThresholdMFJ
	}

	sh.Set("F8812_Line9_Threshold", threshold)

	excess := maxZero(agi.Sub(threshold))
	if p.Step.IsPositive() {
		excess = excess.Div(p.Step).Ceil().Mul(p.Step)
	}

	l10 := sh.Set("F8812_Line10_Excess", excess)

	reduction := decimal.Zero
	if p.Step.IsPositive() {
		reduction = l10.Div(p.Step).Mul(p.PerStep)
	}

	l11 := sh.Set("F8812_Line11_Reduction", reduction)
	l12 := sh.Set("F8812_Line12_Credit", maxZero(l8.Sub(l11)))
	sh.Set(F8812Credit, l12)
}
