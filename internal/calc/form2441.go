package calc

import (
	"github.com/shopspring/decimal"

	"formflow/internal/form"
	"formflow/internal/rules"
)

// form2441 computes the child and dependent care credit. Qualifying persons
// are counted from the aggregated care dependents; expenses without any
// listed dependent count as one person. Earned income is wages plus a
// positive Schedule C net profit.
func form2441(sh *Sheet) {
	p := sh.Params().DependentCare

	expenses := sh.Num("F2441_Line2c_QualifiedExpenses")

	persons := max(sh.Count(rules.KeyDependentNameForCare), sh.Count(rules.KeyDependentSSNForCare))
	if persons == 0 && expenses.IsPositive() {
		persons = 1
	}

	limit := p.LimitOne
	if persons > 1 {
		limit = p.LimitMore
	}

	if persons == 0 {
		limit = decimal.Zero
	}

	limit = maxZero(limit.Sub(sh.Num("F2441_Line12_EmployerBenefits")))
	l3 := sh.Set("F2441_Line3_Expenses", decimal.Min(expenses, limit))

	earned := sh.Amount(rules.KeyWages)
	if profit, ok := sh.Dep(form.SchedC, SchedCNetProfit); ok && profit.IsPositive() {
		earned = earned.Add(profit)
	}

	l4 := sh.Set("F2441_Line4_EarnedIncome", earned)
	l6 := sh.Set("F2441_Line6_Smallest", maxZero(decimal.Min(l3, l4)))
	l7 := sh.Set("F2441_Line7_AGI", provisionalAGI(sh))
	rate := sh.Set("F2441_Line8_Rate", creditRate(p, l7))
	credit := sh.Set("F2441_Line9a_Credit", l6.Mul(rate).Round(2))
	sh.Set(F2441Credit, credit)
}

// creditRate is MaxRate reduced by RateStep for each PhaseOutStep (or part
// of one) of AGI above PhaseOutStart, never below MinRate.
func creditRate(p DependentCare, agi decimal.Decimal) decimal.Decimal {
	over := agi.Sub(p.PhaseOutStart)
	if !over.IsPositive() || !p.PhaseOutStep.IsPositive() {
		return p.MaxRate
	}

	steps := over.Div(p.PhaseOutStep).Ceil()

	return decimal.Max(p.MaxRate.Sub(steps.Mul(p.RateStep)), p.MinRate)
}
