package calc

import (
	"github.com/shopspring/decimal"

	"formflow/internal/form"
)

// scheduleSE computes self-employment tax from Schedule C net profit.
// Net earnings below the minimum owe no SE tax.
func scheduleSE(sh *Sheet) {
	p := sh.Params().SelfEmployment

	l2 := sh.Set("SE_Line2_NetProfitLoss", sh.DepOr(form.SchedC, SchedCNetProfit, "SE_Line2_NetProfitLoss"))
	l3 := sh.Set("SE_Line3_Combined", l2)

	l4a := l3
	if l3.IsPositive() {
		l4a = l3.Mul(p.NetEarningsFactor).Round(2)
	}

	sh.Set("SE_Line4a_NetEarnings", l4a)
	l4c := sh.Set("SE_Line4c_NetEarnings", l4a)

	if l4c.LessThan(p.MinimumNetEarnings) {
		sh.Set(SESelfEmploymentTax, decimal.Zero)
		sh.Set(SEDeduction, decimal.Zero)

		return
	}

	l6 := sh.Set("SE_Line6_TotalNetEarnings", l4c)
	l7 := sh.Set("SE_Line7_WageBase", p.WageBase)
	l9 := sh.Set("SE_Line9_RemainingBase", maxZero(l7.Sub(sh.Num("SE_Line8a_SSWages"))))
	l10 := sh.Set("SE_Line10_SocialSecurity", decimal.Min(l6, l9).Mul(p.SocialSecurityRate).Round(2))
	l11 := sh.Set("SE_Line11_Medicare", l6.Mul(p.MedicareRate).Round(2))
	l12 := sh.Set(SESelfEmploymentTax, l10.Add(l11))
	sh.Set(SEDeduction, l12.Mul(p.DeductibleShare).Round(2))
}
