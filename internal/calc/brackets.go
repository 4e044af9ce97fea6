package calc

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Tax applies the rate schedule of fs to taxable income, rounded to cents.
// Each band taxes only the income between its floor and the next floor.
func (p *Parameters) Tax(taxable decimal.Decimal, fs FilingStatus) decimal.Decimal {
	bands, ok := p.Brackets[fs]
	if !ok {
		bands = p.Brackets[Single]
	}

	if !taxable.IsPositive() || len(bands) == 0 {
		return decimal.Zero
	}

	bands = append([]Bracket(nil), bands...)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Over.LessThan(bands[j].Over) })

	tax := decimal.Zero

	for i, b := range bands {
		if taxable.LessThanOrEqual(b.Over) {
			break
		}

		top := taxable
		if i+1 < len(bands) && bands[i+1].Over.LessThan(top) {
			top = bands[i+1].Over
		}

		tax = tax.Add(top.Sub(b.Over).Mul(b.Rate))
	}

	return tax.Round(2)
}
