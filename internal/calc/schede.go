package calc

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ColumnLetters are the Schedule E property columns.
var ColumnLetters = []string{"A", "B", "C"}

var schedEExpenseLines = []string{
	"SchedE_Line5_Advertising",
	"SchedE_Line6_AutoTravel",
	"SchedE_Line7_CleaningMaintenance",
	"SchedE_Line8_Commissions",
	"SchedE_Line9_Insurance",
	"SchedE_Line10_LegalProfessionalFees",
	"SchedE_Line11_ManagementFees",
	"SchedE_Line12_MortgageInterest",
	"SchedE_Line13_OtherInterest",
	"SchedE_Line14_Repairs",
	"SchedE_Line15_Supplies",
	"SchedE_Line16_Taxes",
	"SchedE_Line17_Utilities",
	"SchedE_Line18_DepreciationDepletion",
	"SchedE_Line19_OtherExpense",
}

// scheduleE computes each property column that has rents or royalties and
// the totals across columns. Passive activity loss limits are not applied:
// a column loss is carried to line 22 unchanged and flagged.
func scheduleE(sh *Sheet) {
	rents, royalties, net := decimal.Zero, decimal.Zero, decimal.Zero

	for _, col := range ColumnLetters {
		rent, royalty := "SchedE_Line3_RentsReceived"+col, "SchedE_Line4_RoyaltiesReceived"+col
		if !sh.Has(rent) && !sh.Has(royalty) {
			continue
		}

		expenses := make([]string, len(schedEExpenseLines))
		for i, l := range schedEExpenseLines {
			expenses[i] = l + col
		}

		l20 := sh.Set("SchedE_Line20_TotalExpenses"+col, sh.Sum(expenses...))
		l21 := sh.Set("SchedE_Line21_IncomeLoss"+col, sh.Num(rent).Add(sh.Num(royalty)).Sub(l20))

		sh.Set("SchedE_Line22_DeductibleLoss"+col, decimal.Min(l21, decimal.Zero))

		if l21.IsNegative() {
			sh.Warn(CodePALNotApplied,
				fmt.Sprintf("property %s loss %s entered without passive activity loss limits", col, l21.StringFixed(2)),
				"SchedE_Line22_DeductibleLoss"+col)
		}

		rents = rents.Add(sh.Num(rent))
		royalties = royalties.Add(sh.Num(royalty))
		net = net.Add(l21)
	}

	sh.Set("SchedE_Line23a_TotalRents", rents)
	sh.Set("SchedE_Line23b_TotalRoyalties", royalties)
	sh.Set(SchedETotalIncomeLoss, net)
}
