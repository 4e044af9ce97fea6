package calc

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// FilingStatus is the return's filing status.
type FilingStatus string

const (
	Single                    FilingStatus = "single"
	MarriedFilingJointly      FilingStatus = "married_filing_jointly"
	MarriedFilingSeparately   FilingStatus = "married_filing_separately"
	HeadOfHousehold           FilingStatus = "head_of_household"
	QualifyingSurvivingSpouse FilingStatus = "qualifying_surviving_spouse"
)

var filingStatusAliases = map[string]FilingStatus{
	"single":                    Single,
	"s":                         Single,
	"marriedfilingjointly":      MarriedFilingJointly,
	"marriedjointly":            MarriedFilingJointly,
	"mfj":                       MarriedFilingJointly,
	"marriedfilingseparately":   MarriedFilingSeparately,
	"marriedseparately":         MarriedFilingSeparately,
	"mfs":                       MarriedFilingSeparately,
	"headofhousehold":           HeadOfHousehold,
	"hoh":                       HeadOfHousehold,
	"qualifyingsurvivingspouse": QualifyingSurvivingSpouse,
	"qualifyingwidower":         QualifyingSurvivingSpouse,
	"qualifyingwidowwidower":    QualifyingSurvivingSpouse,
	"qss":                       QualifyingSurvivingSpouse,
	"qw":                        QualifyingSurvivingSpouse,
}

// ParseFilingStatus recognises common spellings, ignoring case, spaces and
// punctuation.
func ParseFilingStatus(s string) (FilingStatus, bool) {
	var b strings.Builder

	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}

	fs, ok := filingStatusAliases[b.String()]

	return fs, ok
}

// Bracket is one band of the rate schedule: income above Over is taxed at
// Rate up to the next band's Over.
type Bracket struct {
	Over decimal.Decimal `yaml:"over"`
	Rate decimal.Decimal `yaml:"rate"`
}

// SelfEmployment holds the Schedule SE constants.
type SelfEmployment struct {
	NetEarningsFactor  decimal.Decimal `yaml:"net_earnings_factor"`
	MinimumNetEarnings decimal.Decimal `yaml:"minimum_net_earnings"`
	WageBase           decimal.Decimal `yaml:"wage_base"`
	SocialSecurityRate decimal.Decimal `yaml:"social_security_rate"`
	MedicareRate       decimal.Decimal `yaml:"medicare_rate"`
	DeductibleShare    decimal.Decimal `yaml:"deductible_share"`
}

// DependentCare holds the Form 2441 constants.
type DependentCare struct {
	MaxRate       decimal.Decimal `yaml:"max_rate"`
	MinRate       decimal.Decimal `yaml:"min_rate"`
	RateStep      decimal.Decimal `yaml:"rate_step"`
	PhaseOutStart decimal.Decimal `yaml:"phase_out_start"`
	PhaseOutStep  decimal.Decimal `yaml:"phase_out_step"`
	LimitOne      decimal.Decimal `yaml:"limit_one"`
	LimitMore     decimal.Decimal `yaml:"limit_more"`
}

// ChildTaxCredit holds the Form 8812 constants.
type ChildTaxCredit struct {
	PerChild     decimal.Decimal `yaml:"per_child"`
	Threshold    decimal.Decimal `yaml:"threshold"`
	ThresholdMFJ decimal.Decimal `yaml:"threshold_mfj"`
	Step         decimal.Decimal `yaml:"step"`
	PerStep      decimal.Decimal `yaml:"per_step"`
}

// Parameters are the tax-year constants used by the calculations.
type Parameters struct {
	TaxYear                int                              `yaml:"tax_year"`
	StandardDeduction      map[FilingStatus]decimal.Decimal `yaml:"standard_deduction"`
	Brackets               map[FilingStatus][]Bracket       `yaml:"brackets"`
	SALTCap                decimal.Decimal                  `yaml:"salt_cap"`
	SALTCapMFS             decimal.Decimal                  `yaml:"salt_cap_mfs"`
	MedicalFloorRate       decimal.Decimal                  `yaml:"medical_floor_rate"`
	StudentLoanInterestCap decimal.Decimal                  `yaml:"student_loan_interest_cap"`
	SelfEmployment         SelfEmployment                   `yaml:"self_employment"`
	DependentCare          DependentCare                    `yaml:"dependent_care"`
	ChildTaxCredit         ChildTaxCredit                   `yaml:"child_tax_credit"`
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func brackets(bounds [7]int64) []Bracket {
	rates := [7]string{"0.10", "0.12", "0.22", "0.24", "0.32", "0.35", "0.37"}

	out := make([]Bracket, len(bounds))
	for i := range bounds {
		out[i] = Bracket{Over: d(bounds[i]), Rate: pct(rates[i])}
	}

	return out
}

// Default2023 returns the tax year 2023 parameters.
func Default2023() *Parameters {
	joint := brackets([7]int64{0, 22000, 89450, 190750, 364200, 462500, 693750})

	return &Parameters{
		TaxYear: 2023,
		StandardDeduction: map[FilingStatus]decimal.Decimal{
			Single:                    d(13850),
			MarriedFilingJointly:      d(27700),
			MarriedFilingSeparately:   d(13850),
			HeadOfHousehold:           d(20800),
			QualifyingSurvivingSpouse: d(27700),
		},
		Brackets: map[FilingStatus][]Bracket{
			Single:                    brackets([7]int64{0, 11000, 44725, 95375, 182100, 231250, 578125}),
			MarriedFilingJointly:      joint,
			MarriedFilingSeparately:   brackets([7]int64{0, 11000, 44725, 95375, 182100, 231250, 346875}),
			HeadOfHousehold:           brackets([7]int64{0, 15700, 59850, 95350, 182100, 231250, 578100}),
			QualifyingSurvivingSpouse: joint,
		},
		SALTCap:                d(10000),
		SALTCapMFS:             d(5000),
		MedicalFloorRate:       pct("0.075"),
		StudentLoanInterestCap: d(2500),
		SelfEmployment: SelfEmployment{
			NetEarningsFactor:  pct("0.9235"),
			MinimumNetEarnings: d(400),
			WageBase:           d(160200),
			SocialSecurityRate: pct("0.124"),
			MedicareRate:       pct("0.029"),
			DeductibleShare:    pct("0.5"),
		},
		DependentCare: DependentCare{
			MaxRate:       pct("0.35"),
			MinRate:       pct("0.20"),
			RateStep:      pct("0.01"),
			PhaseOutStart: d(15000),
			PhaseOutStep:  d(2000),
			LimitOne:      d(3000),
			LimitMore:     d(6000),
		},
		ChildTaxCredit: ChildTaxCredit{
			PerChild:     d(2000),
			Threshold:    d(200000),
			ThresholdMFJ: d(400000),
			Step:         d(1000),
			PerStep:      d(50),
		},
	}
}

// StandardDeductionFor returns the standard deduction, falling back to the
// Single amount for an unconfigured status.
func (p *Parameters) StandardDeductionFor(fs FilingStatus) decimal.Decimal {
	if v, ok := p.StandardDeduction[fs]; ok {
		return v
	}

	return p.StandardDeduction[Single]
}

// SALTCapFor returns the state and local tax deduction cap.
func (p *Parameters) SALTCapFor(fs FilingStatus) decimal.Decimal {
	if fs == MarriedFilingSeparately {
		return p.SALTCapMFS
	}

	return p.SALTCap
}
