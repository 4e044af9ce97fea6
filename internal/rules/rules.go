package rules

import (
	"fmt"
	"sort"

	"formflow/internal/aggregate"
	"formflow/internal/form"
	"formflow/internal/taxdoc"
)

// Keys read by code rather than only by tables.
const (
	KeyEmployeeName         taxdoc.Key = "EmployeeName"
	KeyEmployeeSSN          taxdoc.Key = "EmployeeSSN"
	KeyRecipientTIN         taxdoc.Key = "RecipientTIN"
	KeyProprietorSSN        taxdoc.Key = "ProprietorSSN"
	KeyFilingStatus         taxdoc.Key = "FilingStatus"
	KeyWages                taxdoc.Key = "WagesTipsOtherComp"
	KeySocialSecurityWages  taxdoc.Key = "SocialSecurityWages"
	KeyTaxableInterest      taxdoc.Key = "TotalTaxableInterest"
	KeyOrdinaryDividends    taxdoc.Key = "TotalOrdinaryDividends"
	KeyIRADistributions     taxdoc.Key = "TotalTaxableIRADistributions"
	KeyPensionsAnnuities    taxdoc.Key = "TotalTaxablePensionsAnnuities"
	KeySocialSecurity       taxdoc.Key = "TotalTaxableSocialSecurity"
	KeyCapitalGainLoss      taxdoc.Key = "TotalCapitalGainLoss"
	KeyDependentName        taxdoc.Key = "DependentName"
	KeyDependentSSN         taxdoc.Key = "DependentSSN"
	KeyDependentNameForCare taxdoc.Key = "DependentNameForCare"
	KeyDependentSSNForCare  taxdoc.Key = "DependentSSNForCare"
	KeyNetIncomeLoss        taxdoc.Key = "NetIncomeLoss"
)

// IncomeKeys are the income keys summed for a provisional AGI by forms that
// run before Form 1040.
var IncomeKeys = []taxdoc.Key{
	KeyWages, KeyTaxableInterest, KeyOrdinaryDividends, KeyIRADistributions,
	KeyPensionsAnnuities, KeySocialSecurity, KeyCapitalGainLoss,
}

// FormRule is the static rule table of one target form.
type FormRule struct {
	Form form.Type

	// Relevant lists the document types aggregated for this form, in visiting order.
	Relevant []taxdoc.DocType

	// Policies assigns a merge policy to every key the form aggregates.
	Policies map[taxdoc.Key]aggregate.MergePolicy

	// ProprietorKeys are merged from proprietor documents only.
	ProprietorKeys []taxdoc.Key

	// PropertyColumns partitions aggregation by rental property.
	PropertyColumns bool

	// Indicators are hint keys; the presence of any includes the form.
	Indicators []taxdoc.Key

	// IndicatorDocs restricts where indicators count. Empty means any document.
	IndicatorDocs []taxdoc.DocType

	// TriggerDocs include the form whenever a document of one of these types
	// is present, whatever keys it carries.
	TriggerDocs []taxdoc.DocType

	// IncludedBy forces inclusion when any of these forms is included.
	IncludedBy []form.Type

	// DependsOn lists the forms whose cached results this form reads.
	DependsOn []form.Type

	// Always includes the form in every run.
	Always bool
}

// Keys returns every key the form aggregates, sorted.
func (r *FormRule) Keys() []taxdoc.Key {
	seen := make(map[taxdoc.Key]struct{}, len(r.Policies)+len(r.ProprietorKeys))
	for k := range r.Policies {
		seen[k] = struct{}{}
	}

	for _, k := range r.ProprietorKeys {
		seen[k] = struct{}{}
	}

	return sortKeys(seen)
}

// AggregateInput builds the aggregation input for records.
func (r *FormRule) AggregateInput(records *taxdoc.Records, proprietorIndicators []taxdoc.Key) aggregate.Input {
	return aggregate.Input{
		Form:                 string(r.Form),
		Records:              records,
		Relevant:             r.Relevant,
		Policies:             r.Policies,
		ProprietorKeys:       r.ProprietorKeys,
		ProprietorIndicators: proprietorIndicators,
	}
}

// Registry is the set of rule tables used for one run.
type Registry struct {
	rules      map[form.Type]*FormRule
	precedence []form.Type

	// ProprietorIndicators mark a document as belonging to the proprietor.
	ProprietorIndicators []taxdoc.Key
}

// NewRegistry builds a registry. precedence fixes the processing order used
// to break ties between independent forms and must list every rule's form.
func NewRegistry(precedence []form.Type, proprietorIndicators []taxdoc.Key, rules ...*FormRule) (*Registry, error) {
	r := &Registry{
		rules:                make(map[form.Type]*FormRule, len(rules)),
		precedence:           append([]form.Type(nil), precedence...),
		ProprietorIndicators: proprietorIndicators,
	}

	for _, fr := range rules {
		if _, dup := r.rules[fr.Form]; dup {
			return nil, fmt.Errorf("duplicate rule for %s", fr.Form)
		}

		r.rules[fr.Form] = fr
	}

	ranked := make(map[form.Type]struct{}, len(precedence))
	for _, t := range precedence {
		if _, ok := r.rules[t]; !ok {
			return nil, fmt.Errorf("precedence lists %s which has no rule", t)
		}

		ranked[t] = struct{}{}
	}

	for t, fr := range r.rules {
		if _, ok := ranked[t]; !ok {
			return nil, fmt.Errorf("rule %s is missing from precedence", t)
		}

		for _, dep := range append(append([]form.Type(nil), fr.DependsOn...), fr.IncludedBy...) {
			if _, ok := r.rules[dep]; !ok {
				return nil, fmt.Errorf("rule %s refers to unknown form %s", t, dep)
			}
		}
	}

	return r, nil
}

// Rule returns the rule table of t.
func (r *Registry) Rule(t form.Type) (*FormRule, bool) {
	fr, ok := r.rules[t]
	return fr, ok
}

// Precedence returns the fixed processing order.
func (r *Registry) Precedence() []form.Type {
	return append([]form.Type(nil), r.precedence...)
}

// Rank returns the position of t in the precedence order, or -1.
func (r *Registry) Rank(t form.Type) int {
	for i, p := range r.precedence {
		if p == t {
			return i
		}
	}

	return -1
}

// KnownKeys returns the closed key set: every policy, proprietor and
// indicator key of every form, plus the proprietor indicators. Sorted.
func (r *Registry) KnownKeys() []taxdoc.Key {
	seen := make(map[taxdoc.Key]struct{})

	for _, k := range r.ProprietorIndicators {
		seen[k] = struct{}{}
	}

	for _, fr := range r.rules {
		for _, k := range fr.Keys() {
			seen[k] = struct{}{}
		}

		for _, k := range fr.Indicators {
			seen[k] = struct{}{}
		}
	}

	seen[aggregate.PropertyAddressKey] = struct{}{}

	return sortKeys(seen)
}

// FormKeys returns each form's aggregated keys, keyed by form name. It is
// the shape mapping validation expects.
func (r *Registry) FormKeys() map[string][]taxdoc.Key {
	out := make(map[string][]taxdoc.Key, len(r.rules))
	for t, fr := range r.rules {
		out[string(t)] = fr.Keys()
	}

	return out
}

func sortKeys(set map[taxdoc.Key]struct{}) []taxdoc.Key {
	keys := make([]taxdoc.Key, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}
