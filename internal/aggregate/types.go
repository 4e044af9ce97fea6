package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"formflow/internal/common"
	"formflow/internal/taxdoc"
)

// MergePolicy selects how values of one key are combined across documents.
type MergePolicy int

const (
	Sum MergePolicy = iota
	Mode
	List
)

// String returns the policy name as written in rule tables.
func (p MergePolicy) String() string {
	switch p {
	case Sum:
		return "sum"
	case Mode:
		return "mode"
	case List:
		return "list"
	default:
		return common.UnknownStr
	}
}

// ParseMergePolicy parses a policy name, ignoring case.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return Sum, nil
	case "mode":
		return Mode, nil
	case "list":
		return List, nil
	default:
		return 0, fmt.Errorf("unknown merge policy %q", s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *MergePolicy) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseMergePolicy(node.Value)
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// MarshalText renders the policy by name.
func (p MergePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Item is one element of a List-policy value.
type Item struct {
	Value  string             `json:"value"`
	Source taxdoc.DocumentRef `json:"source"`
}

// Value is the merged result for one key. Only the field matching Policy is
// meaningful. Sources is sorted and never empty.
type Value struct {
	Policy  MergePolicy
	Amount  decimal.Decimal
	Text    string
	Items   []Item
	Sources []taxdoc.DocumentRef
}

// Raw returns the value in the shape written into form fields:
// a decimal for Sum, a string for Mode and a []string for List.
func (v Value) Raw() any {
	switch v.Policy {
	case Sum:
		return v.Amount
	case List:
		out := make([]string, len(v.Items))
		for i, it := range v.Items {
			out[i] = it.Value
		}

		return out
	default:
		return v.Text
	}
}

// SourceStrings returns Sources as plain strings.
func (v Value) SourceStrings() []string {
	out := make([]string, len(v.Sources))
	for i, s := range v.Sources {
		out[i] = string(s)
	}

	return out
}

// Result is the aggregated record for one target form.
type Result map[taxdoc.Key]Value

// Keys returns the present keys in sorted order.
func (r Result) Keys() []taxdoc.Key {
	keys := make([]taxdoc.Key, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

// Amount returns the summed amount for k, or zero when k is absent or not
// a Sum value. Mode values that parse as amounts are honoured too.
func (r Result) Amount(k taxdoc.Key) decimal.Decimal {
	v, ok := r[k]
	if !ok {
		return decimal.Zero
	}

	switch v.Policy {
	case Sum:
		return v.Amount
	case Mode:
		if d, err := taxdoc.ParseAmount(v.Text); err == nil {
			return d
		}
	}

	return decimal.Zero
}

// Count returns the number of items of a List value, zero when absent.
func (r Result) Count(k taxdoc.Key) int {
	v, ok := r[k]
	if !ok || v.Policy != List {
		return 0
	}

	return len(v.Items)
}

// Input describes one aggregation for one target form.
type Input struct {
	// Form names the target form in diagnostics.
	Form string
	// Records holds every document of the run, grouped by type.
	Records *taxdoc.Records
	// Relevant lists the document types this form reads, in visiting order.
	Relevant []taxdoc.DocType
	// Policies assigns a merge policy to each key the form reads.
	Policies map[taxdoc.Key]MergePolicy
	// ProprietorKeys are merged by Mode from proprietor documents only.
	ProprietorKeys []taxdoc.Key
	// ProprietorIndicators flag a document as a proprietor document.
	ProprietorIndicators []taxdoc.Key
}

// PropertyColumn is the aggregated record of one Schedule E property.
type PropertyColumn struct {
	Letter     string
	PropertyID string
	Refs       []taxdoc.DocumentRef
	Values     Result
}
