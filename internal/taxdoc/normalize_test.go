package taxdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"EmployeeSSN", "employeessn"},
		{"employee_ssn", "employeessn"},
		{"employee-ssn", "employeessn"},
		{"Employee SSN", "employeessn"},
		{"EMPLOYEESSN", "employeessn"},
		{"wagesTipsOtherComp", "wagestipsothercomp"},
		{"SE_HealthInsuranceDeductionAmount", "sehealthinsurancedeductionamount"},
		{"Federal.Income_Tax-Withheld", "federalincometaxwithheld"},
		{"Wages/Tips (Other Comp)", "wagestipsothercomp"},
		{"Line 1z", "line1z"},
		{"", ""},
		{"--", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeIdent(tt.input))
		})
	}
}

func TestCanonicalizer_Lookup(t *testing.T) {
	c := NewCanonicalizer([]Key{"EmployeeSSN", "WagesTipsOtherComp", "PropertyAddress"})

	tests := []struct {
		raw  string
		want Key
		ok   bool
	}{
		{"EmployeeSSN", "EmployeeSSN", true},
		{"employee_ssn", "EmployeeSSN", true},
		{" Wages Tips Other Comp ", "WagesTipsOtherComp", true},
		{"property-address", "PropertyAddress", true},
		{"FavouriteColour", "", false},
		{"__", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := c.Lookup(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizer_NilAcceptsEverything(t *testing.T) {
	var c *Canonicalizer

	got, ok := c.Lookup("AnythingGoes")
	assert.True(t, ok)
	assert.Equal(t, Key("AnythingGoes"), got)
}
