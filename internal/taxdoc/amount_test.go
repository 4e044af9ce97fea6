package taxdoc

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"plain string", "1234.56", "1234.56"},
		{"currency and separators", "$1,234.56", "1234.56"},
		{"parenthesised negative", "($2,000.00)", "-2000"},
		{"leading minus", "-15", "-15"},
		{"padded", "  42 ", "42"},
		{"float", 50000.0, "50000"},
		{"int", 7, "7"},
		{"json number", json.Number("19.99"), "19.99"},
		{"decimal passthrough", decimal.RequireFromString("3.14"), "3.14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmount_Rejects(t *testing.T) {
	for _, in := range []any{"N/A", "", nil, true, "12abc"} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrNotNumeric, "input %v", in)
	}
}

func TestClean(t *testing.T) {
	s, ok := Clean("  Jane Doe ")
	assert.True(t, ok)
	assert.Equal(t, "Jane Doe", s)

	_, ok = Clean("   ")
	assert.False(t, ok)

	_, ok = Clean(nil)
	assert.False(t, ok)

	s, ok = Clean(1500.5)
	assert.True(t, ok)
	assert.Equal(t, "1500.5", s)

	s, ok = Clean(false)
	assert.True(t, ok)
	assert.Equal(t, "false", s)
}
