package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formflow/internal/taxdoc"
)

var testKeys = map[string][]taxdoc.Key{
	"SchedC": {"EmployeeName", "GrossReceiptsOrSales", "TotalRevenue", "ReturnsAllowances", "OtherExpenseDescription"},
	"SchedE": {"PropertyAddress", "RentalIncome"},
}

func mustParse(t *testing.T, src string) *MappingFile {
	t.Helper()

	mf, err := Parse([]byte(src))
	require.NoError(t, err)

	return mf
}

func TestValidate_Clean(t *testing.T) {
	mf := mustParse(t, `
forms:
  - form: SchedC
    121:
      ReturnsAllowances: Line2_ReturnsAllowances
    fields:
      - source: [GrossReceiptsOrSales, TotalRevenue]
        target: Line1_GrossReceiptsSales
        transform: SumAmounts
      - source: EmployeeName
        target: [FirstNameInitial, LastName]
        transform: SplitName
    ignore: [OtherExpenseDescription]
`)

	res := Validate(mf, DefaultRegistry(), testKeys)
	assert.True(t, res.IsValid())
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Infos)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{
			name: "unknown form",
			src:  "forms:\n  - form: Form 9999\n",
			code: "unknown_form",
		},
		{
			name: "missing form",
			src:  "forms:\n  - columns: true\n",
			code: "missing_form",
		},
		{
			name: "duplicate form",
			src:  "forms:\n  - form: SchedE\n  - form: SchedE\n",
			code: "duplicate_form",
		},
		{
			name: "unknown source key",
			src:  "forms:\n  - form: SchedE\n    121:\n      Rent: SchedE_Line3_RentsReceived\n",
			code: "unknown_source_key",
		},
		{
			name: "missing target",
			src:  "forms:\n  - form: SchedE\n    fields:\n      - source: RentalIncome\n",
			code: "missing_target",
		},
		{
			name: "missing source",
			src:  "forms:\n  - form: SchedE\n    fields:\n      - target: SchedE_Line3_RentsReceived\n",
			code: "missing_source",
		},
		{
			name: "N:1 without transform",
			src: `
forms:
  - form: SchedC
    fields:
      - source: [GrossReceiptsOrSales, TotalRevenue]
        target: Line1_GrossReceiptsSales
`,
			code: "transform_required",
		},
		{
			name: "unknown transform",
			src: `
forms:
  - form: SchedC
    fields:
      - source: [GrossReceiptsOrSales, TotalRevenue]
        target: Line1_GrossReceiptsSales
        transform: Concat
`,
			code: "unknown_transform",
		},
		{
			name: "transform arity",
			src: `
forms:
  - form: SchedC
    fields:
      - source: EmployeeName
        target: FirstNameInitial
        transform: SplitName
`,
			code: "transform_arity",
		},
		{
			name: "duplicate target",
			src: `
forms:
  - form: SchedE
    121:
      RentalIncome: SchedE_Line3_RentsReceived
    fields:
      - source: PropertyAddress
        target: SchedE_Line3_RentsReceived
`,
			code: "duplicate_target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(mustParse(t, tt.src), DefaultRegistry(), testKeys)
			assert.False(t, res.IsValid())
			assert.True(t, res.HasCode(tt.code), "want %s, got %v", tt.code, res.Errors)
		})
	}
}

func TestValidate_WarningsAndInfos(t *testing.T) {
	mf := mustParse(t, `
forms:
  - form: SchedE
    121:
      PropertyAddress: SchedE_Line1a_Address
    ignore: [Nonexistent]
`)

	res := Validate(mf, DefaultRegistry(), testKeys)
	assert.True(t, res.IsValid())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "unknown_ignore_key", res.Warnings[0].Code)
	require.Len(t, res.Infos, 1)
	assert.Equal(t, "unmapped_key", res.Infos[0].Code)
	assert.Equal(t, "RentalIncome", res.Infos[0].Key)
}

func TestValidate_NilInputs(t *testing.T) {
	res := Validate(nil, DefaultRegistry(), testKeys)
	assert.True(t, res.HasCode("mapping_is_nil"))

	res = Validate(&MappingFile{}, nil, testKeys)
	assert.True(t, res.HasCode("registry_is_nil"))
}
