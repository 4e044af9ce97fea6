// Package mapping provides the YAML translation tables from aggregated keys
// to target form field names, their validation, and the transform registry.
//
// Tables are pure and static per form: a key missing from a form's table is
// dropped without complaint, so the union of all tables need not cover every
// aggregated key.
//
// # Schema Overview
//
// The mapping file has the following structure:
//
//	version: "1"
//	forms:
//	  - form: "1040"
//	    # Simplified 1:1 mappings (highest priority)
//	    121:
//	      WagesTipsOtherComp: Income_1z
//	      FederalIncomeTaxWithheld: Line25a_FormW2
//	    # Full field mappings with all options
//	    fields:
//	      - target: [FirstNameInitial, LastName]  # 1:N with a splitting transform
//	        source: EmployeeName
//	        transform: SplitName
//	      - target: Line1_GrossReceiptsSales       # N:1 (requires transform)
//	        source: [GrossReceiptsOrSales, TotalRevenue]
//	        transform: SumAmounts
//	    # Aggregated keys that are read by the calculation, never mapped
//	    ignore:
//	      - DependentName
//	  - form: SchedE
//	    # One mapping per property column, letter appended to each target
//	    columns: true
//
// # Priority Order
//
// When two rules write the same target, the first one wins:
//  1. "121" shorthand mappings (highest)
//  2. "fields" explicit mappings, in file order
//
// # Arity
//
//   - 1:1 (OneToOne) one key, one field
//   - 1:N (Fanout) one key copied into several fields, sources included
//   - N:1 (Combine) several keys folded into one field; needs a transform
//   - N:M (Reshape) several keys spread over several fields; needs a transform
//
// # Transform Registry
//
// Transforms are referenced by name in field mappings. The registry ships
// SplitName, SumAmounts and FirstPresent; Validate checks that referenced
// transforms exist and accept the mapping's arity.
package mapping
