// Package form holds the field structure of a tax form and the operations
// that populate it.
//
// A Structure is an ordered list of pages, each an ordered list of Fields.
// Blank structures come from a Loader, are populated by Inject with mapped
// aggregate values, are then mutated by the calculation engine, and are
// finally cached for the forms that read them.
//
// The JSON document form is the nested page object used by the downstream
// form filler:
//
//	{
//	  "page_1": {"fields": [{"field_name": "Line1z", "value": 50000, "sources": ["w2.pdf"]}]},
//	  "page_2": {"fields": [...]}
//	}
//
// Page order is preserved in both directions.
package form
