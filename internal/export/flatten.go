package export

import (
	"fmt"
)

var headerFields = []string{"invoice_number", "date", "vendor_name", "total_amount"}
var itemFields = []string{"description", "quantity", "unit_price", "total_price"}

// Flatten converts structured invoice fields into the row-oriented form the
// tabular destination wants: top-level scalars as-is, line_items exploded
// into positionally-named columns (item_1_description, item_1_quantity, ...).
// The returned key slice fixes the column order.
func Flatten(fields map[string]any) ([]string, map[string]any) {
	keys := make([]string, 0, len(headerFields))
	flat := make(map[string]any, len(headerFields))

	for _, k := range headerFields {
		keys = append(keys, k)
		flat[k] = fields[k]
	}

	items, _ := fields["line_items"].([]any)
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, f := range itemFields {
			k := fmt.Sprintf("item_%d_%s", i+1, f)
			keys = append(keys, k)
			flat[k] = item[f]
		}
	}
	return keys, flat
}
