package render

import (
	"fmt"
	"strings"
)

// Markdown renders extracted invoice fields as a human-readable summary with
// a line-items table. Used when the provider supplied no markdown of its own.
func Markdown(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Invoice\n\n")

	writeField(&b, "Invoice Number", fields["invoice_number"])
	writeField(&b, "Date", fields["date"])
	writeField(&b, "Vendor", fields["vendor_name"])
	writeField(&b, "Total Amount", fields["total_amount"])

	items, _ := fields["line_items"].([]any)
	if len(items) == 0 {
		return strings.TrimRight(b.String(), "\n") + "\n"
	}

	b.WriteString("\n## Line Items\n\n")
	b.WriteString("| # | Description | Quantity | Unit Price | Total |\n")
	b.WriteString("|---|-------------|----------|------------|-------|\n")
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			fmt.Fprintf(&b, "| %d | %v | | | |\n", i+1, raw)
			continue
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			i+1,
			cellString(item["description"]),
			cellString(item["quantity"]),
			cellString(item["unit_price"]),
			cellString(item["total_price"]),
		)
	}
	return b.String()
}

func writeField(b *strings.Builder, label string, v any) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "**%s:** %s\n", label, cellString(v))
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%.2f", t)
		}
		return fmt.Sprintf("%v", t)
	case string:
		return strings.ReplaceAll(t, "|", "\\|")
	default:
		return fmt.Sprintf("%v", t)
	}
}
