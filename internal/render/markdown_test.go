package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownRendersSummaryAndTable(t *testing.T) {
	md := Markdown(map[string]any{
		"invoice_number": "INV-1",
		"date":           "2024-03-15",
		"vendor_name":    "Acme | Co",
		"total_amount":   float64(6),
		"line_items": []any{
			map[string]any{
				"description": "Widget",
				"quantity":    float64(2),
				"unit_price":  float64(3),
				"total_price": float64(6),
			},
		},
	})

	assert.Contains(t, md, "# Invoice")
	assert.Contains(t, md, "**Invoice Number:** INV-1")
	assert.Contains(t, md, "Acme \\| Co")
	assert.Contains(t, md, "## Line Items")
	assert.Contains(t, md, "| 1 | Widget | 2.00 | 3.00 | 6.00 |")
}

func TestMarkdownOmitsAbsentFields(t *testing.T) {
	md := Markdown(map[string]any{"vendor_name": "Acme"})
	assert.Contains(t, md, "**Vendor:** Acme")
	assert.NotContains(t, md, "Invoice Number")
	assert.NotContains(t, md, "Line Items")
}

func TestMarkdownEmptyFields(t *testing.T) {
	assert.Empty(t, Markdown(nil))
	assert.Empty(t, Markdown(map[string]any{}))
}

func TestPlainTextStripsStructure(t *testing.T) {
	md := Markdown(map[string]any{
		"invoice_number": "INV-1",
		"vendor_name":    "Acme",
		"line_items": []any{
			map[string]any{
				"description": "Widget",
				"quantity":    float64(2),
				"unit_price":  float64(3),
				"total_price": float64(6),
			},
		},
	})
	text := PlainText(md)

	require.NotEmpty(t, text)
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "|")
	assert.Contains(t, text, "INV-1")
	assert.Contains(t, text, "Widget")
}

func TestPlainTextEmpty(t *testing.T) {
	assert.Empty(t, PlainText(""))
}
