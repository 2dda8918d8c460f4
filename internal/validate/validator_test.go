package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInvoice() map[string]any {
	return map[string]any{
		"invoice_number": "INV-1001",
		"date":           "2024-03-15",
		"vendor_name":    "Acme Supplies",
		"total_amount":   float64(106.50),
		"line_items": []any{
			map[string]any{
				"description": "Widget",
				"quantity":    float64(2),
				"unit_price":  float64(3.00),
				"total_price": float64(6.00),
			},
			map[string]any{
				"description": "Gadget",
				"quantity":    float64(1),
				"unit_price":  float64(100.50),
				"total_price": float64(100.50),
			},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	ok, feedback := Validate(validInvoice())
	require.True(t, ok)
	assert.Empty(t, feedback)
}

func TestValidateMissingFieldsSingleEntry(t *testing.T) {
	fields := validInvoice()
	delete(fields, "invoice_number")
	fields["total_amount"] = nil

	ok, feedback := Validate(fields)
	require.False(t, ok)
	require.Len(t, feedback, 1)
	assert.Equal(t, "Missing required fields: invoice_number, total_amount", feedback[0])
}

func TestValidateSkipsConditionalChecksForAbsentFields(t *testing.T) {
	// a missing date is reported once as missing, not again as malformed
	fields := validInvoice()
	delete(fields, "date")

	_, feedback := Validate(fields)
	require.Len(t, feedback, 1)
	assert.Contains(t, feedback[0], "Missing required fields")
}

func TestValidateDateFormat(t *testing.T) {
	fields := validInvoice()
	fields["date"] = "15/03/2024"

	ok, feedback := Validate(fields)
	require.False(t, ok)
	require.Len(t, feedback, 1)
	assert.Equal(t, "Invalid date format. Expected YYYY-MM-DD, got 15/03/2024", feedback[0])
}

func TestValidateTotalAmount(t *testing.T) {
	t.Run("non-numeric", func(t *testing.T) {
		fields := validInvoice()
		fields["total_amount"] = "lots"
		_, feedback := Validate(fields)
		require.Len(t, feedback, 1)
		assert.Equal(t, "Invalid total amount: lots", feedback[0])
	})

	t.Run("zero", func(t *testing.T) {
		fields := validInvoice()
		fields["total_amount"] = float64(0)
		_, feedback := Validate(fields)
		require.Len(t, feedback, 1)
		assert.Equal(t, "Total amount must be greater than 0", feedback[0])
	})

	t.Run("numeric string accepted", func(t *testing.T) {
		fields := validInvoice()
		fields["total_amount"] = "106.50"
		ok, _ := Validate(fields)
		assert.True(t, ok)
	})
}

func TestValidateLineItemTotals(t *testing.T) {
	fields := validInvoice()
	items := fields["line_items"].([]any)
	item := items[0].(map[string]any)
	item["total_price"] = float64(6.50) // 2 * 3.00 = 6.00

	ok, feedback := Validate(fields)
	require.False(t, ok)
	require.Len(t, feedback, 1)
	assert.Equal(t, "Line item 1: quantity * unit_price (6.00) does not match total_price (6.5)", feedback[0])
}

func TestValidateLineItemTotalWithinTolerance(t *testing.T) {
	fields := validInvoice()
	items := fields["line_items"].([]any)
	item := items[0].(map[string]any)
	item["quantity"] = float64(3)
	item["unit_price"] = float64(0.333)
	item["total_price"] = float64(1.00) // 0.999 rounds to 1.00

	ok, feedback := Validate(fields)
	assert.True(t, ok, "feedback: %v", feedback)
}

func TestValidateLineItemShapes(t *testing.T) {
	fields := validInvoice()
	fields["line_items"] = []any{
		"not an object",
		map[string]any{"description": "only description"},
		map[string]any{
			"description": "bad numbers",
			"quantity":    "two",
			"unit_price":  float64(1),
			"total_price": float64(2),
		},
		map[string]any{
			"description": "negative",
			"quantity":    float64(-1),
			"unit_price":  float64(1),
			"total_price": float64(1),
		},
	}

	ok, feedback := Validate(fields)
	require.False(t, ok)
	require.Len(t, feedback, 4)
	assert.Equal(t, "Line item 1 is not a valid object", feedback[0])
	assert.Equal(t, "Line item 2 missing required fields: quantity, unit_price, total_price", feedback[1])
	assert.Contains(t, feedback[2], "Line item 3 has invalid numeric values")
	assert.Equal(t, "Line item 4 has invalid numeric values", feedback[3])
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	fields := map[string]any{
		"date":         "bad-date",
		"vendor_name":  "Acme",
		"total_amount": float64(-5),
		"line_items": []any{
			map[string]any{
				"description": "Widget",
				"quantity":    float64(2),
				"unit_price":  float64(3.00),
				"total_price": float64(7.00),
			},
		},
	}

	ok, feedback := Validate(fields)
	require.False(t, ok)
	require.Len(t, feedback, 4)
	assert.Equal(t, "Missing required fields: invoice_number", feedback[0])
	assert.Contains(t, feedback[1], "Invalid date format")
	assert.Equal(t, "Total amount must be greater than 0", feedback[2])
	assert.Contains(t, feedback[3], "Line item 1")
}

func TestValidateIsIdempotent(t *testing.T) {
	fields := validInvoice()
	fields["date"] = "nope"

	_, first := Validate(fields)
	_, second := Validate(fields)
	assert.Equal(t, first, second)
}
