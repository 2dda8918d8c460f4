package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RequiredFields are the top-level invoice attributes that must be present
// and non-null.
var RequiredFields = []string{
	"invoice_number",
	"date",
	"vendor_name",
	"total_amount",
	"line_items",
}

// itemRequiredFields are the attributes every line item must carry.
var itemRequiredFields = []string{"description", "quantity", "unit_price", "total_price"}

// totalTolerance is the absolute tolerance for quantity*unit_price vs
// total_price, absorbing decimal rounding in source documents.
const totalTolerance = 0.01

// Validate checks extracted invoice fields against the full rule set and
// returns every violation, not just the first. Feedback entries are plain
// strings ready for display, ordered by rule then by line-item index.
// Pure: no side effects, deterministic for identical input.
func Validate(fields map[string]any) (bool, []string) {
	feedback := make([]string, 0, 4)

	var missing []string
	for _, f := range RequiredFields {
		if v, ok := fields[f]; !ok || v == nil {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		feedback = append(feedback, "Missing required fields: "+strings.Join(missing, ", "))
	}

	// Conditional checks are skipped for absent fields; a missing date has
	// already been reported and has no format to check.
	if v, ok := fields["date"]; ok && v != nil {
		s, _ := v.(string)
		if _, err := time.Parse("2006-01-02", s); err != nil {
			feedback = append(feedback, fmt.Sprintf("Invalid date format. Expected YYYY-MM-DD, got %v", v))
		}
	}

	if v, ok := fields["total_amount"]; ok && v != nil {
		total, err := toFloat(v)
		switch {
		case err != nil:
			feedback = append(feedback, fmt.Sprintf("Invalid total amount: %v", v))
		case total <= 0:
			feedback = append(feedback, "Total amount must be greater than 0")
		}
	}

	if items, ok := fields["line_items"].([]any); ok {
		for i, raw := range items {
			idx := i + 1 // 1-indexed for human-readable feedback
			item, ok := raw.(map[string]any)
			if !ok {
				feedback = append(feedback, fmt.Sprintf("Line item %d is not a valid object", idx))
				continue
			}

			var itemMissing []string
			for _, f := range itemRequiredFields {
				if v, ok := item[f]; !ok || v == nil {
					itemMissing = append(itemMissing, f)
				}
			}
			if len(itemMissing) > 0 {
				feedback = append(feedback, fmt.Sprintf("Line item %d missing required fields: %s", idx, strings.Join(itemMissing, ", ")))
				continue
			}

			quantity, qErr := toFloat(item["quantity"])
			unitPrice, uErr := toFloat(item["unit_price"])
			totalPrice, tErr := toFloat(item["total_price"])
			if err := firstError(qErr, uErr, tErr); err != nil {
				feedback = append(feedback, fmt.Sprintf("Line item %d has invalid numeric values: %v", idx, err))
				continue
			}
			if quantity <= 0 || unitPrice < 0 || totalPrice < 0 {
				feedback = append(feedback, fmt.Sprintf("Line item %d has invalid numeric values", idx))
				continue
			}

			calculated := math.Round(quantity*unitPrice*100) / 100
			if math.Abs(calculated-totalPrice) > totalTolerance {
				feedback = append(feedback, fmt.Sprintf(
					"Line item %d: quantity * unit_price (%.2f) does not match total_price (%v)",
					idx, calculated, item["total_price"]))
			}
		}
	}

	return len(feedback) == 0, feedback
}

// toFloat coerces the loosely-typed values JSON decoding produces.
func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as number", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
