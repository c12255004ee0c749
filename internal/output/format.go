package output

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

var ten = decimal.NewFromInt(10)

// FormatVCFDouble formats a floating-point INFO value the way htsjdk does:
// two decimals at or above 1, three decimals below 1, and scientific
// notation for small non-zero magnitudes. Rounding is half-up on the
// shortest decimal form of d, as Java's Formatter does.
func FormatVCFDouble(d float64) string {
	switch {
	case math.IsNaN(d):
		return "NaN"
	case math.IsInf(d, 1):
		return "Infinity"
	case math.IsInf(d, -1):
		return "-Infinity"
	case d >= 1:
		return decimal.NewFromFloat(d).StringFixed(2)
	case d >= 0.01:
		return decimal.NewFromFloat(d).StringFixed(3)
	case math.Abs(d) >= 1e-20:
		return formatScientific(decimal.NewFromFloat(d), 3)
	default:
		return "0.00"
	}
}

// formatScientific renders d as m.mmme±XX with places mantissa decimals.
func formatScientific(d decimal.Decimal, places int32) string {
	exp := int32(len(d.Coefficient().String())) + d.Exponent() - 1
	if d.Sign() < 0 {
		exp-- // leading '-' in the coefficient
	}
	mantissa := d.Shift(-exp).Round(places)
	if mantissa.Abs().GreaterThanOrEqual(ten) {
		exp++
		mantissa = d.Shift(-exp).Round(places)
	}
	return fmt.Sprintf("%se%+03d", mantissa.StringFixed(places), exp)
}

// formatInfoValue renders a parsed INFO value back to its text form.
func formatInfoValue(val interface{}) string {
	switch x := val.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return FormatVCFDouble(x)
	default:
		return ""
	}
}
