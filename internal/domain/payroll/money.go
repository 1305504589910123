package payroll

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatINR formats an amount with two decimals and Indian digit grouping,
// e.g. 123456.78 becomes "1,23,456.78".
func FormatINR(v float64) string {
	cents := int64(math.Round(math.Abs(v) * 100))
	whole := strconv.FormatInt(cents/100, 10)

	groups := []string{}
	if len(whole) > 3 {
		groups = append(groups, whole[len(whole)-3:])
		whole = whole[:len(whole)-3]
		for len(whole) > 2 {
			groups = append([]string{whole[len(whole)-2:]}, groups...)
			whole = whole[:len(whole)-2]
		}
	}
	groups = append([]string{whole}, groups...)

	sign := ""
	if v < 0 && cents != 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%02d", sign, strings.Join(groups, ","), cents%100)
}

// Money is FormatINR for an optional amount; nil renders as 0.00.
func Money(v *float64) string {
	return FormatINR(amount(v))
}
