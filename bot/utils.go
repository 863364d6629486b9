package bot

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount formats an amount with thousands separators, e.g. 12345.5 -> "12,345.5"
func FormatAmount(amount decimal.Decimal) string {
	str := amount.String()

	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(str, ".")

	n := len(intPart)
	var result strings.Builder
	result.WriteString(sign)
	for i, digit := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	if hasFrac {
		result.WriteString(".")
		result.WriteString(fracPart)
	}
	return result.String()
}

// truncate shortens s to fit a Discord embed field
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
