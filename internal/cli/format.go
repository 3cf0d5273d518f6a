// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatAmount formats a currency amount with comma separators.
// Whole amounts drop the cents: 102500 -> "$102,500", 10.5 -> "$10.50".
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := math.Round(v * 100)
	whole := int64(cents / 100)
	frac := int64(cents) % 100
	if frac == 0 {
		return sign + "$" + FormatNumber(whole)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, FormatNumber(whole), frac)
}

// FormatCompact formats an amount with human-readable suffixes.
// e.g., 1500 -> "$1.5K", 2500000 -> "$2.5M"
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("$%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return FormatAmount(v)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDrawID renders a draw ID as given, or a dash when there is none.
func FormatDrawID(id *float64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatFloat(*id, 'f', -1, 64)
}

// FormatID renders an item ID, using a dash for the unknown ID 0.
func FormatID(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}
