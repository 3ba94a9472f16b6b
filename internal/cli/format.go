package cli

import (
	"fmt"
	"time"
)

// FormatUSD formats an amount as a dollar figure with two decimals and
// thousands separators.
func FormatUSD(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := fmt.Sprintf("%.2f", amount)

	intPart := s[:len(s)-3]
	fracPart := s[len(s)-3:]
	var grouped []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, c)
	}
	return sign + "$" + string(grouped) + fracPart
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%+.2f%%", value)
}

// FormatChange formats an absolute change with its percentage.
func FormatChange(change, changePct float64) string {
	return fmt.Sprintf("%+.2f (%+.2f%%)", change, changePct)
}

// FormatTime formats a timestamp for display.
func FormatTime(t time.Time) string {
	return t.Format("15:04:05")
}

// FormatDateTime formats a full timestamp for display.
func FormatDateTime(t time.Time) string {
	return t.Format("02 Jan 2006 15:04:05")
}

// TruncateString truncates a string to maxLen with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
