package alyes

import "strings"

// NormalizePhone strips everything but digits: "010-1234-5678" -> "01012345678".
// The backend matches guardians on the bare digit string.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders an 11-digit number as 010-1234-5678 for display.
// Anything else comes back as the bare digits.
func FormatPhone(phone string) string {
	digits := NormalizePhone(phone)
	if len(digits) != 11 {
		return digits
	}
	return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
}
