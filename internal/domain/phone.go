package domain

import "strings"

// NormalizePhone strips everything but digits, so the same wallet identity
// is used no matter how the caller formatted the number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
