// Package concierge renders deterministic answers from the villa catalog and
// the guest's bookings.
package concierge

import (
	"fmt"
	"math"
	"strings"
)

// Price formats an amount in euro, "€14" or "€14.50".
func Price(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("€%d", int64(p))
	}
	return fmt.Sprintf("€%.2f", p)
}

func contactLine(phone, email, ext string) string {
	var b strings.Builder
	b.WriteString("Telefono " + phone)
	if ext != "" {
		b.WriteString(" (interno " + ext + " dalla camera)")
	}
	if email != "" {
		b.WriteString(", email " + email)
	}
	return b.String()
}
