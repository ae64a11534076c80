package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NewOrderID returns an identifier of the form ORD-YYYYMMDD-<16 hex>.
func NewOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// ł does not decompose under NFD
var strokeReplacer = strings.NewReplacer("ł", "l", "Ł", "L", "đ", "d", "Đ", "D", "ø", "o", "Ø", "O")

// asciiFold strips diacritics so free-text fields survive the hosted page.
func asciiFold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strokeReplacer.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// expandURL substitutes the {order_id} placeholder in a configured URL.
func expandURL(tmpl, orderID string) string {
	return strings.ReplaceAll(tmpl, "{order_id}", orderID)
}
