package signing

import (
	"strings"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

// Separator joins field values in the canonical string.
const Separator = "|"

// Canonicalize joins the values of the scope's fields, ordered by field
// name, with Separator. Fields outside the scope are ignored. A scope
// field that is absent or empty yields a missing signing field error.
func Canonicalize(fields map[string]string, scope Scope) (string, error) {
	var b strings.Builder

	for i, name := range scope.fields {
		v, ok := fields[name]
		if !ok || v == "" {
			return "", domain.NewMissingSigningFieldError(name)
		}
		if i > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(v)
	}

	return b.String(), nil
}
