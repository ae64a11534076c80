// Package signing builds canonical signing strings from vendor fields and
// computes and verifies keyed signatures over them.
package signing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

// AlgorithmField names the transmitted field announcing the hash algorithm.
// It is never part of a signing scope.
const AlgorithmField = "hash_algorithm"

// Scope is a named, versioned set of fields covered by a signature.
type Scope struct {
	Name    string
	Version int

	fields          []string
	signatureFields []string
}

// NewScope validates and freezes a scope. The first signature field is the
// one written on outbound requests; the rest are accepted when reading.
func NewScope(name string, version int, fields []string, signatureFields ...string) (Scope, error) {
	if len(signatureFields) == 0 || signatureFields[0] == "" {
		return Scope{}, domain.NewConfigurationError(fmt.Sprintf("scope %s: signature field is required", name))
	}

	excluded := append([]string{AlgorithmField}, signatureFields...)
	seen := make(map[string]struct{}, len(fields))
	sorted := make([]string, 0, len(fields))

	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return Scope{}, domain.NewConfigurationError(fmt.Sprintf("scope %s: empty field name", name))
		}
		if slices.Contains(excluded, f) {
			return Scope{}, domain.NewConfigurationError(fmt.Sprintf("scope %s: field %s cannot be signed", name, f))
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		sorted = append(sorted, f)
	}

	if len(sorted) == 0 {
		return Scope{}, domain.NewConfigurationError(fmt.Sprintf("scope %s: no fields configured", name))
	}

	// byte-wise ordering, not locale collation
	slices.Sort(sorted)

	return Scope{
		Name:            name,
		Version:         version,
		fields:          sorted,
		signatureFields: slices.Clone(signatureFields),
	}, nil
}

func MustScope(name string, version int, fields []string, signatureFields ...string) Scope {
	s, err := NewScope(name, version, fields, signatureFields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the scope members in canonical order.
func (s Scope) Fields() []string {
	return slices.Clone(s.fields)
}

func (s Scope) Contains(field string) bool {
	_, found := slices.BinarySearch(s.fields, field)
	return found
}

func (s Scope) SignatureField() string {
	return s.signatureFields[0]
}

// Signature returns the first non-empty signature candidate present in fields.
func (s Scope) Signature(fields map[string]string) (string, bool) {
	for _, name := range s.signatureFields {
		if v := strings.TrimSpace(fields[name]); v != "" {
			return v, true
		}
	}
	return "", false
}

func (s Scope) String() string {
	return fmt.Sprintf("%s/v%d", s.Name, s.Version)
}
