package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"strings"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

// Algorithm is the value announced in the hash_algorithm field.
const Algorithm = "HMACSHA256"

// Engine signs and verifies canonical strings with a shared secret.
// It is immutable and safe for concurrent use.
type Engine struct {
	secret []byte
	enc    Encoding
}

func NewEngine(secret string, enc Encoding) (*Engine, error) {
	if secret == "" {
		return nil, domain.NewConfigurationError("shared secret is not configured")
	}
	if enc == nil {
		enc = Base64
	}
	return &Engine{secret: []byte(secret), enc: enc}, nil
}

func (e *Engine) Encoding() Encoding {
	return e.enc
}

// Sign returns the encoded HMAC-SHA256 of canonical.
func (e *Engine) Sign(canonical string) string {
	return e.enc.EncodeToString(e.mac(canonical))
}

// Verify reports whether candidate is the signature of canonical. The
// encoded forms are compared in constant time, so two encodings of the same
// MAC are not interchangeable.
func (e *Engine) Verify(canonical, candidate string) bool {
	if candidate == "" {
		return false
	}
	if e.enc == Hex {
		candidate = strings.ToLower(candidate)
	}
	return hmac.Equal([]byte(e.Sign(canonical)), []byte(candidate))
}

// SignFields canonicalizes fields over scope and signs the result.
func (e *Engine) SignFields(fields map[string]string, scope Scope) (string, error) {
	canonical, err := Canonicalize(fields, scope)
	if err != nil {
		return "", err
	}
	return e.Sign(canonical), nil
}

// VerifyFields checks the signature carried in fields against scope.
func (e *Engine) VerifyFields(fields map[string]string, scope Scope) (bool, error) {
	candidate, ok := scope.Signature(fields)
	if !ok {
		return false, nil
	}
	canonical, err := Canonicalize(fields, scope)
	if err != nil {
		return false, err
	}
	return e.Verify(canonical, candidate), nil
}

func (e *Engine) mac(canonical string) []byte {
	h := hmac.New(sha256.New, e.secret)
	h.Write([]byte(canonical))
	return h.Sum(nil)
}

// Preview shortens a signature for log output.
func Preview(sig string) string {
	if len(sig) <= 20 {
		return sig
	}
	return sig[:20] + "..."
}
