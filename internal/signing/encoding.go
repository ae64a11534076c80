package signing

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
)

// Encoding turns a raw MAC into its transmitted text form and back.
type Encoding interface {
	Name() string
	EncodeToString(src []byte) string
	DecodeString(s string) ([]byte, error)
}

type base64Encoding struct{}

func (base64Encoding) Name() string                          { return "base64" }
func (base64Encoding) EncodeToString(src []byte) string      { return base64.StdEncoding.EncodeToString(src) }
func (base64Encoding) DecodeString(s string) ([]byte, error) { return base64.StdEncoding.Strict().DecodeString(s) }

type hexEncoding struct{}

func (hexEncoding) Name() string                          { return "hex" }
func (hexEncoding) EncodeToString(src []byte) string      { return hex.EncodeToString(src) }
func (hexEncoding) DecodeString(s string) ([]byte, error) { return hex.DecodeString(s) }

var (
	Base64 Encoding = base64Encoding{}
	Hex    Encoding = hexEncoding{}
)

// ParseEncoding resolves a configured encoding name. Empty means base64.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "base64":
		return Base64, nil
	case "hex":
		return Hex, nil
	}
	return nil, domain.NewConfigurationError(fmt.Sprintf("unsupported signature encoding %q", name))
}
