package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/signing"
)

// Every transmitted field except the signature, the algorithm name and the
// optional donor fields.
var DefaultOutboundFields = []string{
	"chargetotal",
	"checkoutoption",
	"currency",
	"oid",
	"paymentMethod",
	"responseFailURL",
	"responseSuccessURL",
	"storename",
	"timezone",
	"transactionNotificationURL",
	"txndatetime",
	"txntype",
}

var DefaultNotificationFields = []string{
	"approval_code",
	"chargetotal",
	"currency",
	"oid",
	"status",
	"storename",
	"txndatetime",
}

// Location loads the time zone in which transaction timestamps are written.
func (c GatewayConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, domain.NewConfigurationError(fmt.Sprintf("unknown timezone %q", c.Timezone))
	}
	return loc, nil
}

func (c GatewayConfig) Limits() (domain.AmountLimits, error) {
	minAmount, err := domain.ParseAmount(c.MinAmount)
	if err != nil {
		return domain.AmountLimits{}, domain.NewConfigurationError(fmt.Sprintf("gateway.min_amount: %v", err))
	}
	maxAmount, err := domain.ParseAmount(c.MaxAmount)
	if err != nil {
		return domain.AmountLimits{}, domain.NewConfigurationError(fmt.Sprintf("gateway.max_amount: %v", err))
	}
	if !minAmount.IsPositive() || maxAmount.LessThan(minAmount) {
		return domain.AmountLimits{}, domain.NewConfigurationError(
			fmt.Sprintf("amount limits %s..%s are not a positive range", minAmount, maxAmount))
	}
	return domain.AmountLimits{Min: minAmount, Max: maxAmount}, nil
}

// Scopes builds the outbound and notification signing scopes.
func (c SigningConfig) Scopes() (outbound, notification signing.Scope, err error) {
	outbound, err = c.Outbound.scope()
	if err != nil {
		return signing.Scope{}, signing.Scope{}, err
	}
	notification, err = c.Notification.scope()
	if err != nil {
		return signing.Scope{}, signing.Scope{}, err
	}
	return outbound, notification, nil
}

// NewEngine builds the signature engine from the shared secret.
func (c *Config) NewEngine() (*signing.Engine, error) {
	enc, err := signing.ParseEncoding(c.Signing.Encoding)
	if err != nil {
		return nil, err
	}
	return signing.NewEngine(c.Gateway.SharedSecret, enc)
}

func (c ScopeConfig) scope() (signing.Scope, error) {
	return signing.NewScope(c.Name, c.Version, trimAll(c.Fields), trimAll(c.SignatureFields)...)
}

// AllowedPrefixes parses the webhook source allowlist. Bare addresses are
// treated as single-host prefixes.
func (c WebhookConfig) AllowedPrefixes() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, raw := range trimAll(c.AllowedSources) {
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, domain.NewConfigurationError(fmt.Sprintf("webhook.allowed_sources: %q: %v", raw, err))
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, domain.NewConfigurationError(fmt.Sprintf("webhook.allowed_sources: %q: %v", raw, err))
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
