package signing_test

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notificationScope = signing.MustScope("notification", 1,
	[]string{"txndatetime", "status", "storename", "oid", "currency", "chargetotal", "approval_code"},
	"notification_hash", "response_hash", "hash",
)

func notificationFields() map[string]string {
	return map[string]string{
		"approval_code": "Y:123456:0123456789:PPX :1234",
		"chargetotal":   "10.00",
		"currency":      "985",
		"oid":           "ORD-1",
		"status":        "APPROVED",
		"storename":     "1100000001",
		"txndatetime":   "2026:03:01-10:15:00",
	}
}

func mustEngine(t *testing.T, secret string, enc signing.Encoding) *signing.Engine {
	t.Helper()
	e, err := signing.NewEngine(secret, enc)
	require.NoError(t, err)
	return e
}

// RFC 4231, test case 2.
func TestEngine_ConformsToRFC4231(t *testing.T) {
	const wantHex = "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	raw, err := hex.DecodeString(wantHex)
	require.NoError(t, err)

	t.Run("hex", func(t *testing.T) {
		e := mustEngine(t, "Jefe", signing.Hex)
		assert.Equal(t, wantHex, e.Sign("what do ya want for nothing?"))
	})

	t.Run("base64", func(t *testing.T) {
		e := mustEngine(t, "Jefe", signing.Base64)
		assert.Equal(t, base64.StdEncoding.EncodeToString(raw), e.Sign("what do ya want for nothing?"))
	})
}

func TestNewEngine_RequiresSecret(t *testing.T) {
	_, err := signing.NewEngine("", signing.Base64)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewScope(t *testing.T) {
	t.Run("sorts fields byte-wise", func(t *testing.T) {
		s := signing.MustScope("outbound", 1, []string{"txntype", "Zeta", "chargetotal", "oid"}, "hashExtended")
		assert.Equal(t, []string{"Zeta", "chargetotal", "oid", "txntype"}, s.Fields())
		assert.Equal(t, "hashExtended", s.SignatureField())
		assert.Equal(t, "outbound/v1", s.String())
	})

	t.Run("rejects empty scope", func(t *testing.T) {
		_, err := signing.NewScope("outbound", 1, nil, "hashExtended")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("rejects signature field as member", func(t *testing.T) {
		_, err := signing.NewScope("outbound", 1, []string{"oid", "hashExtended"}, "hashExtended")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("rejects algorithm field as member", func(t *testing.T) {
		_, err := signing.NewScope("outbound", 1, []string{"oid", signing.AlgorithmField}, "hashExtended")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("requires a signature field", func(t *testing.T) {
		_, err := signing.NewScope("outbound", 1, []string{"oid"})
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("collapses duplicates", func(t *testing.T) {
		s := signing.MustScope("outbound", 1, []string{"oid", "oid", "currency"}, "hashExtended")
		assert.Equal(t, []string{"currency", "oid"}, s.Fields())
	})
}

func TestCanonicalize(t *testing.T) {
	t.Run("joins values in field name order", func(t *testing.T) {
		got, err := signing.Canonicalize(notificationFields(), notificationScope)
		require.NoError(t, err)
		assert.Equal(t, "Y:123456:0123456789:PPX :1234|10.00|985|ORD-1|APPROVED|1100000001|2026:03:01-10:15:00", got)
	})

	t.Run("ignores fields outside the scope", func(t *testing.T) {
		fields := notificationFields()
		base, err := signing.Canonicalize(fields, notificationScope)
		require.NoError(t, err)

		fields["ipgTransactionId"] = "84512"
		fields["notification_hash"] = "whatever"
		fields["bname"] = "Somebody"
		got, err := signing.Canonicalize(fields, notificationScope)
		require.NoError(t, err)
		assert.Equal(t, base, got)
	})

	t.Run("independent of insertion order", func(t *testing.T) {
		a := map[string]string{}
		b := map[string]string{}
		keys := notificationScope.Fields()
		src := notificationFields()
		for _, k := range keys {
			a[k] = src[k]
		}
		for i := len(keys) - 1; i >= 0; i-- {
			b[keys[i]] = src[keys[i]]
		}

		ca, err := signing.Canonicalize(a, notificationScope)
		require.NoError(t, err)
		cb, err := signing.Canonicalize(b, notificationScope)
		require.NoError(t, err)
		assert.Equal(t, ca, cb)
	})

	t.Run("missing field", func(t *testing.T) {
		fields := notificationFields()
		delete(fields, "storename")
		_, err := signing.Canonicalize(fields, notificationScope)
		assert.ErrorIs(t, err, domain.ErrMissingSigningField)
		assert.Contains(t, err.Error(), "storename")
	})

	t.Run("empty field", func(t *testing.T) {
		fields := notificationFields()
		fields["currency"] = ""
		_, err := signing.Canonicalize(fields, notificationScope)
		assert.ErrorIs(t, err, domain.ErrMissingSigningField)
	})
}

func TestEngine_SignVerifyRoundTrip(t *testing.T) {
	for _, enc := range []signing.Encoding{signing.Base64, signing.Hex} {
		t.Run(enc.Name(), func(t *testing.T) {
			e := mustEngine(t, "shared-secret", enc)

			canonical, err := signing.Canonicalize(notificationFields(), notificationScope)
			require.NoError(t, err)

			sig := e.Sign(canonical)
			assert.True(t, e.Verify(canonical, sig))
			assert.False(t, e.Verify(canonical+"x", sig))
			assert.False(t, e.Verify(canonical, ""))
			assert.False(t, e.Verify(canonical, "not-a-signature"))

			other := mustEngine(t, "other-secret", enc)
			assert.False(t, other.Verify(canonical, sig))
		})
	}
}

// The last base64 character before the padding carries two unused bits, so
// flipping its low bit leaves the decoded MAC unchanged.
func TestEngine_VerifyRejectsAlteredPaddingBits(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	e := mustEngine(t, "shared-secret", signing.Base64)

	canonical, err := signing.Canonicalize(notificationFields(), notificationScope)
	require.NoError(t, err)
	sig := e.Sign(canonical)
	require.Len(t, sig, 44)
	require.Equal(t, byte('='), sig[43])

	last := strings.IndexByte(alphabet, sig[42])
	require.GreaterOrEqual(t, last, 0)
	altered := sig[:42] + string(alphabet[last^1]) + "="

	decoded, err := base64.StdEncoding.DecodeString(altered)
	require.NoError(t, err)
	original, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	require.Equal(t, original, decoded)

	assert.False(t, e.Verify(canonical, altered))
	assert.False(t, e.Verify(canonical, sig[:20]+"\r\n"+sig[20:]))
	assert.True(t, e.Verify(canonical, sig))
}

func TestBase64_DecodeIsStrict(t *testing.T) {
	_, err := signing.Base64.DecodeString("AA==")
	assert.NoError(t, err)
	_, err = signing.Base64.DecodeString("AB==")
	assert.Error(t, err)
}

func TestEngine_HexVerifyIgnoresCase(t *testing.T) {
	e := mustEngine(t, "Jefe", signing.Hex)
	assert.True(t, e.Verify("what do ya want for nothing?", "5BDCC146BF60754E6A042426089575C75A003F089D2739839DEC58B964EC3843"))
}

func TestEngine_VerifyFields(t *testing.T) {
	e := mustEngine(t, "shared-secret", signing.Base64)

	signed := func() map[string]string {
		fields := notificationFields()
		sig, err := e.SignFields(fields, notificationScope)
		require.NoError(t, err)
		fields["notification_hash"] = sig
		return fields
	}

	t.Run("valid", func(t *testing.T) {
		ok, err := e.VerifyFields(signed(), notificationScope)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("accepts fallback signature field", func(t *testing.T) {
		fields := signed()
		fields["response_hash"] = fields["notification_hash"]
		delete(fields, "notification_hash")

		ok, err := e.VerifyFields(fields, notificationScope)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("tampered in-scope field", func(t *testing.T) {
		fields := signed()
		fields["chargetotal"] = "1000.00"

		ok, err := e.VerifyFields(fields, notificationScope)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("tampered out-of-scope field still verifies", func(t *testing.T) {
		fields := signed()
		fields["ipgTransactionId"] = "changed"

		ok, err := e.VerifyFields(fields, notificationScope)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no signature", func(t *testing.T) {
		ok, err := e.VerifyFields(notificationFields(), notificationScope)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestParseEncoding(t *testing.T) {
	enc, err := signing.ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, "base64", enc.Name())

	enc, err = signing.ParseEncoding("HEX")
	require.NoError(t, err)
	assert.Equal(t, "hex", enc.Name())

	_, err = signing.ParseEncoding("base32")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", signing.Preview("short"))
	assert.Equal(t, "abcdefghijklmnopqrst...", signing.Preview("abcdefghijklmnopqrstuvwxyz"))
}
