// Package signature implements the HMAC scheme Genuka uses to sign OAuth
// callback parameters and webhook bodies.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// Signer computes and verifies HMAC-SHA256 signatures with a shared secret.
type Signer struct {
	secret []byte
}

func New(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the hex HMAC-SHA256 of the canonical form of params.
//
// Canonical form: parameters sorted alphabetically by key and encoded as
// "k=v&k=v" with RFC 3986 value encoding (space is %20, not +). This matches
// PHP's http_build_query with rawurlencode, which is what the platform signs.
func (s *Signer) Sign(params map[string]string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(CanonicalQuery(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a received hex signature against params in constant time.
// A malformed (non-hex) signature is simply invalid.
func (s *Signer) Verify(params map[string]string, receivedHex string) bool {
	received, err := hex.DecodeString(receivedHex)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(CanonicalQuery(params)))
	return hmac.Equal(mac.Sum(nil), received)
}

// SignRaw returns the hex HMAC-SHA256 over an opaque byte string. Used for
// webhook bodies, which are signed as delivered rather than canonicalized.
func (s *Signer) SignRaw(body []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRaw checks a received hex signature over a raw body in constant time.
func (s *Signer) VerifyRaw(body []byte, receivedHex string) bool {
	received, err := hex.DecodeString(receivedHex)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), received)
}

// CanonicalQuery builds the canonical query string that both sides sign.
func CanonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(rawURLEncode(k))
		b.WriteByte('=')
		b.WriteString(rawURLEncode(params[k]))
	}
	return b.String()
}

// rawURLEncode mimics PHP's rawurlencode: percent-encoding per RFC 3986,
// with spaces as %20.
func rawURLEncode(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// DeriveKey derives a purpose-bound key from a shared secret with
// HKDF-SHA256, so the cookie-signing key and the webhook key differ even
// when both are configured from the same client secret.
func DeriveKey(secret, purpose string) []byte {
	key := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only errors once the output limit is exceeded, which a
		// single SHA-256-sized read cannot reach.
		panic(err)
	}
	return key
}
