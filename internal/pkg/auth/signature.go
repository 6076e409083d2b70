package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignatureInput carries what the gateway sends to prove a callback is genuine.
type SignatureInput struct {
	// Header is the raw x-signature value, e.g. "ts=1704908010,v1=618c85...".
	Header    string
	RequestID string
	DataID    string
}

// Verifier authenticates gateway callbacks with the shared webhook secret.
type Verifier struct {
	secret []byte
	relay  []byte
}

// NewVerifier returns a verifier bound to secret. An empty secret rejects everything.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// WithRelayToken sets the shared token expected on relay notifications.
func (v *Verifier) WithRelayToken(token string) *Verifier {
	v.relay = []byte(token)
	return v
}

// RelayConfigured reports whether a relay token is present.
func (v *Verifier) RelayConfigured() bool {
	return v != nil && len(v.relay) > 0
}

// VerifyRelay compares token with the relay token in constant time.
func (v *Verifier) VerifyRelay(token string) bool {
	if !v.RelayConfigured() || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare(v.relay, []byte(token)) == 1
}

// Configured reports whether a secret is present.
func (v *Verifier) Configured() bool {
	return v != nil && len(v.secret) > 0
}

// Verify reports whether the header carries a valid HMAC for the callback.
// Malformed headers are inauthentic, never an error.
func (v *Verifier) Verify(in SignatureInput) bool {
	if !v.Configured() {
		return false
	}
	ts, hash, ok := ParseSignatureHeader(in.Header)
	if !ok {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(hash))
	if err != nil {
		return false
	}
	return hmac.Equal(v.mac(Manifest(in.DataID, in.RequestID, ts)), got)
}

// Sign returns the hex v1 hash for the given callback parts.
func (v *Verifier) Sign(dataID, requestID, ts string) string {
	return hex.EncodeToString(v.mac(Manifest(dataID, requestID, ts)))
}

func (v *Verifier) mac(manifest string) []byte {
	m := hmac.New(sha256.New, v.secret)
	m.Write([]byte(manifest))
	return m.Sum(nil)
}

// Manifest builds the signed template. Alphanumeric payment ids are lower-cased.
func Manifest(dataID, requestID, ts string) string {
	return "id:" + strings.ToLower(dataID) + ";request-id:" + requestID + ";ts:" + ts + ";"
}

// ParseSignatureHeader extracts ts and v1 from an x-signature header.
func ParseSignatureHeader(header string) (ts, v1 string, ok bool) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1, ts != "" && v1 != ""
}
