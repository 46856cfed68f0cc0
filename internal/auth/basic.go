// Package auth validates HTTP Basic Authentication credentials.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// Outcome classifies the result of checking an Authorization header.
type Outcome int

const (
	// Missing means no Authorization header was present.
	Missing Outcome = iota
	// Malformed means the header was present but not a decodable
	// Basic credential (wrong scheme, bad base64, or no ':' separator).
	Malformed
	// Invalid means the credential decoded but does not match.
	Invalid
	// Valid means the credential matches the configured pair.
	Valid
)

// String returns the outcome name, used as a metrics label.
func (o Outcome) String() string {
	switch o {
	case Missing:
		return "missing"
	case Malformed:
		return "malformed"
	case Invalid:
		return "invalid"
	case Valid:
		return "valid"
	}
	return "unknown"
}

const basicPrefix = "Basic "

// Validator checks Basic credentials against a single configured pair.
// The expected pair is set once at startup and never mutated, so a
// Validator is safe for concurrent use.
type Validator struct {
	username string
	password string
	realm    string
}

// NewValidator creates a Validator for the given expected credential.
func NewValidator(username, password, realm string) *Validator {
	return &Validator{username: username, password: password, realm: realm}
}

// Realm returns the realm string for WWW-Authenticate challenges.
func (v *Validator) Realm() string {
	return v.realm
}

// Challenge returns the WWW-Authenticate header value sent with 401 responses.
func (v *Validator) Challenge() string {
	return `Basic realm="` + v.realm + `"`
}

// Check classifies the raw Authorization header value. Pass the empty
// string for an absent header. Credential comparison is constant-time
// to avoid leaking the expected pair through response timing.
func (v *Validator) Check(authorization string) Outcome {
	if authorization == "" {
		return Missing
	}

	username, password, ok := decodeBasic(authorization)
	if !ok {
		return Malformed
	}

	// Compare both parts unconditionally so the timing does not reveal
	// which of the two was wrong.
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.password))
	if userOK&passOK != 1 {
		return Invalid
	}

	return Valid
}

// decodeBasic parses an HTTP Basic Authentication header value.
// "Basic QWxhZGRpbjpvcGVuIHNlc2FtZQ==" yields ("Aladdin", "open sesame", true).
// The scheme token must be the literal "Basic "; other spellings are
// treated as malformed.
func decodeBasic(authorization string) (username, password string, ok bool) {
	if !strings.HasPrefix(authorization, basicPrefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(authorization[len(basicPrefix):])
	if err != nil {
		return "", "", false
	}
	username, password, ok = strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", false
	}
	return username, password, true
}
