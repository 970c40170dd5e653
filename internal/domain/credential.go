package domain

import (
	"strings"
	"time"
)

// KeyOrigin tells where a credential came from.
type KeyOrigin string

const (
	KeyOriginSystem KeyOrigin = "SYSTEM"
	KeyOriginUser   KeyOrigin = "USER"
)

// KeyStatus is the health state of a credential as seen by the rotation layer.
type KeyStatus string

const (
	KeyStatusActive      KeyStatus = "ACTIVE"
	KeyStatusRateLimited KeyStatus = "RATE_LIMITED"
	KeyStatusError       KeyStatus = "ERROR"
)

const maskVisibleChars = 4

// Credential is an opaque provider secret. The raw value must never be logged;
// use Mask for anything that leaves the process.
type Credential struct {
	Value  string
	Origin KeyOrigin
}

// Mask returns the display form of the credential: only the trailing
// characters stay visible.
func (c Credential) Mask() string {
	return MaskKey(c.Value)
}

// String keeps credentials masked in fmt verbs and zap.Stringer fields.
func (c Credential) String() string {
	return c.Mask()
}

// MaskKey masks a raw key value.
func MaskKey(value string) string {
	if len(value) <= maskVisibleChars {
		return strings.Repeat("*", len(value))
	}
	return "..." + value[len(value)-maskVisibleChars:]
}

// KeyHealthRecord is the observable health of one credential. The raw value is
// never part of the record.
type KeyHealthRecord struct {
	MaskedID    string     `json:"maskedId"`
	Origin      KeyOrigin  `json:"origin"`
	UsageCount  int        `json:"usageCount"`
	ErrorCount  int        `json:"errorCount"`
	LastUsedAt  *time.Time `json:"lastUsedAt"`
	LastErrorAt *time.Time `json:"lastErrorAt"`
	Status      KeyStatus  `json:"status"`
}

// ParseCredentialList splits a comma-separated configuration value into an
// ordered, de-duplicated list of credentials.
func ParseCredentialList(raw string, origin KeyOrigin) []Credential {
	var creds []Credential
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		v := strings.TrimSpace(part)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		creds = append(creds, Credential{Value: v, Origin: origin})
	}
	return creds
}

// SanitizeUserCredentials drops malformed caller-supplied keys (blank or
// shorter than minLength) instead of failing the request.
func SanitizeUserCredentials(raw []string, minLength int) []Credential {
	var creds []Credential
	seen := make(map[string]struct{})
	for _, r := range raw {
		v := strings.TrimSpace(r)
		if v == "" || len(v) < minLength {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		creds = append(creds, Credential{Value: v, Origin: KeyOriginUser})
	}
	return creds
}
