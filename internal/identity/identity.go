// internal/identity/identity.go

// Package identity adapts the surrounding system's authenticated caller into
// the registry's role model. Authentication itself (OAuth, sessions) lives
// outside this service; we only receive the verified email and derive the
// opaque role string from it.
package identity

import "strings"

// RoleFromEmail derives a caller's role string from their organization email.
// The address local part is the role: "krd.mazowieckie@nowageneracja.org"
// yields "krd.mazowieckie". Emails outside the organization domain pass
// through unchanged and will resolve to the unit-member fallback.
func RoleFromEmail(email, orgDomain string) string {
	if orgDomain == "" || !strings.Contains(email, orgDomain) {
		return email
	}
	return strings.TrimRight(strings.ReplaceAll(email, orgDomain, ""), "@")
}
