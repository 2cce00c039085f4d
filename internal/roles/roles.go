// internal/roles/roles.go
package roles

import "strings"

// Tier is one level of the role hierarchy.
type Tier int

const (
	// TierUnitMember is the fallback tier: a bare circle-or-region
	// identifier, possibly matching nothing.
	TierUnitMember Tier = iota
	TierRegionalAuditor
	TierRegionalAdmin
	TierNationalAuditor
	TierNationalAdmin
)

func (t Tier) String() string {
	switch t {
	case TierNationalAdmin:
		return "national_admin"
	case TierNationalAuditor:
		return "national_auditor"
	case TierRegionalAdmin:
		return "regional_admin"
	case TierRegionalAuditor:
		return "regional_auditor"
	default:
		return "unit_member"
	}
}

// RoleDescriptor is the parsed form of a caller's role string. It is computed
// once per request and threaded through every operation that scopes records;
// nothing re-parses the raw string downstream.
type RoleDescriptor struct {
	Tier Tier `json:"tier"`
	// Region is set for the regional tiers and holds the canonical region name.
	Region string `json:"region,omitempty"`
	// Unit is set for TierUnitMember and holds the bare identifier. An empty
	// Unit scopes to nothing.
	Unit string `json:"unit,omitempty"`
}

// National reports whether the descriptor grants unfiltered access.
func (d RoleDescriptor) National() bool {
	return d.Tier == TierNationalAdmin || d.Tier == TierNationalAuditor
}

// Auditor tiers are read-only: they may see records but never mutate them.
func (d RoleDescriptor) Auditor() bool {
	return d.Tier == TierNationalAuditor || d.Tier == TierRegionalAuditor
}

// Resolver parses role strings against the configured closed hierarchy.
type Resolver struct {
	nationalAdmins  map[string]struct{}
	regionalAdmins  map[string]struct{}
	nationalAuditor string
	auditorPrefix   string
}

// NewResolver builds a resolver. The regional-admin entries are the canonical
// region names; the auditor prefix is matched literally (e.g. "krd.").
func NewResolver(nationalAdmins, regionalAdmins []string, nationalAuditor, auditorPrefix string) *Resolver {
	r := &Resolver{
		nationalAdmins:  make(map[string]struct{}, len(nationalAdmins)),
		regionalAdmins:  make(map[string]struct{}, len(regionalAdmins)),
		nationalAuditor: nationalAuditor,
		auditorPrefix:   auditorPrefix,
	}
	for _, a := range nationalAdmins {
		r.nationalAdmins[a] = struct{}{}
	}
	for _, a := range regionalAdmins {
		r.regionalAdmins[a] = struct{}{}
	}
	return r
}

// Resolve parses a role string into a RoleDescriptor. The checks are a strict
// tie-break and their order matters: national-admin set, national-auditor
// token, regional-admin set, auditor prefix, bare identifier. Resolve never
// fails; unrecognized or empty strings land in the unit-member fallback,
// which yields an empty result set through scoping rather than an error.
func (r *Resolver) Resolve(role string) RoleDescriptor {
	if _, ok := r.nationalAdmins[role]; ok {
		return RoleDescriptor{Tier: TierNationalAdmin}
	}
	if role == r.nationalAuditor {
		return RoleDescriptor{Tier: TierNationalAuditor}
	}
	if _, ok := r.regionalAdmins[role]; ok {
		return RoleDescriptor{Tier: TierRegionalAdmin, Region: role}
	}
	if r.auditorPrefix != "" && strings.HasPrefix(role, r.auditorPrefix) {
		return RoleDescriptor{Tier: TierRegionalAuditor, Region: strings.TrimPrefix(role, r.auditorPrefix)}
	}
	return RoleDescriptor{Tier: TierUnitMember, Unit: role}
}
