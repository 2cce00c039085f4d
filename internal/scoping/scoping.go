// internal/scoping/scoping.go

// Package scoping maps a resolved role descriptor to the exact subset of
// records the caller may see or touch. All predicates are pure and safe for
// concurrent use; record-side values are normalized here, descriptor payloads
// are assumed canonical.
package scoping

import "rejestr/internal/roles"

// Visible reports whether a member record with the given region and circle is
// readable under the descriptor. Unit members compare their identifier against
// the member's circle.
func Visible(d roles.RoleDescriptor, region, circle string) bool {
	switch d.Tier {
	case roles.TierNationalAdmin, roles.TierNationalAuditor:
		return true
	case roles.TierRegionalAdmin, roles.TierRegionalAuditor:
		return roles.Normalize(region) == d.Region
	default:
		return d.Unit != "" && roles.Normalize(circle) == d.Unit
	}
}

// VisibleCircle reports whether a circle record is listed under the
// descriptor. Unlike Visible, the unit-member fallback compares against the
// circle's own name. The member listing compares against the member's circle
// field instead; the two predicates intentionally stay separate.
func VisibleCircle(d roles.RoleDescriptor, region, name string) bool {
	switch d.Tier {
	case roles.TierNationalAdmin, roles.TierNationalAuditor:
		return true
	case roles.TierRegionalAdmin, roles.TierRegionalAuditor:
		return roles.Normalize(region) == d.Region
	default:
		return d.Unit != "" && roles.Normalize(name) == d.Unit
	}
}

// AllowsMutation reports whether the descriptor may mutate (edit, ban,
// delete) a member record in the given region and circle. Auditors are
// read-only. Every record-level mutation must pass this check before touching
// the store.
func AllowsMutation(d roles.RoleDescriptor, region, circle string) bool {
	if d.Auditor() {
		return false
	}
	return Visible(d, region, circle)
}

// CanFetchDocument authorizes a scanned-document download: national
// administrators always, otherwise the caller's scope must equal the owning
// member's normalized region or circle.
func CanFetchDocument(d roles.RoleDescriptor, region, circle string) bool {
	switch d.Tier {
	case roles.TierNationalAdmin:
		return true
	case roles.TierNationalAuditor:
		return true
	case roles.TierRegionalAdmin, roles.TierRegionalAuditor:
		return roles.Normalize(region) == d.Region
	default:
		return d.Unit != "" && (roles.Normalize(region) == d.Unit || roles.Normalize(circle) == d.Unit)
	}
}

// Members filters member-shaped records down to the visible subset, keeping
// input order. The keys callback supplies each record's region and circle.
func Members[T any](d roles.RoleDescriptor, records []T, keys func(T) (region, circle string)) []T {
	if d.National() {
		return records
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		region, circle := keys(rec)
		if Visible(d, region, circle) {
			out = append(out, rec)
		}
	}
	return out
}

// Circles filters circle-shaped records per the circle-listing policy.
func Circles[T any](d roles.RoleDescriptor, records []T, keys func(T) (region, name string)) []T {
	if d.National() {
		return records
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		region, name := keys(rec)
		if VisibleCircle(d, region, name) {
			out = append(out, rec)
		}
	}
	return out
}
