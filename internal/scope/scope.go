// Package scope resolves what an authenticated actor may see and mutate.
// A Scope is computed once per logical operation and passed explicitly into
// every directory call; nothing caches it across operations, since an
// administrator can be deactivated between calls.
package scope

import (
	"furgon/internal/directory/models"
)

// Scope is the resolved authorization context for one actor.
type Scope struct {
	// ActorEmail identifies the actor for audit attribution.
	ActorEmail string
	// IsSuperAdmin grants visibility and mutation across all institutions.
	IsSuperAdmin bool
	// InstitutionID is the single institution a restricted actor is bound
	// to. Empty means the actor is bound to no institution and sees nothing.
	InstitutionID string
	// IsActive mirrors the account state. An inactive scope is still
	// computable for administrative display, but sign-in must be refused.
	IsActive bool
}

// CanMutate reports whether the scope allows mutating a record owned by the
// given institution.
func (s Scope) CanMutate(institutionID string) bool {
	if s.IsSuperAdmin {
		return true
	}
	return s.InstitutionID != "" && s.InstitutionID == institutionID
}

// Visible applies the one read-filtering rule shared by every entity type:
// super administrators see everything (optionally narrowed to one requested
// institution); restricted actors see only their own institution, and an
// explicit filter for any other institution yields nothing.
func Visible[E models.Record](s Scope, recs []E, institutionFilter string) []E {
	effective := institutionFilter
	if !s.IsSuperAdmin {
		if s.InstitutionID == "" {
			return nil
		}
		if institutionFilter != "" && institutionFilter != s.InstitutionID {
			return nil
		}
		effective = s.InstitutionID
	}

	if effective == "" {
		return recs
	}
	out := make([]E, 0, len(recs))
	for _, rec := range recs {
		if rec.InstitutionRef() == effective {
			out = append(out, rec)
		}
	}
	return out
}
