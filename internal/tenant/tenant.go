// Package tenant carries the caller's tenant identity through a
// context.Context and enforces fail-closed isolation: code that needs a
// tenant and finds none in context must error, never silently scope to
// "everything" or "nothing".
package tenant

import (
	"context"
	"errors"
)

// Isolation errors. Callers match these with errors.Is, never string
// comparison.
var (
	// ErrMissingTenant is returned when tenant info is absent from context.
	// Fail closed: this must never be treated as "no tenant filter".
	ErrMissingTenant = errors.New("tenant: missing from context")

	// ErrInvalidTenant is returned when a tenant identifier is empty or
	// otherwise malformed.
	ErrInvalidTenant = errors.New("tenant: invalid identifier")
)

// Info holds the caller's tenant identity plus the administrative
// override flag. Document Store, Blob Store, and Suggestion Index
// operations take the tenant ID as a plain string argument and scope their
// work to it; IsAdmin is checked by callers (see AccessAllowed) before a
// cross-tenant access.
type Info struct {
	// TenantID is the caller's tenant (required, immutable once a Resource
	// is created under it).
	TenantID string

	// CallerID identifies the authenticated principal, distinct from
	// TenantID, for audit logging.
	CallerID string

	// IsAdmin marks a caller allowed to access another tenant's data.
	// Every such access must be written to the audit log by the caller.
	IsAdmin bool
}

// Validate checks that required fields are present.
func (i *Info) Validate() error {
	if i.TenantID == "" {
		return ErrInvalidTenant
	}
	return nil
}

type contextKey struct{}

// ContextWithTenant returns a context carrying the given tenant Info.
func ContextWithTenant(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

// FromContext extracts tenant Info from ctx. It returns ErrMissingTenant if
// absent, so callers fail closed instead of defaulting to an unscoped query.
func FromContext(ctx context.Context) (*Info, error) {
	val := ctx.Value(contextKey{})
	if val == nil {
		return nil, ErrMissingTenant
	}
	info, ok := val.(*Info)
	if !ok || info == nil {
		return nil, ErrMissingTenant
	}
	return info, nil
}

// MustFromContext extracts tenant Info or panics. Use only where middleware
// guarantees tenant presence (e.g. inside an authenticated HTTP handler
// chain), never in library code that might be called from a background job.
func MustFromContext(ctx context.Context) *Info {
	info, err := FromContext(ctx)
	if err != nil {
		panic("tenant: required but missing from context")
	}
	return info
}

// AccessAllowed reports whether a caller scoped to info may read or write
// data owned by ownerTenantID. Same-tenant access is always allowed;
// cross-tenant access is allowed only for admins, and the caller is
// responsible for writing an audit entry when this returns true for
// ownerTenantID != info.TenantID.
func AccessAllowed(info *Info, ownerTenantID string) bool {
	if info.TenantID == ownerTenantID {
		return true
	}
	return info.IsAdmin
}

// IsCrossTenant reports whether accessing ownerTenantID from info's tenant
// counts as a cross-tenant access requiring an audit entry.
func IsCrossTenant(info *Info, ownerTenantID string) bool {
	return info.TenantID != ownerTenantID
}
