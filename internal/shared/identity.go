package shared

import "context"

// Role is one of the closed set of application roles.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleKasir  Role = "kasir"
	RoleAdmin1 Role = "admin1"
	RoleDemo   Role = "demo"
	RoleUser   Role = "user"
)

// Section names an application area an operation belongs to.
type Section string

const (
	SectionDashboard Section = "dashboard"
	SectionProducts  Section = "products"
	SectionSales     Section = "sales"
	SectionPurchases Section = "purchases"
	SectionReports   Section = "reports"
	SectionSettings  Section = "settings"
)

// allowedSections is the static role to section table. Unknown roles fall
// back to dashboard only, same as the demo role.
var allowedSections = map[Role][]Section{
	RoleKasir:  {SectionDashboard, SectionSales},
	RoleAdmin1: {SectionDashboard, SectionPurchases},
	RoleAdmin:  {SectionDashboard, SectionProducts, SectionSales, SectionPurchases, SectionReports, SectionSettings},
	RoleUser:   {SectionDashboard},
	RoleDemo:   {SectionDashboard},
}

// Identity describes the active session user as supplied by the external
// identity provider. The core only reads it; it never authenticates.
type Identity struct {
	Username    string
	Role        Role
	DisplayName string
}

// Allowed reports whether the identity's role grants access to section.
func (id Identity) Allowed(section Section) bool {
	sections, ok := allowedSections[id.Role]
	if !ok {
		sections = allowedSections[RoleUser]
	}
	for _, s := range sections {
		if s == section {
			return true
		}
	}
	return false
}

// Require returns ErrForbidden when the identity cannot access section.
func (id Identity) Require(section Section) error {
	if !id.Allowed(section) {
		return ErrForbidden
	}
	return nil
}

type identityKey struct{}

// ContextWithIdentity stores the identity in the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the identity; the zero Identity (role "")
// is returned when none was attached and grants dashboard access only.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Identity{}
}
