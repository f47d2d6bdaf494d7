package domain

// TenantContext identifies which tenant, restaurant and user an operation
// runs on behalf of. It is extracted from verified token claims at the HTTP
// boundary; everything below trusts it.
type TenantContext struct {
	TenantID     string
	RestaurantID string
	UserID       string
	Role         string
}

func (tc TenantContext) Valid() bool { return tc.TenantID != "" }
