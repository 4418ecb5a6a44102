package domain

// Driver of a tenant. Import only looks drivers up, by document or name key.
type Driver struct {
	ID       string
	TenantID string
	Name     string
	Document string
}

// Vehicle of a tenant, looked up by normalized plate.
type Vehicle struct {
	ID       string
	TenantID string
	Plate    string
}
