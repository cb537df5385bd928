package shared

// Actor identifies who performs an operation and on which plant.
// Company and Plant come from the X-Company / X-Plant headers and may be empty,
// in which case queries are not narrowed by tenant.
type Actor struct {
	UserID  string
	Company string
	Plant   string
}

// HasTenant reports whether any tenant column is set
func (a Actor) HasTenant() bool {
	return a.Company != "" || a.Plant != ""
}

// SystemActor returns an actor used by background jobs for the given tenant
func SystemActor(company, plant string) Actor {
	return Actor{UserID: "SYSTEM", Company: company, Plant: plant}
}
