package types

// Standard resource names. Each names a table in the Cabinet and an
// endpoint family under /api/<name>.
const (
	ResourceEmployees = "employees"
	ResourceSalaries  = "salaries"
	ResourceInvoices  = "invoices"
	ResourceOffices   = "offices"
	ResourceBranches  = "branches"
	ResourceVendors   = "vendors"
	ResourceJobs      = "jobs"
)

// StandardResourceNames lists all resource names for enumeration.
var StandardResourceNames = []string{
	ResourceEmployees,
	ResourceSalaries,
	ResourceInvoices,
	ResourceOffices,
	ResourceBranches,
	ResourceVendors,
	ResourceJobs,
}

// resourceFactories builds an empty entity for each resource.
var resourceFactories = map[string]func() Entity{
	ResourceEmployees: func() Entity { return &Employee{} },
	ResourceSalaries:  func() Entity { return &Salary{} },
	ResourceInvoices:  func() Entity { return &Invoice{} },
	ResourceOffices:   func() Entity { return &Office{} },
	ResourceBranches:  func() Entity { return &Branch{} },
	ResourceVendors:   func() Entity { return &Vendor{} },
	ResourceJobs:      func() Entity { return &Job{} },
}

// searchFields names the fields matched by the default free-text search.
var searchFields = map[string][]string{
	ResourceEmployees: {"first_name", "last_name", "email"},
	ResourceSalaries:  {"employee_id", "currency"},
	ResourceInvoices:  {"number", "vendor_id"},
	ResourceOffices:   {"name", "city", "country"},
	ResourceBranches:  {"name", "code", "region"},
	ResourceVendors:   {"name", "email"},
	ResourceJobs:      {"title", "department"},
}

// IsResource reports whether name is a standard resource.
func IsResource(name string) bool {
	_, ok := resourceFactories[name]
	return ok
}

// NewEntity returns an empty entity for the named resource.
// Returns ErrTableNotFound for unknown names.
func NewEntity(resource string) (Entity, error) {
	f, ok := resourceFactories[resource]
	if !ok {
		return nil, ErrTableNotFound
	}
	return f(), nil
}

// SearchFields returns the fields the default search predicate inspects for
// the resource, or nil for unknown names.
func SearchFields(resource string) []string {
	return searchFields[resource]
}
