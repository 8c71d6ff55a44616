package types

// Office is a physical location, optionally attached to a branch.
type Office struct {
	Meta
	Name     string `json:"name" validate:"required"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
	BranchID string `json:"branch_id,omitempty"`
}

// Field returns the value of an office field by JSON name.
func (o *Office) Field(name string) (any, bool) {
	switch name {
	case "name":
		return o.Name, true
	case "city":
		return o.City, true
	case "country":
		return o.Country, true
	case "branch_id":
		return o.BranchID, true
	}
	return o.Meta.field(name)
}

// Validate requires a name.
func (o *Office) Validate() error { return validateStruct(o) }
