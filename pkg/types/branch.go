package types

// Branch groups offices by region.
type Branch struct {
	Meta
	Name   string `json:"name" validate:"required"`
	Code   string `json:"code" validate:"required,alphanum"`
	Region string `json:"region,omitempty"`
}

// Field returns the value of a branch field by JSON name.
func (b *Branch) Field(name string) (any, bool) {
	switch name {
	case "name":
		return b.Name, true
	case "code":
		return b.Code, true
	case "region":
		return b.Region, true
	}
	return b.Meta.field(name)
}

// Validate requires a name and an alphanumeric code.
func (b *Branch) Validate() error { return validateStruct(b) }
