package types

// Vendor is a supplier that issues invoices.
type Vendor struct {
	Meta
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string `json:"phone,omitempty"`
	Category string `json:"category,omitempty"`
}

// Field returns the value of a vendor field by JSON name.
func (v *Vendor) Field(name string) (any, bool) {
	switch name {
	case "name":
		return v.Name, true
	case "email":
		return v.Email, true
	case "phone":
		return v.Phone, true
	case "category":
		return v.Category, true
	}
	return v.Meta.field(name)
}

// Validate requires a name and checks the email format.
func (v *Vendor) Validate() error { return validateStruct(v) }
