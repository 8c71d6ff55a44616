package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Salary periods.
const (
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// Salary is a compensation record for one employee.
type Salary struct {
	Meta
	EmployeeID  string          `json:"employee_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"required,len=3"`
	Period      string          `json:"period" validate:"omitempty,oneof=monthly yearly"`
	EffectiveAt time.Time       `json:"effective_at,omitzero"`
}

// Field returns the value of a salary field by JSON name.
func (s *Salary) Field(name string) (any, bool) {
	switch name {
	case "employee_id":
		return s.EmployeeID, true
	case "amount":
		return s.Amount, true
	case "currency":
		return s.Currency, true
	case "period":
		return s.Period, true
	case "effective_at":
		return s.EffectiveAt, true
	}
	return s.Meta.field(name)
}

// Validate checks required fields and that the amount is positive.
func (s *Salary) Validate() error {
	if err := validateStruct(s); err != nil {
		return err
	}
	if !s.Amount.IsPositive() {
		return Validationf("amount must be positive")
	}
	return nil
}

// ApplyDefaults sets a monthly period when none is given.
func (s *Salary) ApplyDefaults() {
	if s.Period == "" {
		s.Period = PeriodMonthly
	}
}
