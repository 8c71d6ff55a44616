package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice states.
const (
	InvoiceDraft = "draft"
	InvoiceOpen  = "open"
	InvoicePaid  = "paid"
	InvoiceVoid  = "void"
)

// Invoice is a payable issued by a vendor.
type Invoice struct {
	Meta
	Number   string          `json:"number" validate:"required"`
	VendorID string          `json:"vendor_id,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required,len=3"`
	Status   string          `json:"status" validate:"omitempty,oneof=draft open paid void"`
	IssuedAt time.Time       `json:"issued_at,omitzero"`
	DueAt    time.Time       `json:"due_at,omitzero"`
}

// Field returns the value of an invoice field by JSON name.
func (i *Invoice) Field(name string) (any, bool) {
	switch name {
	case "number":
		return i.Number, true
	case "vendor_id":
		return i.VendorID, true
	case "amount":
		return i.Amount, true
	case "currency":
		return i.Currency, true
	case "status":
		return i.Status, true
	case "issued_at":
		return i.IssuedAt, true
	case "due_at":
		return i.DueAt, true
	}
	return i.Meta.field(name)
}

// Validate checks required fields, a non-negative amount and that due_at
// does not precede issued_at.
func (i *Invoice) Validate() error {
	if err := validateStruct(i); err != nil {
		return err
	}
	if i.Amount.IsNegative() {
		return Validationf("amount must not be negative")
	}
	if !i.IssuedAt.IsZero() && !i.DueAt.IsZero() && i.DueAt.Before(i.IssuedAt) {
		return Validationf("due_at precedes issued_at")
	}
	return nil
}

// ApplyDefaults starts new invoices as drafts.
func (i *Invoice) ApplyDefaults() {
	if i.Status == "" {
		i.Status = InvoiceDraft
	}
}
