package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Entity is a stored business record. Every resource struct embeds Meta and
// implements Field and Validate.
type Entity interface {
	// RecordID returns the entity ID (empty before creation).
	RecordID() string

	// Stamp sets the identity and timestamps assigned by the backend.
	Stamp(id string, createdAt, updatedAt time.Time)

	// Field returns the typed value of a field by its JSON name.
	// The second result is false when the entity has no such field.
	Field(name string) (any, bool)

	// Validate checks required fields and enumerations.
	Validate() error
}

// Defaulter is implemented by entities that fill in default values on create.
type Defaulter interface {
	ApplyDefaults()
}

// Meta carries the fields common to all entities.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordID returns the entity ID.
func (m Meta) RecordID() string { return m.ID }

// Stamp sets the identity and timestamps.
func (m *Meta) Stamp(id string, createdAt, updatedAt time.Time) {
	m.ID = id
	m.CreatedAt = createdAt
	m.UpdatedAt = updatedAt
}

func (m *Meta) field(name string) (any, bool) {
	switch name {
	case "id":
		return m.ID, true
	case "created_at":
		return m.CreatedAt, true
	case "updated_at":
		return m.UpdatedAt, true
	}
	return nil, false
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs struct-tag validation and folds failures into a single
// ErrValidation naming every offending field.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(parts, ", "))
}
