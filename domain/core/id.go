package core

import (
	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Falls back to v4 if v7 generation fails
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// VariableID identifies one independent uncertain quantity. Derived values
// refer back to the VariableIDs they depend on.
type VariableID ID

// NewVariableID creates a fresh variable identity
func NewVariableID() VariableID {
	return VariableID(NewID())
}

func (id VariableID) String() string { return ID(id).String() }
