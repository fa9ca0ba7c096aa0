package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// RowID is the opaque handle of one row of the dope sheet hierarchy.
// Every NodeContext and KnobContext gets one at construction and keeps it
// for its whole life, so inserting rows never changes another row's handle.
type RowID struct {
	value string
}

// NewRowID creates a new random RowID
func NewRowID() RowID {
	return RowID{value: uuid.New().String()}
}

// ParseRowID creates a RowID from an existing string
func ParseRowID(id string) (RowID, error) {
	if id == "" {
		return RowID{}, errors.New("row ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return RowID{}, errors.New("row ID must be a valid UUID")
	}
	return RowID{value: id}, nil
}

// String returns the string representation of the RowID
func (id RowID) String() string {
	return id.value
}

// Equals checks if two RowIDs are equal
func (id RowID) Equals(other RowID) bool {
	return id.value == other.value
}

// IsZero checks if the RowID is the zero value
func (id RowID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id RowID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *RowID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("RowID must be a string")
	}
	parsed, err := ParseRowID(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
