// internal/objectid/id.go
package objectid

import (
	"fmt"

	"github.com/google/uuid"
)

// ID identifies one object in the document store.
type ID struct {
	u uuid.UUID
}

// Nil is the zero ID. It never names a stored object.
var Nil ID

// New returns a fresh random ID.
func New() ID {
	return ID{u: uuid.New()}
}

// FromUUID wraps an existing UUID.
func FromUUID(u uuid.UUID) ID {
	return ID{u: u}
}

// Parse parses the canonical text form of an ID.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	return ID{u: u}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsNil reports whether the ID is the zero value.
func (id ID) IsNil() bool {
	return id.u == uuid.Nil
}

// String returns the canonical text form.
func (id ID) String() string {
	return id.u.String()
}

// Bytes returns the 16 raw bytes of the ID.
func (id ID) Bytes() []byte {
	b := id.u
	return b[:]
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
