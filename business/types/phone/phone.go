// Package phone represents a branch contact number such as a telephone or
// WhatsApp line.
package phone

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// phoneRegEx accepts national formats like "(11) 98888-7777" and E.164 "+5511988887777".
var phoneRegEx = regexp.MustCompile(`^\+?[0-9()\s-]{8,20}$`)

// Null represents a contact number that can be empty.
type Null struct {
	value string
	valid bool
}

// ParseNull parses the string value. An empty value yields an invalid Null.
func ParseNull(value string) (Null, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Null{}, nil
	}

	if !phoneRegEx.MatchString(value) {
		return Null{}, fmt.Errorf("invalid phone %q", value)
	}

	return Null{value, true}, nil
}

// MustParseNull parses the string value and panics on failure.
func MustParseNull(value string) Null {
	p, err := ParseNull(value)
	if err != nil {
		panic(err)
	}

	return p
}

// ToSQLNullString converts a Null value to a sql NullString.
func ToSQLNullString(n Null) sql.NullString {
	return sql.NullString{
		String: n.value,
		Valid:  n.valid,
	}
}

// Valid reports whether a number is present.
func (n Null) Valid() bool {
	return n.valid
}

// String returns the value of the phone number, empty when absent.
func (n Null) String() string {
	return n.value
}

// Digits strips everything but digits, the form wa.me links expect.
func (n Null) Digits() string {
	var b strings.Builder
	for _, r := range n.value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Equal provides support for the go-cmp package and testing.
func (n Null) Equal(n2 Null) bool {
	return n.value == n2.value && n.valid == n2.valid
}

// MarshalText provides support for logging and any marshal needs.
func (n Null) MarshalText() ([]byte, error) {
	return []byte(n.value), nil
}
