// Package invitestatus represents the state of a team invitation.
package invitestatus

import "fmt"

// The set of invitation states.
var (
	Pending  = newStatus("PENDING")
	Accepted = newStatus("ACCEPTED")
	Declined = newStatus("DECLINED")
)

var statuses = make(map[string]Status)

// Status represents an invitation status.
type Status struct {
	value string
}

func newStatus(v string) Status {
	s := Status{v}
	statuses[v] = s
	return s
}

// String returns the name of the status.
func (s Status) String() string {
	return s.value
}

// Equal provides support for the go-cmp package and testing.
func (s Status) Equal(s2 Status) bool {
	return s.value == s2.value
}

// MarshalText provides support for logging and any marshal needs.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Status, error) {
	s, exists := statuses[value]
	if !exists {
		return Status{}, fmt.Errorf("invalid invitation status %q", value)
	}

	return s, nil
}

// MustParse parses the string value and panics on failure.
func MustParse(value string) Status {
	s, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return s
}
