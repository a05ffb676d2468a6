// Package substatus represents the subscription status of a branch.
package substatus

import "fmt"

// The set of subscription states.
var (
	Trial     = newStatus("TRIAL")
	Active    = newStatus("ACTIVE")
	PastDue   = newStatus("PAST_DUE")
	Suspended = newStatus("SUSPENDED")
	Cancelled = newStatus("CANCELLED")
)

var statuses = make(map[string]Status)

// Status represents a subscription status.
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

// GrantsAccess reports whether the status admits access at all. TRIAL still
// depends on the trial end date.
func (s Status) GrantsAccess() bool {
	return s.Equal(Trial) || s.Equal(Active) || s.Equal(PastDue)
}

// Parse parses the string value and returns a status if one exists.
func Parse(value string) (Status, error) {
	s, exists := statuses[value]
	if !exists {
		return Status{}, fmt.Errorf("invalid subscription status %q", value)
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
