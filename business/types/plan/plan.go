// Package plan represents the subscription plan of a branch.
package plan

import "fmt"

// The set of plans.
var (
	Basic      = newPlan("BASIC")
	Pro        = newPlan("PRO")
	Enterprise = newPlan("ENTERPRISE")
)

var plans = make(map[string]Plan)

// Plan represents a subscription plan.
type Plan struct {
	value string
}

func newPlan(v string) Plan {
	p := Plan{v}
	plans[v] = p
	return p
}

// String returns the name of the plan.
func (p Plan) String() string {
	return p.value
}

// Equal provides support for the go-cmp package and testing.
func (p Plan) Equal(p2 Plan) bool {
	return p.value == p2.value
}

// MarshalText provides support for logging and any marshal needs.
func (p Plan) MarshalText() ([]byte, error) {
	return []byte(p.value), nil
}

// Parse parses the string value and returns a plan if one exists.
func Parse(value string) (Plan, error) {
	p, exists := plans[value]
	if !exists {
		return Plan{}, fmt.Errorf("invalid plan %q", value)
	}

	return p, nil
}

// MustParse parses the string value and panics on failure.
func MustParse(value string) Plan {
	p, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return p
}
