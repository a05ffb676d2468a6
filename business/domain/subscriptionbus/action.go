package subscriptionbus

import "fmt"

// The set of administrative actions.
var (
	ActionActivate = newAction("activate")
	ActionSuspend  = newAction("suspend")
	ActionRelease  = newAction("release")
	ActionCancel   = newAction("cancel")
	ActionTrial    = newAction("trial")
)

var actions = make(map[string]Action)

// Action is an administrative subscription command.
type Action struct {
	value string
}

func newAction(v string) Action {
	a := Action{v}
	actions[v] = a
	return a
}

// String returns the name of the action.
func (a Action) String() string {
	return a.value
}

// Equal provides support for the go-cmp package and testing.
func (a Action) Equal(a2 Action) bool {
	return a.value == a2.value
}

// ParseAction parses the string value and returns an action if one exists.
func ParseAction(value string) (Action, error) {
	a, exists := actions[value]
	if !exists {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, value)
	}

	return a, nil
}
