// Package teamrole represents the role a member holds inside a branch team.
package teamrole

import "fmt"

// The set of team roles.
var (
	Owner  = newTeamRole("OWNER")
	Member = newTeamRole("MEMBER")
)

var teamRoles = make(map[string]TeamRole)

// TeamRole represents a team role.
type TeamRole struct {
	value string
}

func newTeamRole(v string) TeamRole {
	r := TeamRole{v}
	teamRoles[v] = r
	return r
}

// String returns the name of the team role.
func (r TeamRole) String() string {
	return r.value
}

// Equal provides support for the go-cmp package and testing.
func (r TeamRole) Equal(r2 TeamRole) bool {
	return r.value == r2.value
}

// MarshalText provides support for logging and any marshal needs.
func (r TeamRole) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}

// Toggle flips OWNER and MEMBER.
func (r TeamRole) Toggle() TeamRole {
	if r.Equal(Owner) {
		return Member
	}
	return Owner
}

// Parse parses the string value and returns a team role if one exists.
func Parse(value string) (TeamRole, error) {
	r, exists := teamRoles[value]
	if !exists {
		return TeamRole{}, fmt.Errorf("invalid team role %q", value)
	}

	return r, nil
}

// MustParse parses the string value and panics on failure.
func MustParse(value string) TeamRole {
	r, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return r
}
