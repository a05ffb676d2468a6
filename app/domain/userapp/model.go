package userapp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/types/role"
)

// User represents information about an individual user.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Enabled     bool   `json:"enabled"`
	DateCreated string `json:"dateCreated"`
	DateUpdated string `json:"dateUpdated"`
}

func toAppUser(bus userbus.User) User {
	return User{
		ID:          bus.ID.String(),
		Name:        bus.Name,
		Email:       bus.Email.Address,
		Role:        bus.Role.String(),
		Enabled:     bus.Enabled,
		DateCreated: bus.CreatedAt.Format(time.RFC3339),
		DateUpdated: bus.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================

// UpdateUser defines what a user may change about their own account.
type UpdateUser struct {
	Name            *string `json:"name"`
	Password        *string `json:"password" validate:"omitempty,min=6"`
	PasswordConfirm *string `json:"passwordConfirm" validate:"omitempty,eqfield=Password"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateUser) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateUser) Validate() error {
	if app.Name != nil && strings.TrimSpace(*app.Name) == "" {
		return errs.FieldErrors{{Field: "name", Err: "Nome é obrigatório"}}
	}

	if app.Password != nil && len(*app.Password) < 6 {
		return errs.FieldErrors{{Field: "password", Err: "A senha deve ter no mínimo 6 caracteres"}}
	}

	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusUpdateUser(app UpdateUser) userbus.UpdateUser {
	uu := userbus.UpdateUser{
		Password: app.Password,
	}

	if app.Name != nil {
		n := strings.TrimSpace(*app.Name)
		uu.Name = &n
	}

	return uu
}

// =============================================================================

// UpdateUserRole defines what platform staff may change about any account.
type UpdateUserRole struct {
	Role    *string `json:"role"`
	Enabled *bool   `json:"enabled"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateUserRole) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

func toBusUpdateUserRole(app UpdateUserRole) (userbus.UpdateUser, error) {
	uu := userbus.UpdateUser{
		Enabled: app.Enabled,
	}

	if app.Role != nil {
		r, err := role.Parse(strings.ToUpper(*app.Role))
		if err != nil {
			return userbus.UpdateUser{}, errs.FieldErrors{{Field: "role", Err: err.Error()}}
		}
		uu.Role = &r
	}

	return uu, nil
}
