package authapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/types/role"
)

// User is the public view of an account.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

func toAppUser(bus userbus.User) User {
	return User{
		ID:        bus.ID.String(),
		Name:      bus.Name,
		Email:     bus.Email.Address,
		Role:      bus.Role.String(),
		CreatedAt: bus.CreatedAt.Format(time.RFC3339),
	}
}

// Token is returned by a successful login.
type Token struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// =============================================================================

// Register defines the data needed to create an account.
type Register struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Decode implements the web.Decoder interface.
func (app *Register) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Register) Validate() error {
	if app.Name == "" || app.Email == "" || app.Password == "" {
		return errors.New("Todos os campos são obrigatórios")
	}

	if len(app.Password) < 6 {
		return errs.FieldErrors{{Field: "password", Err: "A senha deve ter no mínimo 6 caracteres"}}
	}

	return nil
}

func toBusNewUser(app Register) (userbus.NewUser, error) {
	addr, err := parseEmail(app.Email)
	if err != nil {
		return userbus.NewUser{}, err
	}

	nu := userbus.NewUser{
		Name:     strings.TrimSpace(app.Name),
		Email:    addr,
		Role:     role.User,
		Password: app.Password,
	}

	return nu, nil
}

// Login defines the credentials for a login.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *Login) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Login) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// parseEmail lower cases the address. Emails are compared case insensitively
// everywhere in the panel.
func parseEmail(s string) (mail.Address, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return mail.Address{}, errors.New("Email inválido")
	}

	return mail.Address{Address: strings.ToLower(addr.Address)}, nil
}
