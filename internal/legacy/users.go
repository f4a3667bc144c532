package legacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

// DefaultUserType is the tipo_usuario of self-registered accounts.
const DefaultUserType = "gratis"

// User is a usuarios row without its password.
type User struct {
	Username           string `json:"username"`
	Rango              string `json:"rango"`
	CodigoEmprendedora string `json:"codigo_emprendedora"`
	TipoUsuario        string `json:"tipo_usuario"`
	Role               string `json:"role,omitempty"`
}

func userFromRecord(r sheetrepo.Record) User {
	return User{
		Username:           r.Get("username"),
		Rango:              r.Get("rango"),
		CodigoEmprendedora: r.Get("codigo_emprendedora"),
		TipoUsuario:        r.Get("tipo_usuario"),
		Role:               r.Get("role"),
	}
}

// Registration is the input of Users.Register.
type Registration struct {
	Username           string `json:"username"`
	Password           string `json:"password"`
	Rango              string `json:"rango"`
	CodigoEmprendedora string `json:"codigo_emprendedora"`
}

// Users works on the usuarios sheet.
type Users struct {
	repo *sheetrepo.Repository
}

func NewUsers(repo *sheetrepo.Repository) *Users {
	return &Users{repo: repo}
}

// All lists every user. Passwords are never returned.
func (u *Users) All(ctx context.Context) ([]User, error) {
	records, err := u.repo.FetchTable(ctx, TableUsers)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(records))
	for _, r := range records {
		if r.Get("username") == "" {
			continue
		}
		out = append(out, userFromRecord(r))
	}
	return out, nil
}

// Authenticate matches username and password exactly.
func (u *Users) Authenticate(ctx context.Context, username, password string) (User, error) {
	t, err := u.repo.Read(ctx, TableUsers)
	if err != nil {
		return User{}, err
	}
	idx := t.Find(sheetrepo.FieldsEqual(map[string]string{
		"username": username,
		"password": password,
	}))
	if idx < 0 || username == "" {
		return User{}, ErrInvalidCredentials
	}
	return userFromRecord(t.Records[idx]), nil
}

// Register appends a user with tipo_usuario gratis.
func (u *Users) Register(ctx context.Context, in Registration) error {
	return u.repo.WithTableLock(ctx, TableUsers, func(ctx context.Context) error {
		_, _, err := u.repo.Locate(ctx, TableUsers, sheetrepo.FieldEqualsFold("username", in.Username))
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", ErrUserExists, in.Username)
		case !errors.Is(err, sheetrepo.ErrRecordNotFound):
			return err
		}
		return u.repo.AppendRecord(ctx, TableUsers, map[string]string{
			"username":            in.Username,
			"password":            in.Password,
			"rango":               in.Rango,
			"codigo_emprendedora": in.CodigoEmprendedora,
			"tipo_usuario":        DefaultUserType,
		})
	})
}

// UpdatePassword overwrites the password cell of username. Usernames match
// case-insensitively.
func (u *Users) UpdatePassword(ctx context.Context, username, password string) error {
	return u.repo.PointUpdate(ctx, TableUsers, sheetrepo.FieldEqualsFold("username", username), map[string]string{
		"password": password,
	})
}

// ChangePassword replaces the password after checking the current one.
func (u *Users) ChangePassword(ctx context.Context, username, current, next string) error {
	return u.repo.WithTableLock(ctx, TableUsers, func(ctx context.Context) error {
		match := sheetrepo.FieldEqualsFold("username", username)
		t, idx, err := u.repo.Locate(ctx, TableUsers, match)
		if err != nil {
			return err
		}
		if t.Records[idx].Get("password") != current {
			return ErrWrongPassword
		}
		return u.repo.PointUpdate(ctx, TableUsers, match, map[string]string{"password": next})
	})
}

// DeleteAccount blanks the row of username, keeping the row itself.
func (u *Users) DeleteAccount(ctx context.Context, username string) error {
	return u.repo.WithTableLock(ctx, TableUsers, func(ctx context.Context) error {
		return u.repo.ClearWhere(ctx, TableUsers, sheetrepo.FieldEqualsFold("username", username))
	})
}
