package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserFilter narrows a user listing.
type UserFilter struct {
	Rango       string `form:"rango" json:"rango,omitempty"`
	TipoUsuario string `form:"tipo_usuario" json:"tipo_usuario,omitempty"`
	Estado      string `form:"estado" json:"estado,omitempty"`
	Page
}

// Users is the relational user store.
type Users struct {
	repo repository.Repository[*User]
}

func NewUsers(db *bun.DB) *Users {
	return &Users{
		repo: repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
			NewRecord:     func() *User { return &User{} },
			GetID:         func(u *User) uuid.UUID { return u.ID },
			SetID:         func(u *User, id uuid.UUID) { u.ID = id },
			GetIdentifier: func() string { return "username" },
		}),
	}
}

func (s *Users) List(ctx context.Context, f UserFilter) ([]*User, int, error) {
	users, total, err := s.repo.List(ctx, compact(
		whereIf(f.Rango != "", "rango", f.Rango),
		whereIf(f.TipoUsuario != "", "tipo_usuario", f.TipoUsuario),
		whereIf(f.Estado != "", "estado", f.Estado),
		orderBy("created_at DESC"),
		paginate(f.Page),
	)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list users: %w", err)
	}
	return users, total, nil
}

func (s *Users) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.first(ctx, where("id", id))
}

func (s *Users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.first(ctx, where("username", strings.TrimSpace(username)))
}

func (s *Users) first(ctx context.Context, criteria ...repository.SelectCriteria) (*User, error) {
	users, _, err := s.repo.List(ctx, append(criteria, limitOne())...)
	if err != nil {
		return nil, fmt.Errorf("store: find user: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return users[0], nil
}

// Create inserts u with a unique username. Estado defaults to Activo.
func (s *Users) Create(ctx context.Context, u *User) (*User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if _, err := s.GetByUsername(ctx, u.Username); err == nil {
		return nil, fmt.Errorf("%w: username %q already exists", ErrConflict, u.Username)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Estado == "" {
		u.Estado = UserActiveValue
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	created, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("store: create user: %w", err)
	}
	return created, nil
}

// Update replaces the stored row of u.ID. An empty password keeps the
// current one.
func (s *Users) Update(ctx context.Context, u *User) (*User, error) {
	existing, err := s.Get(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if u.Username != existing.Username {
		if other, err := s.GetByUsername(ctx, u.Username); err == nil && other.ID != u.ID {
			return nil, fmt.Errorf("%w: username %q already exists", ErrConflict, u.Username)
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if u.Password == "" {
		u.Password = existing.Password
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("store: update user: %w", err)
	}
	return updated, nil
}

// UpsertByUsername inserts u or overwrites the user sharing its username.
func (s *Users) UpsertByUsername(ctx context.Context, u *User) (*User, bool, error) {
	existing, err := s.GetByUsername(ctx, u.Username)
	switch {
	case errors.Is(err, ErrNotFound):
		created, err := s.Create(ctx, u)
		return created, true, err
	case err != nil:
		return nil, false, err
	}
	u.ID = existing.ID
	updated, err := s.Update(ctx, u)
	return updated, false, err
}

func (s *Users) Delete(ctx context.Context, id uuid.UUID) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, u); err != nil {
		return fmt.Errorf("store: delete user: %w", err)
	}
	return nil
}

// CountActive counts users with Estado Activo, and all users.
func (s *Users) CountActive(ctx context.Context) (active, total int, err error) {
	if total, err = s.repo.Count(ctx); err != nil {
		return 0, 0, fmt.Errorf("store: count users: %w", err)
	}
	if active, err = s.repo.Count(ctx, where("estado", UserActiveValue)); err != nil {
		return 0, 0, fmt.Errorf("store: count active users: %w", err)
	}
	return active, total, nil
}
