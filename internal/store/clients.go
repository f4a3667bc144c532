package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ClientFilter narrows a client listing.
type ClientFilter struct {
	UserID uuid.UUID `form:"user_id" json:"user_id,omitempty"`
	Activo *bool     `form:"activo" json:"activo,omitempty"`
	Page
}

// Clients is the relational client store.
type Clients struct {
	repo  repository.Repository[*Client]
	users *Users
}

func NewClients(db *bun.DB, users *Users) *Clients {
	return &Clients{
		users: users,
		repo: repository.NewRepository[*Client](db, repository.ModelHandlers[*Client]{
			NewRecord:     func() *Client { return &Client{} },
			GetID:         func(c *Client) uuid.UUID { return c.ID },
			SetID:         func(c *Client, id uuid.UUID) { c.ID = id },
			GetIdentifier: func() string { return "id" },
		}),
	}
}

func (s *Clients) List(ctx context.Context, f ClientFilter) ([]*Client, int, error) {
	criteria := []repository.SelectCriteria{
		whereIf(f.UserID != uuid.Nil, "user_id", f.UserID),
		orderBy("created_at DESC"),
		paginate(f.Page),
	}
	if f.Activo != nil {
		criteria = append(criteria, where("activo", *f.Activo))
	}
	clients, total, err := s.repo.List(ctx, compact(criteria...)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list clients: %w", err)
	}
	return clients, total, nil
}

func (s *Clients) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	clients, _, err := s.repo.List(ctx, where("id", id), limitOne())
	if err != nil {
		return nil, fmt.Errorf("store: find client: %w", err)
	}
	if len(clients) == 0 {
		return nil, ErrNotFound
	}
	return clients[0], nil
}

// Create inserts c. The owning user must exist.
func (s *Clients) Create(ctx context.Context, c *Client) (*Client, error) {
	if _, err := s.users.Get(ctx, c.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrInvalidReference, c.UserID)
		}
		return nil, err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store: create client: %w", err)
	}
	return created, nil
}

func (s *Clients) Update(ctx context.Context, c *Client) (*Client, error) {
	existing, err := s.Get(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.UserID = existing.UserID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store: update client: %w", err)
	}
	return updated, nil
}

func (s *Clients) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, c); err != nil {
		return fmt.Errorf("store: delete client: %w", err)
	}
	return nil
}

// CountActive counts active clients, and all clients.
func (s *Clients) CountActive(ctx context.Context) (active, total int, err error) {
	if total, err = s.repo.Count(ctx); err != nil {
		return 0, 0, fmt.Errorf("store: count clients: %w", err)
	}
	if active, err = s.repo.Count(ctx, where("activo", true)); err != nil {
		return 0, 0, fmt.Errorf("store: count active clients: %w", err)
	}
	return active, total, nil
}
