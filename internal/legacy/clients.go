package legacy

import (
	"context"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

// Client is one clientes row.
type Client struct {
	Username  string `json:"username,omitempty"`
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion"`
	Banco     string `json:"banco"`
	Phone     string `json:"phone"`
}

func (c Client) fields() map[string]string {
	return map[string]string{
		"nombre":    c.Nombre,
		"direccion": c.Direccion,
		"banco":     c.Banco,
		"phone":     c.Phone,
	}
}

// Clients works on the clientes sheet. A client has no key: it is found by
// its owner and the exact value of every column.
type Clients struct {
	repo *sheetrepo.Repository
}

func NewClients(repo *sheetrepo.Repository) *Clients {
	return &Clients{repo: repo}
}

func clientMatch(username string, c Client) sheetrepo.Match {
	return sheetrepo.All(
		sheetrepo.FieldEqualsFold("username", username),
		sheetrepo.FieldsEqual(c.fields()),
	)
}

func (s *Clients) Add(ctx context.Context, username string, c Client) error {
	fields := c.fields()
	fields["username"] = normalizeUser(username)
	return s.repo.AppendRecord(ctx, TableClients, fields)
}

func (s *Clients) List(ctx context.Context, username string) ([]Client, error) {
	t, err := s.repo.Read(ctx, TableClients)
	if err != nil {
		return nil, err
	}
	out := make([]Client, 0)
	for _, r := range t.Filter(sheetrepo.FieldEqualsFold("username", username)) {
		out = append(out, Client{
			Username:  r.Get("username"),
			Nombre:    r.Get("nombre"),
			Direccion: r.Get("direccion"),
			Banco:     r.Get("banco"),
			Phone:     r.Get("phone"),
		})
	}
	return out, nil
}

// Update replaces the columns of the client equal to current.
func (s *Clients) Update(ctx context.Context, username string, current, next Client) error {
	return s.repo.WithTableLock(ctx, TableClients, func(ctx context.Context) error {
		return s.repo.PointUpdate(ctx, TableClients, clientMatch(username, current), next.fields())
	})
}

// Delete removes the row of the client equal to c.
func (s *Clients) Delete(ctx context.Context, username string, c Client) error {
	return s.repo.WithTableLock(ctx, TableClients, func(ctx context.Context) error {
		return s.repo.DeleteWhere(ctx, TableClients, clientMatch(username, c))
	})
}
