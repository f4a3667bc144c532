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

// ProductFilter narrows a product listing. Values match exactly.
type ProductFilter struct {
	Familia  string `form:"familia" json:"familia,omitempty"`
	Linea    string `form:"linea" json:"linea,omitempty"`
	Vigencia string `form:"vigencia" json:"vigencia,omitempty"`
	Page
}

// GroupCount is one row of a GROUP BY count.
type GroupCount struct {
	Value string `bun:"value" json:"value"`
	Count int    `bun:"count" json:"count"`
}

// ProductStats summarizes the product table.
type ProductStats struct {
	Total    int          `json:"total"`
	Active   int          `json:"active"`
	Inactive int          `json:"inactive"`
	Families []GroupCount `json:"families"`
	Lines    []GroupCount `json:"lines"`
}

// Products is the relational product store.
type Products struct {
	db   bun.IDB
	repo repository.Repository[*Product]
}

// NewProducts builds the store on db.
func NewProducts(db *bun.DB) *Products {
	return &Products{
		db: db,
		repo: repository.NewRepository[*Product](db, repository.ModelHandlers[*Product]{
			NewRecord:     func() *Product { return &Product{} },
			GetID:         func(p *Product) uuid.UUID { return p.ID },
			SetID:         func(p *Product, id uuid.UUID) { p.ID = id },
			GetIdentifier: func() string { return "combo" },
		}),
	}
}

// List returns one page of products ordered by combo and the total match count.
func (s *Products) List(ctx context.Context, f ProductFilter) ([]*Product, int, error) {
	criteria := compact(
		whereIf(f.Familia != "", "familia", f.Familia),
		whereIf(f.Linea != "", "linea", f.Linea),
		whereIf(f.Vigencia != "", "vigencia", f.Vigencia),
		orderBy("combo ASC"),
		paginate(f.Page),
	)
	products, total, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list products: %w", err)
	}
	return products, total, nil
}

// Get returns the product with id.
func (s *Products) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.first(ctx, where("id", id))
}

// GetByCombo returns the product with the combo number.
func (s *Products) GetByCombo(ctx context.Context, combo int) (*Product, error) {
	return s.first(ctx, where("combo", combo))
}

func (s *Products) first(ctx context.Context, criteria ...repository.SelectCriteria) (*Product, error) {
	products, _, err := s.repo.List(ctx, append(criteria, limitOne())...)
	if err != nil {
		return nil, fmt.Errorf("store: find product: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return products[0], nil
}

// Create inserts p. The combo number must be unused.
func (s *Products) Create(ctx context.Context, p *Product) (*Product, error) {
	if _, err := s.GetByCombo(ctx, p.Combo); err == nil {
		return nil, fmt.Errorf("%w: combo %d already exists", ErrConflict, p.Combo)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("store: create product: %w", err)
	}
	return created, nil
}

// Update replaces the stored row of p.ID. Changing the combo to one used by
// another product is a conflict.
func (s *Products) Update(ctx context.Context, p *Product) (*Product, error) {
	existing, err := s.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if p.Combo != existing.Combo {
		if other, err := s.GetByCombo(ctx, p.Combo); err == nil && other.ID != p.ID {
			return nil, fmt.Errorf("%w: combo %d already exists", ErrConflict, p.Combo)
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("store: update product: %w", err)
	}
	return updated, nil
}

// UpsertByCombo inserts p or overwrites the product sharing its combo.
func (s *Products) UpsertByCombo(ctx context.Context, p *Product) (*Product, bool, error) {
	existing, err := s.GetByCombo(ctx, p.Combo)
	switch {
	case errors.Is(err, ErrNotFound):
		created, err := s.Create(ctx, p)
		return created, true, err
	case err != nil:
		return nil, false, err
	}
	p.ID = existing.ID
	updated, err := s.Update(ctx, p)
	return updated, false, err
}

// Delete removes the product with id.
func (s *Products) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p); err != nil {
		return fmt.Errorf("store: delete product: %w", err)
	}
	return nil
}

// Stats counts products overall, by activity and per family and line.
func (s *Products) Stats(ctx context.Context) (*ProductStats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: count products: %w", err)
	}
	active, err := s.repo.Count(ctx, where("vigencia", ProductActiveValue))
	if err != nil {
		return nil, fmt.Errorf("store: count active products: %w", err)
	}
	families, err := s.groupCount(ctx, "familia")
	if err != nil {
		return nil, err
	}
	lines, err := s.groupCount(ctx, "linea")
	if err != nil {
		return nil, err
	}
	return &ProductStats{
		Total:    total,
		Active:   active,
		Inactive: total - active,
		Families: families,
		Lines:    lines,
	}, nil
}

func (s *Products) groupCount(ctx context.Context, column string) ([]GroupCount, error) {
	rows := make([]GroupCount, 0)
	err := s.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("? AS value", bun.Ident(column)).
		ColumnExpr("COUNT(*) AS count").
		GroupExpr("?", bun.Ident(column)).
		OrderExpr("? ASC", bun.Ident(column)).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("store: group products by %s: %w", column, err)
	}
	return rows, nil
}
