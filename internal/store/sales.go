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

// SaleFilter narrows a sale listing. From and To bound fecha_venta inclusively.
type SaleFilter struct {
	UserID uuid.UUID
	Estado string
	From   time.Time
	To     time.Time
	Page
}

// NewSaleItem is one requested line of a sale.
type NewSaleItem struct {
	ProductID      uuid.NullUUID `json:"product_id"`
	Cantidad       int           `json:"cantidad"`
	PrecioUnitario float64       `json:"precio_unitario"`
	Descuento      float64       `json:"descuento"`
}

// NewSale is the input of Sales.Create.
type NewSale struct {
	UserID     uuid.UUID     `json:"user_id"`
	ClientID   uuid.NullUUID `json:"client_id"`
	Items      []NewSaleItem `json:"items"`
	MetodoPago string        `json:"metodo_pago"`
	Notas      string        `json:"notas"`
	Comision   float64       `json:"comision"`
	Estado     string        `json:"estado"`
}

// Total is the sum over items of cantidad*precio_unitario minus descuento.
func (n NewSale) Total() float64 {
	var total float64
	for _, it := range n.Items {
		total += float64(it.Cantidad)*it.PrecioUnitario - it.Descuento
	}
	return total
}

// Sales is the relational sale store.
type Sales struct {
	db      *bun.DB
	repo    repository.Repository[*Sale]
	users   *Users
	clients *Clients
	now     func() time.Time
}

func NewSales(db *bun.DB, users *Users, clients *Clients) *Sales {
	return &Sales{
		db:      db,
		users:   users,
		clients: clients,
		now:     func() time.Time { return time.Now().UTC() },
		repo: repository.NewRepository[*Sale](db, repository.ModelHandlers[*Sale]{
			NewRecord:     func() *Sale { return &Sale{} },
			GetID:         func(s *Sale) uuid.UUID { return s.ID },
			SetID:         func(s *Sale, id uuid.UUID) { s.ID = id },
			GetIdentifier: func() string { return "id" },
		}),
	}
}

func withItems() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Items")
	}
}

func dateRange(from, to time.Time) repository.SelectCriteria {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if !from.IsZero() {
			q = q.Where("?TableAlias.fecha_venta >= ?", from)
		}
		if !to.IsZero() {
			q = q.Where("?TableAlias.fecha_venta <= ?", to)
		}
		return q
	}
}

// List returns one page of sales, newest first, with their items.
func (s *Sales) List(ctx context.Context, f SaleFilter) ([]*Sale, int, error) {
	sales, total, err := s.repo.List(ctx, compact(
		whereIf(f.UserID != uuid.Nil, "user_id", f.UserID),
		whereIf(f.Estado != "", "estado", f.Estado),
		dateRange(f.From, f.To),
		withItems(),
		orderBy("fecha_venta DESC"),
		paginate(f.Page),
	)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list sales: %w", err)
	}
	return sales, total, nil
}

// Get returns the sale with id and its items.
func (s *Sales) Get(ctx context.Context, id uuid.UUID) (*Sale, error) {
	sales, _, err := s.repo.List(ctx, where("id", id), withItems(), limitOne())
	if err != nil {
		return nil, fmt.Errorf("store: find sale: %w", err)
	}
	if len(sales) == 0 {
		return nil, ErrNotFound
	}
	return sales[0], nil
}

// Create records a sale and its items in one transaction. The user, and the
// client when given, must exist.
func (s *Sales) Create(ctx context.Context, in NewSale) (*Sale, error) {
	if _, err := s.users.Get(ctx, in.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrInvalidReference, in.UserID)
		}
		return nil, err
	}
	if in.ClientID.Valid {
		if _, err := s.clients.Get(ctx, in.ClientID.UUID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: client %s", ErrInvalidReference, in.ClientID.UUID)
			}
			return nil, err
		}
	}

	estado := in.Estado
	if estado == "" {
		estado = SaleCompleted
	}
	now := s.now()
	sale := &Sale{
		ID:         uuid.New(),
		UserID:     in.UserID,
		ClientID:   in.ClientID,
		Estado:     estado,
		MetodoPago: in.MetodoPago,
		Notas:      in.Notas,
		Total:      in.Total(),
		Comision:   in.Comision,
		FechaVenta: now,
		CreatedAt:  now,
	}
	for _, it := range in.Items {
		sale.Items = append(sale.Items, &SaleItem{
			ID:             uuid.New(),
			SaleID:         sale.ID,
			ProductID:      it.ProductID,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Descuento:      it.Descuento,
			Subtotal:       float64(it.Cantidad) * it.PrecioUnitario,
		})
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(sale).Exec(ctx); err != nil {
			return err
		}
		if len(sale.Items) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&sale.Items).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store: create sale: %w", err)
	}
	return sale, nil
}

// SaleTotals aggregates the sale table.
type SaleTotals struct {
	Count       int     `bun:"count" json:"total"`
	Completed   int     `bun:"completed" json:"completadas"`
	Pending     int     `bun:"pending" json:"pendientes"`
	Amount      float64 `bun:"amount" json:"totalVentas"`
	Commissions float64 `bun:"commissions" json:"totalComisiones"`
	Average     float64 `bun:"average" json:"ventaPromedio"`
}

// Totals counts sales per estado and sums totals and commissions. Sums are
// cast so an empty table still scans into the float fields.
func (s *Sales) Totals(ctx context.Context) (*SaleTotals, error) {
	var totals SaleTotals
	err := s.db.NewSelect().
		Model((*Sale)(nil)).
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(CASE WHEN ?TableAlias.estado = ? THEN 1 ELSE 0 END), 0) AS completed", SaleCompleted).
		ColumnExpr("COALESCE(SUM(CASE WHEN ?TableAlias.estado = ? THEN 1 ELSE 0 END), 0) AS pending", SalePending).
		ColumnExpr("CAST(COALESCE(SUM(?TableAlias.total), 0) AS DOUBLE PRECISION) AS amount").
		ColumnExpr("CAST(COALESCE(SUM(?TableAlias.comision), 0) AS DOUBLE PRECISION) AS commissions").
		ColumnExpr("CAST(COALESCE(AVG(?TableAlias.total), 0) AS DOUBLE PRECISION) AS average").
		Scan(ctx, &totals)
	if err != nil {
		return nil, fmt.Errorf("store: sale totals: %w", err)
	}
	return &totals, nil
}
