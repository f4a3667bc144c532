package legacy

import (
	"context"
	"strings"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

const (
	saleOpen   = "sí"
	saleClosed = "no"
	activeFlag = "si"
)

// Sale is one ventas row.
type Sale struct {
	Descripcion       string `json:"descripcion"`
	Puntos            int    `json:"puntos"`
	Banco             string `json:"banco"`
	ValorComisionable string `json:"valor_comisionable"`
	Cuotas            string `json:"cuotas"`
	Fecha             string `json:"fecha"`
}

// NewSale is the input of Sales.Record.
type NewSale struct {
	Descripcion       string  `json:"descripcion"`
	Puntos            float64 `json:"puntos"`
	Banco             string  `json:"banco"`
	ValorComisionable float64 `json:"valor_comisionable"`
	Cuotas            string  `json:"cuotas"`
	Fecha             string  `json:"fecha"`
}

// SaleProduct is a product offered on the sale form.
type SaleProduct struct {
	Descripcion       string  `json:"descripcion"`
	Puntos            float64 `json:"puntos"`
	ValorComisionable float64 `json:"valor_comisionable"`
	Vigencia          string  `json:"vigencia"`
}

// SaleData feeds the sale form.
type SaleData struct {
	Productos []SaleProduct `json:"productos"`
	Bancos    []string      `json:"bancos"`
}

// Sales works on the ventas sheet. Rows belong to a user by the username
// column and are open until the month is closed.
type Sales struct {
	repo  *sheetrepo.Repository
	banks *Sheets
}

func NewSales(repo *sheetrepo.Repository) *Sales {
	return &Sales{repo: repo, banks: NewSheets(repo)}
}

// Data returns the active products and the bank list.
func (s *Sales) Data(ctx context.Context) (*SaleData, error) {
	records, err := s.repo.FetchTable(ctx, TableProducts)
	if err != nil {
		return nil, err
	}
	products := make([]SaleProduct, 0, len(records))
	for _, r := range records {
		vigencia := strings.ToLower(r.Get("vigencia"))
		if vigencia != activeFlag {
			continue
		}
		products = append(products, SaleProduct{
			Descripcion:       r.Get("descripcion"),
			Puntos:            parseFloat(r.Get("puntos")),
			ValorComisionable: parseFloat(r.Get("valor_comisionable")),
			Vigencia:          vigencia,
		})
	}

	banks, err := s.banks.Banks(ctx)
	if err != nil {
		return nil, err
	}
	return &SaleData{Productos: products, Bancos: banks}, nil
}

// Record appends an open sale for username.
func (s *Sales) Record(ctx context.Context, username string, in NewSale) error {
	return s.repo.AppendRecord(ctx, TableSales, map[string]string{
		"username":           normalizeUser(username),
		"descripcion":        in.Descripcion,
		"puntos":             formatFloat(in.Puntos),
		"banco":              in.Banco,
		"valor_comisionable": formatFloat(in.ValorComisionable),
		"cuotas":             in.Cuotas,
		"fecha":              in.Fecha,
		"activo":             saleOpen,
	})
}

func (s *Sales) list(ctx context.Context, username, flag string) ([]Sale, error) {
	t, err := s.repo.Read(ctx, TableSales)
	if err != nil {
		return nil, err
	}
	out := make([]Sale, 0)
	for _, r := range t.Filter(ownedWithFlag(username, flag)) {
		out = append(out, Sale{
			Descripcion:       r.Get("descripcion"),
			Puntos:            parseInt(r.Get("puntos")),
			Banco:             r.Get("banco"),
			ValorComisionable: r.Get("valor_comisionable"),
			Cuotas:            r.Get("cuotas"),
			Fecha:             r.Get("fecha"),
		})
	}
	return out, nil
}

func ownedWithFlag(username, flag string) sheetrepo.Match {
	return sheetrepo.All(
		sheetrepo.FieldEqualsFold("username", username),
		sheetrepo.FieldEqualsFold("activo", flag),
	)
}

// Open lists the sales of username in the current month.
func (s *Sales) Open(ctx context.Context, username string) ([]Sale, error) {
	return s.list(ctx, username, saleOpen)
}

// Previous lists the sales of closed months.
func (s *Sales) Previous(ctx context.Context, username string) ([]Sale, error) {
	return s.list(ctx, username, saleClosed)
}

// CloseMonth marks every open sale of username closed in one batch and
// returns how many rows changed.
func (s *Sales) CloseMonth(ctx context.Context, username string) (int, error) {
	var n int
	err := s.repo.WithTableLock(ctx, TableSales, func(ctx context.Context) error {
		var err error
		n, err = s.repo.UpdateWhere(ctx, TableSales, ownedWithFlag(username, saleOpen), map[string]string{
			"activo": saleClosed,
		})
		return err
	})
	return n, err
}
