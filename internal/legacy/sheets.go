package legacy

import (
	"context"
	"strings"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

// Sheets serves the plain lookup sheets: raw products, banks and extras.
type Sheets struct {
	repo *sheetrepo.Repository
}

func NewSheets(repo *sheetrepo.Repository) *Sheets {
	return &Sheets{repo: repo}
}

// Products returns the productos rows as they are, pricing included.
func (s *Sheets) Products(ctx context.Context) ([]sheetrepo.Record, error) {
	return s.repo.FetchTable(ctx, TableProducts)
}

// Banks returns the non-empty values of column A of bancos below its header.
func (s *Sheets) Banks(ctx context.Context) ([]string, error) {
	t, err := s.repo.Read(ctx, sheetrepo.ColumnsRange(TableBanks, 1, 1).String())
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(t.Records))
	if len(t.Headers) == 0 {
		return out, nil
	}
	for _, r := range t.Records {
		if v := strings.TrimSpace(r.Get(t.Headers[0])); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Sheets) Extras(ctx context.Context) ([]sheetrepo.Record, error) {
	return s.repo.FetchTable(ctx, TableExtras)
}

// AddExtra appends a banner row.
func (s *Sheets) AddExtra(ctx context.Context, banner string) error {
	return s.repo.AppendRecord(ctx, TableExtras, map[string]string{"banner": banner})
}
