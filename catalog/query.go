package catalog

import (
	"sort"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100
)

// Sortable field names accepted by Query.Sort.
var SortFields = []string{"combo", "id", "descripcion", "familia", "linea", "codigo", "vigencia", "puntos"}

// Query filters, sorts and paginates a product list.
type Query struct {
	Family   string `form:"familia" json:"familia,omitempty"`
	Line     string `form:"linea" json:"linea,omitempty"`
	Validity string `form:"vigencia" json:"vigencia,omitempty"`
	Search   string `form:"search" json:"search,omitempty"`
	Sort     string `form:"sort" json:"sort"`
	Order    string `form:"order" json:"order"`
	Page     int    `form:"page" json:"-"`
	Limit    int    `form:"limit" json:"-"`
}

// Normalize applies defaults and clamps page and limit.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if !validSort(q.Sort) {
		q.Sort = "combo"
	}
	q.Order = strings.ToLower(q.Order)
	if q.Order != "desc" {
		q.Order = "asc"
	}
	return q
}

func validSort(field string) bool {
	for _, f := range SortFields {
		if f == field {
			return true
		}
	}
	return false
}

// Page is one page of a filtered product list.
type Page struct {
	Products []PublicProduct
	Page     int
	Limit    int
	Total    int
	Pages    int
}

// Apply runs q over products without modifying the input slice.
func Apply(products []PublicProduct, q Query) Page {
	q = q.Normalize()

	filtered := make([]PublicProduct, 0, len(products))
	for _, p := range products {
		if q.matches(p) {
			filtered = append(filtered, p)
		}
	}
	sortProducts(filtered, q.Sort, q.Order == "desc")

	total := len(filtered)
	pages := (total + q.Limit - 1) / q.Limit
	start := total
	if q.Page-1 <= total/q.Limit {
		start = min((q.Page-1)*q.Limit, total)
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return Page{
		Products: filtered[start:end],
		Page:     q.Page,
		Limit:    q.Limit,
		Total:    total,
		Pages:    pages,
	}
}

func (q Query) matches(p PublicProduct) bool {
	if q.Family != "" && !containsFold(p.Family, q.Family) {
		return false
	}
	if q.Line != "" && !containsFold(p.Line, q.Line) {
		return false
	}
	if q.Validity != "" && p.Validity != q.Validity {
		return false
	}
	if q.Search != "" {
		if !containsFold(p.Description, q.Search) &&
			!containsFold(p.Code, q.Search) &&
			!containsFold(p.Family, q.Search) &&
			!containsFold(p.Line, q.Search) {
			return false
		}
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sortProducts(products []PublicProduct, field string, desc bool) {
	less := func(a, b PublicProduct) bool {
		switch field {
		case "combo":
			return a.Combo < b.Combo
		case "id":
			return a.ID < b.ID
		default:
			return strings.ToLower(sortValue(a, field)) < strings.ToLower(sortValue(b, field))
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}

func sortValue(p PublicProduct, field string) string {
	switch field {
	case "descripcion":
		return p.Description
	case "familia":
		return p.Family
	case "linea":
		return p.Line
	case "codigo":
		return p.Code
	case "vigencia":
		return p.Validity
	case "puntos":
		return p.Points
	default:
		return ""
	}
}

// SearchParams is the exact-match search of the /search endpoint.
type SearchParams struct {
	Text     string `form:"q"`
	Family   string `form:"familia"`
	Line     string `form:"linea"`
	Validity string `form:"vigencia"`
}

// Empty reports whether no parameter was given.
func (s SearchParams) Empty() bool {
	return s.Text == "" && s.Family == "" && s.Line == "" && s.Validity == ""
}

// Search filters products: Text is a case-insensitive substring match over
// descripcion, codigo, familia and linea; the other parameters match exactly.
func Search(products []PublicProduct, s SearchParams) []PublicProduct {
	out := make([]PublicProduct, 0)
	for _, p := range products {
		if s.Text != "" &&
			!containsFold(p.Description, s.Text) &&
			!containsFold(p.Code, s.Text) &&
			!containsFold(p.Family, s.Text) &&
			!containsFold(p.Line, s.Text) {
			continue
		}
		if s.Family != "" && p.Family != s.Family {
			continue
		}
		if s.Line != "" && p.Line != s.Line {
			continue
		}
		if s.Validity != "" && p.Validity != s.Validity {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ByID finds a product by its id.
func (s *Snapshot) ByID(id int) (PublicProduct, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return PublicProduct{}, false
}

// ByCombo finds a product by its combo number.
func (s *Snapshot) ByCombo(combo int) (PublicProduct, bool) {
	for _, p := range s.Products {
		if p.Combo == combo {
			return p, true
		}
	}
	return PublicProduct{}, false
}
