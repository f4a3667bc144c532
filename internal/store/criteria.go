package store

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Page is limit/offset pagination shared by the list filters.
type Page struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// Normalize applies the defaults of the original API (page 1, 50 rows).
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

// Pages returns the page count for total rows.
func (p Page) Pages(total int) int {
	p = p.Normalize()
	return (total + p.Limit - 1) / p.Limit
}

func paginate(p Page) repository.SelectCriteria {
	p = p.Normalize()
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(p.Limit).Offset((p.Page - 1) * p.Limit)
	}
}

func where(column string, value any) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(column), value)
	}
}

func whereIf(cond bool, column string, value any) repository.SelectCriteria {
	if !cond {
		return nil
	}
	return where(column, value)
}

func orderBy(expr string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order(expr)
	}
}

func limitOne() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(1)
	}
}

func compact(criteria ...repository.SelectCriteria) []repository.SelectCriteria {
	out := criteria[:0]
	for _, c := range criteria {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
