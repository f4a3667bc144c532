package catalog

import "strings"

// Category is one distinct value of a grouping field.
type Category struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Categories lists the distinct families, lines and validity periods in
// order of first appearance.
type Categories struct {
	Families   []Category `json:"familias"`
	Lines      []Category `json:"lineas"`
	Validities []Category `json:"vigencias"`
}

// Stats counts products per grouping field.
type Stats struct {
	TotalProducts int            `json:"total_products"`
	ByFamily      map[string]int `json:"by_familia"`
	ByLine        map[string]int `json:"by_linea"`
	ByValidity    map[string]int `json:"by_vigencia"`
	Pricing       PricingInfo    `json:"pricing_info"`
}

// BuildCategories groups products. Blank values are skipped.
func BuildCategories(products []PublicProduct) Categories {
	return Categories{
		Families:   group(products, func(p PublicProduct) string { return p.Family }),
		Lines:      group(products, func(p PublicProduct) string { return p.Line }),
		Validities: group(products, func(p PublicProduct) string { return p.Validity }),
	}
}

// BuildStats counts products per family, line and validity.
func BuildStats(products []PublicProduct) Stats {
	s := Stats{
		TotalProducts: len(products),
		ByFamily:      map[string]int{},
		ByLine:        map[string]int{},
		ByValidity:    map[string]int{},
		Pricing:       Disclosure(),
	}
	for _, p := range products {
		if v := strings.TrimSpace(p.Family); v != "" {
			s.ByFamily[v]++
		}
		if v := strings.TrimSpace(p.Line); v != "" {
			s.ByLine[v]++
		}
		if v := strings.TrimSpace(p.Validity); v != "" {
			s.ByValidity[v]++
		}
	}
	return s
}

func group(products []PublicProduct, key func(PublicProduct) string) []Category {
	out := make([]Category, 0)
	index := map[string]int{}
	for _, p := range products {
		v := strings.TrimSpace(key(p))
		if v == "" {
			continue
		}
		if i, ok := index[v]; ok {
			out[i].Count++
			continue
		}
		index[v] = len(out)
		out = append(out, Category{Value: v, Count: 1})
	}
	return out
}
