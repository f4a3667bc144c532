package catalog

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

const (
	PricingMessage        = "Los precios y cuotas están disponibles para usuarios registrados"
	PricingContactMessage = "Contacte con nosotros para obtener precios y opciones de pago"
)

// PublicProduct is the pricing-free view of a catalog row.
type PublicProduct struct {
	ID          int         `json:"id" csv:"id"`
	Combo       int         `json:"combo" csv:"combo"`
	Family      string      `json:"familia" csv:"familia"`
	Line        string      `json:"linea" csv:"linea"`
	Code        string      `json:"codigo" csv:"codigo"`
	Description string      `json:"descripcion" csv:"descripcion"`
	Points      string      `json:"puntos" csv:"puntos"`
	Validity    string      `json:"vigencia" csv:"vigencia"`
	Media       Media       `json:"multimedia" csv:",inline"`
	Promotions  Promotions  `json:"promociones" csv:",inline"`
	Pricing     PricingInfo `json:"pricing_info" csv:"-"`
}

type Media struct {
	Image     string `json:"imagen" csv:"imagen"`
	Datasheet string `json:"ficha_tecnica" csv:"ficha_tecnica"`
}

type Promotions struct {
	Discount string `json:"discount" csv:"discount"`
	Event    string `json:"event" csv:"event"`
}

// PricingInfo tells public clients that prices exist but are withheld.
type PricingInfo struct {
	HasPricing     bool   `json:"has_pricing"`
	Message        string `json:"message"`
	ContactMessage string `json:"contact_message"`
}

// Disclosure is the pricing notice attached to every public product.
func Disclosure() PricingInfo {
	return PricingInfo{
		HasPricing:     true,
		Message:        PricingMessage,
		ContactMessage: PricingContactMessage,
	}
}

// Fields maps public attributes to source header names.
type Fields struct {
	Combo       string `mapstructure:"combo"`
	Family      string `mapstructure:"familia"`
	Line        string `mapstructure:"linea"`
	Code        string `mapstructure:"codigo"`
	Description string `mapstructure:"descripcion"`
	Points      string `mapstructure:"puntos"`
	Validity    string `mapstructure:"vigencia"`
	Image       string `mapstructure:"imagen"`
	Datasheet   string `mapstructure:"ficha_tecnica"`
	Discount    string `mapstructure:"discount"`
	Event       string `mapstructure:"event"`
}

// DefaultFields returns the header names of the productos sheet.
func DefaultFields() Fields {
	return Fields{
		Combo:       "combo",
		Family:      "familia",
		Line:        "linea",
		Code:        "codigo",
		Description: "descripcion",
		Points:      "puntos",
		Validity:    "vigencia",
		Image:       "imagen",
		Datasheet:   "ficha_tecnica",
		Discount:    "discount",
		Event:       "event",
	}
}

func (f Fields) all() map[string]string {
	return map[string]string{
		"combo":         f.Combo,
		"familia":       f.Family,
		"linea":         f.Line,
		"codigo":        f.Code,
		"descripcion":   f.Description,
		"puntos":        f.Points,
		"vigencia":      f.Validity,
		"imagen":        f.Image,
		"ficha_tecnica": f.Datasheet,
		"discount":      f.Discount,
		"event":         f.Event,
	}
}

var pricingMarkers = []string{
	"precio", "price", "psvp", "cuota", "installment",
	"interes", "interest", "comision", "commission",
}

// IsPricingField reports whether a header name carries pricing,
// installment or commission data.
func IsPricingField(name string) bool {
	n := strings.ToLower(name)
	for _, m := range pricingMarkers {
		if strings.Contains(n, m) {
			return true
		}
	}
	return false
}

// ParseCombo reads the leading integer of a combo cell, so "101.0" and
// " 101abc" are combo 101. It reports false unless the value is positive.
func ParseCombo(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Project turns product rows into public products. The id is the data-row
// position plus one and is assigned before rows without a positive combo
// are dropped, so a product keeps its id while the sheet order is stable.
func Project(records []sheetrepo.Record, f Fields) []PublicProduct {
	out := make([]PublicProduct, 0, len(records))
	for i, rec := range records {
		combo, ok := ParseCombo(rec[f.Combo])
		if !ok {
			continue
		}
		out = append(out, PublicProduct{
			ID:          i + 1,
			Combo:       combo,
			Family:      rec[f.Family],
			Line:        rec[f.Line],
			Code:        rec[f.Code],
			Description: rec[f.Description],
			Points:      rec[f.Points],
			Validity:    rec[f.Validity],
			Media: Media{
				Image:     rec[f.Image],
				Datasheet: rec[f.Datasheet],
			},
			Promotions: Promotions{
				Discount: rec[f.Discount],
				Event:    rec[f.Event],
			},
			Pricing: Disclosure(),
		})
	}
	return out
}
