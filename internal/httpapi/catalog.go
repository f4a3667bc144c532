package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"

	"github.com/goliatone/go-sheet-catalog/catalog"
)

func (s *Server) registerCatalog(g *gin.RouterGroup) {
	g.GET("", s.catalogInfo)
	g.GET("/", s.catalogInfo)
	g.GET("/products", s.listProducts)
	g.GET("/products/:id", s.productByID)
	g.GET("/products/combo/:combo", s.productByCombo)
	g.GET("/categories", s.categories)
	g.GET("/stats", s.catalogStats)
	g.GET("/search", s.search)
	g.GET("/feed", s.feed)
}

// snapshot loads the current catalog and answers conditional requests.
// It returns nil when the response was already written.
func (s *Server) snapshot(c *gin.Context) *catalog.Snapshot {
	snap, err := s.deps.Catalog.Get(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return nil
	}
	etag := `"` + snap.Version + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "public, max-age=0, must-revalidate")
	if match := c.GetHeader("If-None-Match"); match != "" && etagMatches(match, etag) {
		c.AbortWithStatus(http.StatusNotModified)
		return nil
	}
	return snap
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func cacheUpdated(snap *catalog.Snapshot) string {
	return snap.RefreshedAt.UTC().Format(time.RFC3339)
}

func (s *Server) catalogInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "API Pública de Productos Essen",
		"version":     s.deps.Version,
		"description": "Catálogo de productos sin precios",
		"pricing_policy": gin.H{
			"message": "Los precios y cuotas NO están disponibles en la API pública",
			"reason":  "Los precios están reservados para usuarios registrados",
			"contact": catalog.PricingContactMessage,
		},
		"endpoints": gin.H{
			"GET /api/essen/products":              "Productos con filtros y paginación",
			"GET /api/essen/products/:id":          "Producto por ID",
			"GET /api/essen/products/combo/:combo": "Producto por número de combo",
			"GET /api/essen/categories":            "Categorías disponibles",
			"GET /api/essen/stats":                 "Estadísticas del catálogo",
			"GET /api/essen/search":                "Búsqueda de productos",
			"GET /api/essen/feed":                  "RSS de productos vigentes",
		},
		"parameters": gin.H{
			"pagination": gin.H{
				"page":  fmt.Sprintf("Número de página (default: %d)", catalog.DefaultPage),
				"limit": fmt.Sprintf("Productos por página (default: %d, max: %d)", catalog.DefaultLimit, catalog.MaxLimit),
			},
			"filters": []string{"familia", "linea", "vigencia", "search"},
			"sort":    catalog.SortFields,
			"order":   []string{"asc", "desc"},
		},
	})
}

func (s *Server) listProducts(c *gin.Context) {
	var q catalog.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, invalid(err))
		return
	}
	q = q.Normalize()

	snap := s.snapshot(c)
	if snap == nil {
		return
	}
	page := catalog.Apply(snap.Products, q)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    page.Products,
		"pagination": gin.H{
			"page":  page.Page,
			"limit": page.Limit,
			"total": page.Total,
			"pages": page.Pages,
		},
		"filters": q,
		"meta": gin.H{
			"cache_updated":  cacheUpdated(snap),
			"total_products": page.Total,
		},
	})
}

func intParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, invalid(fmt.Errorf("%s must be a number", name))
	}
	return v, nil
}

func (s *Server) productByID(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	snap := s.snapshot(c)
	if snap == nil {
		return
	}
	p, found := snap.ByID(id)
	if !found {
		notFound(c, "Producto no encontrado")
		return
	}
	ok(c, p)
}

func (s *Server) productByCombo(c *gin.Context) {
	combo, err := intParam(c, "combo")
	if err != nil {
		s.fail(c, err)
		return
	}
	snap := s.snapshot(c)
	if snap == nil {
		return
	}
	p, found := snap.ByCombo(combo)
	if !found {
		notFound(c, "Producto no encontrado")
		return
	}
	ok(c, p)
}

func notFound(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "message": msg})
}

func (s *Server) categories(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}
	ok(c, catalog.BuildCategories(snap.Products))
}

func (s *Server) catalogStats(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    catalog.BuildStats(snap.Products),
		"meta": gin.H{
			"cache_updated": cacheUpdated(snap),
			"ttl_seconds":   int(s.ttl().Seconds()),
		},
	})
}

func (s *Server) ttl() time.Duration {
	if t, ok := s.deps.Catalog.(interface{ TTL() time.Duration }); ok {
		return t.TTL()
	}
	return catalog.DefaultTTL
}

func (s *Server) search(c *gin.Context) {
	var params catalog.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		s.fail(c, invalid(err))
		return
	}
	if params.Empty() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success":          false,
			"message":          "Debe proporcionar al menos un parámetro de búsqueda",
			"available_params": []string{"q", "familia", "linea", "vigencia"},
		})
		return
	}

	snap := s.snapshot(c)
	if snap == nil {
		return
	}
	found := catalog.Search(snap.Products, params)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    found,
		"total":   len(found),
		"search_params": gin.H{
			"q":        params.Text,
			"familia":  params.Family,
			"linea":    params.Line,
			"vigencia": params.Validity,
		},
		"pricing_info": catalog.Disclosure(),
	})
}

// feed renders the products in force as RSS.
func (s *Server) feed(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	base := "http://" + c.Request.Host + "/api/essen/products/"
	out := &feeds.Feed{
		Title:       "Catálogo Essen",
		Link:        &feeds.Link{Href: base},
		Description: "Productos vigentes del catálogo público",
		Created:     snap.RefreshedAt,
	}
	for _, p := range snap.Products {
		if !strings.EqualFold(p.Validity, "si") {
			continue
		}
		item := &feeds.Item{
			Id:          strconv.Itoa(p.Combo),
			Title:       p.Description,
			Link:        &feeds.Link{Href: base + strconv.Itoa(p.ID)},
			Description: strings.TrimSpace(p.Family + " " + p.Line),
			Created:     snap.RefreshedAt,
		}
		if p.Media.Image != "" {
			item.Enclosure = &feeds.Enclosure{Url: p.Media.Image, Type: "image/jpeg", Length: "0"}
		}
		out.Items = append(out.Items, item)
	}

	rss, err := out.ToRss()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
