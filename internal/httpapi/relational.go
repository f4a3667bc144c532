package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/goliatone/go-sheet-catalog/internal/auth"
	"github.com/goliatone/go-sheet-catalog/internal/store"
)

const dateLayout = "2006-01-02"

// registerRelational mounts the database routes. Reads need a token because
// products carry pricing; writes need the admin role.
func (s *Server) registerRelational(api *gin.RouterGroup) {
	admin := auth.RequireAdmin()

	products := api.Group("/products")
	products.GET("", s.dbListProducts)
	products.GET("/stats/overview", s.dbProductStats)
	products.GET("/combo/:combo", s.dbProductByCombo)
	products.GET("/:id", s.dbProduct)
	products.POST("", admin, s.dbCreateProduct)
	products.PUT("/:id", admin, s.dbUpdateProduct)
	products.DELETE("/:id", admin, s.dbDeleteProduct)

	users := api.Group("/users")
	users.GET("", s.dbListUsers)
	users.GET("/username/:username", s.dbUserByUsername)
	users.GET("/:id", s.dbUser)
	users.POST("", admin, s.dbCreateUser)
	users.PUT("/:id", admin, s.dbUpdateUser)
	users.DELETE("/:id", admin, s.dbDeleteUser)

	clients := api.Group("/clients")
	clients.GET("", s.dbListClients)
	clients.GET("/:id", s.dbClient)
	clients.POST("", s.dbCreateClient)
	clients.PUT("/:id", s.dbUpdateClient)
	clients.DELETE("/:id", admin, s.dbDeleteClient)

	sales := api.Group("/sales")
	sales.GET("", s.dbListSales)
	sales.GET("/stats/overview", admin, s.dbSaleTotals)
	sales.GET("/:id", s.dbSale)
	sales.POST("", s.dbCreateSale)

	api.GET("/dashboard/overview", admin, s.dbOverview)
}

func (s *Server) rel() *Relational {
	return s.deps.Relational
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, invalid(fmt.Errorf("%s must be a UUID", name))
	}
	return id, nil
}

func listed(c *gin.Context, data any, page store.Page, total int) {
	page = page.Normalize()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":  page.Page,
			"limit": page.Limit,
			"total": total,
			"pages": page.Pages(total),
		},
	})
}

// products

type productRequest store.Product

func (r productRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Combo, validation.Required, validation.Min(1)),
		validation.Field(&r.Descripcion, validation.Required),
	)
}

func (s *Server) dbListProducts(c *gin.Context) {
	var f store.ProductFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		s.fail(c, invalid(err))
		return
	}
	products, total, err := s.rel().Products.List(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	listed(c, products, f.Page, total)
}

func (s *Server) dbProduct(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	p, err := s.rel().Products.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, p)
}

func (s *Server) dbProductByCombo(c *gin.Context) {
	combo, err := intParam(c, "combo")
	if err != nil {
		s.fail(c, err)
		return
	}
	p, err := s.rel().Products.GetByCombo(c.Request.Context(), combo)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, p)
}

func (s *Server) dbProductStats(c *gin.Context) {
	stats, err := s.rel().Products.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, stats)
}

func (s *Server) dbCreateProduct(c *gin.Context) {
	var req productRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	p := store.Product(req)
	p.ID = uuid.Nil
	out, err := s.rel().Products.Create(c.Request.Context(), &p)
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, out)
}

func (s *Server) dbUpdateProduct(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	var req productRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	p := store.Product(req)
	p.ID = id
	out, err := s.rel().Products.Update(c.Request.Context(), &p)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) dbDeleteProduct(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.rel().Products.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Producto eliminado correctamente")
}

// users

type userRequest struct {
	Username           string `json:"username"`
	Password           string `json:"password"`
	Email              string `json:"email"`
	Nombre             string `json:"nombre"`
	Apellido           string `json:"apellido"`
	Rango              string `json:"rango"`
	CodigoEmprendedora string `json:"codigo_emprendedora"`
	TipoUsuario        string `json:"tipo_usuario"`
	Estado             string `json:"estado"`
}

func (r userRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
	)
}

func (r userRequest) user() *store.User {
	return &store.User{
		Username:           r.Username,
		Password:           r.Password,
		Email:              r.Email,
		Nombre:             r.Nombre,
		Apellido:           r.Apellido,
		Rango:              r.Rango,
		CodigoEmprendedora: r.CodigoEmprendedora,
		TipoUsuario:        r.TipoUsuario,
		Estado:             r.Estado,
	}
}

func (s *Server) dbListUsers(c *gin.Context) {
	var f store.UserFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		s.fail(c, invalid(err))
		return
	}
	users, total, err := s.rel().Users.List(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	listed(c, users, f.Page, total)
}

func (s *Server) dbUser(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	u, err := s.rel().Users.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, u)
}

func (s *Server) dbUserByUsername(c *gin.Context) {
	u, err := s.rel().Users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, u)
}

func (s *Server) dbCreateUser(c *gin.Context) {
	var req userRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if req.Password == "" {
		s.fail(c, invalid(validation.Errors{"password": validation.ErrRequired}))
		return
	}
	u, err := s.rel().Users.Create(c.Request.Context(), req.user())
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, u)
}

func (s *Server) dbUpdateUser(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	var req userRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	u := req.user()
	u.ID = id
	out, err := s.rel().Users.Update(c.Request.Context(), u)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) dbDeleteUser(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.rel().Users.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Usuario eliminado correctamente")
}

// clients

type clientDBRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	Nombre    string    `json:"nombre"`
	Apellido  string    `json:"apellido"`
	Email     string    `json:"email"`
	Telefono  string    `json:"telefono"`
	Direccion string    `json:"direccion"`
	Activo    *bool     `json:"activo"`
}

func (r clientDBRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Nombre, validation.Required),
	)
}

func (r clientDBRequest) client() *store.Client {
	activo := true
	if r.Activo != nil {
		activo = *r.Activo
	}
	return &store.Client{
		UserID:    r.UserID,
		Nombre:    r.Nombre,
		Apellido:  r.Apellido,
		Email:     r.Email,
		Telefono:  r.Telefono,
		Direccion: r.Direccion,
		Activo:    activo,
	}
}

// queryUUID reads an optional UUID query parameter under any of names.
func queryUUID(c *gin.Context, names ...string) (uuid.UUID, error) {
	for _, n := range names {
		if v := c.Query(n); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return uuid.Nil, invalid(fmt.Errorf("%s must be a UUID", n))
			}
			return id, nil
		}
	}
	return uuid.Nil, nil
}

func queryPage(c *gin.Context) (store.Page, error) {
	var p store.Page
	if err := c.ShouldBindQuery(&p); err != nil {
		return p, invalid(err)
	}
	return p, nil
}

func (s *Server) dbListClients(c *gin.Context) {
	page, err := queryPage(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	f := store.ClientFilter{Page: page}
	if f.UserID, err = queryUUID(c, "userId", "user_id"); err != nil {
		s.fail(c, err)
		return
	}
	if v := c.Query("activo"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.fail(c, invalid(fmt.Errorf("activo must be a boolean")))
			return
		}
		f.Activo = &b
	}

	clients, total, err := s.rel().Clients.List(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	listed(c, clients, f.Page, total)
}

func (s *Server) dbClient(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	cl, err := s.rel().Clients.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, cl)
}

func (s *Server) dbCreateClient(c *gin.Context) {
	var req clientDBRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if req.UserID == uuid.Nil {
		s.fail(c, invalid(validation.Errors{"user_id": validation.ErrRequired}))
		return
	}
	out, err := s.rel().Clients.Create(c.Request.Context(), req.client())
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, out)
}

func (s *Server) dbUpdateClient(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	var req clientDBRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	cl := req.client()
	cl.ID = id
	out, err := s.rel().Clients.Update(c.Request.Context(), cl)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) dbDeleteClient(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.rel().Clients.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Cliente eliminado correctamente")
}

// sales

type saleDBRequest store.NewSale

func (r saleDBRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.By(func(any) error {
			if r.UserID == uuid.Nil {
				return validation.ErrRequired
			}
			return nil
		})),
		validation.Field(&r.Items, validation.Required, validation.Each(validation.By(validItem))),
		validation.Field(&r.Estado, validation.In(store.SaleCompleted, store.SalePending)),
	)
}

func validItem(v any) error {
	it, _ := v.(store.NewSaleItem)
	return validation.ValidateStruct(&it,
		validation.Field(&it.Cantidad, validation.Required, validation.Min(1)),
		validation.Field(&it.PrecioUnitario, validation.Min(0.0)),
		validation.Field(&it.Descuento, validation.Min(0.0)),
	)
}

func queryDate(c *gin.Context, name string) (time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, invalid(fmt.Errorf("%s must be a %s date", name, dateLayout))
	}
	return t, nil
}

func (s *Server) dbListSales(c *gin.Context) {
	page, err := queryPage(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	f := store.SaleFilter{Page: page, Estado: c.Query("estado")}
	if f.UserID, err = queryUUID(c, "userId", "user_id"); err != nil {
		s.fail(c, err)
		return
	}
	if f.From, err = queryDate(c, "fecha_desde"); err != nil {
		s.fail(c, err)
		return
	}
	if f.To, err = queryDate(c, "fecha_hasta"); err != nil {
		s.fail(c, err)
		return
	}
	if !f.To.IsZero() {
		f.To = f.To.Add(24*time.Hour - time.Nanosecond)
	}

	sales, total, err := s.rel().Sales.List(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	listed(c, sales, f.Page, total)
}

func (s *Server) dbSale(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	sale, err := s.rel().Sales.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, sale)
}

func (s *Server) dbCreateSale(c *gin.Context) {
	var req saleDBRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	sale, err := s.rel().Sales.Create(c.Request.Context(), store.NewSale(req))
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, sale)
}

func (s *Server) dbSaleTotals(c *gin.Context) {
	totals, err := s.rel().Sales.Totals(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, totals)
}

func (s *Server) dbOverview(c *gin.Context) {
	overview, err := s.rel().Dashboard.Overview(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, overview)
}
