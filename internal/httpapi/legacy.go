package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-sheet-catalog/internal/auth"
	"github.com/goliatone/go-sheet-catalog/internal/legacy"
)

func (s *Server) registerLegacy(api *gin.RouterGroup, authed gin.HandlerFunc) {
	user := api.Group("/user", authed)
	user.GET("/all", s.allUsers)
	user.POST("/update-password", s.updatePassword)
	user.POST("/delete-account", s.deleteAccount)

	ventas := api.Group("/ventas", authed)
	ventas.GET("/data", s.saleData)
	ventas.POST("", s.recordSale)
	ventas.GET("", s.openSales)
	ventas.PATCH("/cerrar-mes", s.closeMonth)
	ventas.GET("/ventas-anteriores", s.previousSales)

	clientes := api.Group("/clientes", authed)
	clientes.POST("", s.addClient)
	clientes.GET("", s.listClients)
	clientes.PUT("", s.updateClient)
	clientes.DELETE("", s.deleteClient)

	api.GET("/productos", authed, s.rawProducts)
	api.GET("/bancos", s.banks)
	api.GET("/extras", s.extras)
	api.POST("/extras", authed, s.addExtra)

	profile := api.Group("/profile/:username", authed, auth.RequireOwner("username"))
	profile.GET("", s.getProfile)
	profile.PUT("", s.updateProfile)
	profile.GET("/stats", s.profileStats)
	profile.POST("/change-password", s.changePassword)
}

func caller(c *gin.Context) *auth.Claims {
	claims, _ := auth.FromContext(c)
	return claims
}

// allowed reports whether the caller may act on username.
func allowed(c *gin.Context, username string) bool {
	claims := caller(c)
	return claims != nil && (claims.Admin() || strings.EqualFold(claims.Username, strings.TrimSpace(username)))
}

func forbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Acceso denegado"})
}

func (s *Server) allUsers(c *gin.Context) {
	users, err := s.deps.Legacy.Users.All(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type passwordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r passwordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (s *Server) updatePassword(c *gin.Context) {
	var req passwordRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if !allowed(c, req.Username) {
		forbidden(c)
		return
	}
	if err := s.deps.Legacy.Users.UpdatePassword(c.Request.Context(), req.Username, req.Password); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Contraseña actualizada correctamente")
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (r usernameRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.Username, validation.Required))
}

func (s *Server) deleteAccount(c *gin.Context) {
	var req usernameRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if !allowed(c, req.Username) {
		forbidden(c)
		return
	}
	if err := s.deps.Legacy.Users.DeleteAccount(c.Request.Context(), req.Username); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Cuenta eliminada correctamente")
}

func (s *Server) saleData(c *gin.Context) {
	data, err := s.deps.Legacy.Sales.Data(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

type saleRequest legacy.NewSale

func (r saleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Descripcion, validation.Required),
		validation.Field(&r.Banco, validation.Required),
		validation.Field(&r.ValorComisionable, validation.Required),
		validation.Field(&r.Cuotas, validation.Required),
		validation.Field(&r.Fecha, validation.Required),
	)
}

func (s *Server) recordSale(c *gin.Context) {
	var req saleRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.deps.Legacy.Sales.Record(c.Request.Context(), caller(c).Username, legacy.NewSale(req)); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Venta guardada correctamente")
}

func (s *Server) openSales(c *gin.Context) {
	sales, err := s.deps.Legacy.Sales.Open(c.Request.Context(), caller(c).Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ventas": sales})
}

func (s *Server) previousSales(c *gin.Context) {
	sales, err := s.deps.Legacy.Sales.Previous(c.Request.Context(), caller(c).Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ventas": sales})
}

func (s *Server) closeMonth(c *gin.Context) {
	n, err := s.deps.Legacy.Sales.CloseMonth(c.Request.Context(), caller(c).Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Mes cerrado con éxito", "cerradas": n})
}

type clientRequest struct {
	legacy.Client
	// NombreDelCliente is the name field of the delete body.
	NombreDelCliente string `json:"nombre_del_cliente"`
}

func (r *clientRequest) client() legacy.Client {
	out := r.Client
	out.Username = ""
	if out.Nombre == "" {
		out.Nombre = r.NombreDelCliente
	}
	return out
}

func (r clientRequest) Validate() error {
	c := r.client()
	return validation.ValidateStruct(&c,
		validation.Field(&c.Nombre, validation.Required),
		validation.Field(&c.Direccion, validation.Required),
		validation.Field(&c.Banco, validation.Required),
		validation.Field(&c.Phone, validation.Required),
	)
}

func (s *Server) addClient(c *gin.Context) {
	var req clientRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.deps.Legacy.Clients.Add(c.Request.Context(), caller(c).Username, req.client()); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Cliente agregado correctamente")
}

func (s *Server) listClients(c *gin.Context) {
	clients, err := s.deps.Legacy.Clients.List(c.Request.Context(), caller(c).Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientes": clients})
}

type clientUpdateRequest struct {
	clientRequest
	NuevoNombre    string `json:"nuevoNombre"`
	NuevaDireccion string `json:"nuevaDireccion"`
	NuevoBanco     string `json:"nuevoBanco"`
	NuevoPhone     string `json:"nuevoPhone"`
}

// next returns the replacement values, keeping fields left blank.
func (r *clientUpdateRequest) next() legacy.Client {
	cur := r.client()
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return legacy.Client{
		Nombre:    pick(r.NuevoNombre, cur.Nombre),
		Direccion: pick(r.NuevaDireccion, cur.Direccion),
		Banco:     pick(r.NuevoBanco, cur.Banco),
		Phone:     pick(r.NuevoPhone, cur.Phone),
	}
}

func (s *Server) updateClient(c *gin.Context) {
	var req clientUpdateRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	err := s.deps.Legacy.Clients.Update(c.Request.Context(), caller(c).Username, req.client(), req.next())
	if err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Cliente actualizado correctamente")
}

func (s *Server) deleteClient(c *gin.Context) {
	var req clientRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.deps.Legacy.Clients.Delete(c.Request.Context(), caller(c).Username, req.client()); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Cliente eliminado correctamente")
}

func (s *Server) rawProducts(c *gin.Context) {
	products, err := s.deps.Legacy.Sheets.Products(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) banks(c *gin.Context) {
	banks, err := s.deps.Legacy.Sheets.Banks(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, banks)
}

func (s *Server) extras(c *gin.Context) {
	extras, err := s.deps.Legacy.Sheets.Extras(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, extras)
}

type extraRequest struct {
	Banner string `json:"banner"`
}

func (r extraRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.Banner, validation.Required))
}

func (s *Server) addExtra(c *gin.Context) {
	var req extraRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.deps.Legacy.Sheets.AddExtra(c.Request.Context(), req.Banner); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Extras actualizado con éxito")
}

func (s *Server) getProfile(c *gin.Context) {
	p, err := s.deps.Legacy.Profiles.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, p)
}

func (s *Server) profileStats(c *gin.Context) {
	st, err := s.deps.Legacy.Profiles.Stats(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, st)
}

func (s *Server) updateProfile(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, invalid(err))
		return
	}
	fields := make(map[string]string, len(body))
	for k, v := range body {
		if v == nil {
			fields[k] = ""
			continue
		}
		fields[k] = fmt.Sprint(v)
	}
	if len(fields) == 0 {
		s.fail(c, invalid(validation.NewError("validation_empty", "no fields to update")))
		return
	}
	if err := s.deps.Legacy.Profiles.Update(c.Request.Context(), c.Param("username"), fields); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Perfil actualizado correctamente")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r changePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
		validation.Field(&r.ConfirmPassword, validation.Required, validation.In(r.NewPassword).Error("must match newPassword")),
	)
}

func (s *Server) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	err := s.deps.Legacy.Users.ChangePassword(c.Request.Context(), c.Param("username"), req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Contraseña actualizada correctamente")
}
