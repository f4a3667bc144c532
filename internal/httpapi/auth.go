package httpapi

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-sheet-catalog/internal/legacy"
)

func (s *Server) registerAuth(g *gin.RouterGroup) {
	g.POST("/login", s.login)
	g.POST("/validate-session", s.validateSession)
	g.POST("/register", s.register)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.DeviceID, validation.Required),
	)
}

// bind decodes a JSON body into v and runs its Validate method.
func bind(c *gin.Context, v validation.Validatable) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return invalid(err)
	}
	return invalid(v.Validate())
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()

	user, err := s.deps.Legacy.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	if _, err := s.deps.Sessions.Start(ctx, user.Username, req.DeviceID); err != nil {
		s.fail(c, err)
		return
	}
	token, expires, err := s.deps.Tokens.Issue(user.Username, req.DeviceID, user.Role)
	if err != nil {
		s.fail(c, err)
		return
	}

	tipo := user.TipoUsuario
	if tipo == "" {
		tipo = "full"
	}
	s.logger.Info("user logged in", zap.String("username", user.Username), zap.String("device_id", req.DeviceID))
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"token":        token,
		"expires_at":   expires,
		"username":     user.Username,
		"rango":        user.Rango,
		"tipo_usuario": tipo,
		"role":         user.Role,
	})
}

type validateSessionRequest struct {
	Token    string `json:"token"`
	DeviceID string `json:"deviceId"`
}

func (s *Server) validateSession(c *gin.Context) {
	var req validateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, invalid(err))
		return
	}
	claims, err := s.deps.Tokens.Parse(req.Token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	device := req.DeviceID
	if device == "" {
		device = claims.DeviceID
	}
	valid, err := s.deps.Sessions.Valid(c.Request.Context(), claims.Username, device)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

type registerRequest legacy.Registration

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Rango, validation.Required),
		validation.Field(&r.CodigoEmprendedora, validation.Required),
	)
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.deps.Legacy.Users.Register(c.Request.Context(), legacy.Registration(req)); err != nil {
		s.fail(c, err)
		return
	}
	message(c, "Usuario registrado correctamente")
}
