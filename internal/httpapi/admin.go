package httpapi

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) registerAdmin(g *gin.RouterGroup) {
	g.GET("/multiple-sessions", s.activeSessions)
	g.POST("/logout-user", s.logoutUser)
	g.POST("/catalog/refresh", s.refreshCatalog)
}

type sessionView struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	DeviceID string `json:"deviceId"`
	Started  string `json:"fecha"`
}

func (s *Server) activeSessions(c *gin.Context) {
	active, err := s.deps.Sessions.Active(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]sessionView, 0, len(active))
	for i, sess := range active {
		out = append(out, sessionView{ID: i + 1, Username: sess.Username, DeviceID: sess.DeviceID, Started: sess.Started})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "usuarios": out})
}

type logoutRequest struct {
	Username string `json:"username"`
	DeviceID string `json:"deviceId"`
}

func (r logoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.DeviceID, validation.Required),
	)
}

func (s *Server) logoutUser(c *gin.Context) {
	var req logoutRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.deps.Sessions.Logout(c.Request.Context(), req.Username, req.DeviceID); err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info("session closed by admin",
		zap.String("admin", caller(c).Username),
		zap.String("username", req.Username),
		zap.String("device_id", req.DeviceID),
	)
	message(c, fmt.Sprintf("Sesión cerrada para el usuario: %s con deviceId: %s", req.Username, req.DeviceID))
}

// refreshCatalog expires the public snapshot and reloads it.
func (s *Server) refreshCatalog(c *gin.Context) {
	s.deps.Catalog.Invalidate()
	snap, err := s.deps.Catalog.Get(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{
		"products":      snap.Len(),
		"version":       snap.Version,
		"cache_updated": cacheUpdated(snap),
	})
}
