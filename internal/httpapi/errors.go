package httpapi

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-sheet-catalog/internal/legacy"
	"github.com/goliatone/go-sheet-catalog/internal/sessions"
	"github.com/goliatone/go-sheet-catalog/internal/store"
	"github.com/goliatone/go-sheet-catalog/sheetrepo"
)

// ErrValidation marks malformed or incomplete request input.
var ErrValidation = errors.New("httpapi: validation failed")

// invalid wraps err, usually ozzo validation.Errors, as a validation failure.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &validationError{err: err}
}

type validationError struct {
	err error
}

func (e *validationError) Error() string { return e.err.Error() }
func (e *validationError) Unwrap() []error {
	return []error{ErrValidation, e.err}
}

// status maps a service error to its HTTP status and public message.
func status(err error) (int, string) {
	var verrs validation.Errors
	switch {
	case errors.Is(err, ErrValidation), errors.As(err, &verrs):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, sheetrepo.ErrRecordNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Registro no encontrado"
	case errors.Is(err, store.ErrConflict), errors.Is(err, legacy.ErrUserExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, store.ErrInvalidReference):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, legacy.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Usuario o contraseña incorrectos"
	case errors.Is(err, legacy.ErrWrongPassword):
		return http.StatusBadRequest, "Contraseña actual incorrecta"
	case errors.Is(err, sessions.ErrDeviceLimit):
		return http.StatusForbidden, "Máximo de dispositivos alcanzado para este usuario."
	case errors.Is(err, sheetrepo.ErrSchemaMismatch):
		return http.StatusInternalServerError, "La hoja no tiene el formato esperado"
	case errors.Is(err, sheetrepo.ErrBackendUnavailable):
		return http.StatusInternalServerError, "Fuente de datos no disponible"
	default:
		return http.StatusInternalServerError, "Error interno del servidor"
	}
}

// fail writes the error envelope and logs server side failures.
func (s *Server) fail(c *gin.Context, err error) {
	code, msg := status(err)
	body := gin.H{"success": false, "message": msg}
	if errors.Is(err, sessions.ErrDeviceLimit) {
		body["showModal"] = true
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(code, body)
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

func message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}
