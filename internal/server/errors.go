package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/runnerr0/guestbook/internal/auth"
	"github.com/runnerr0/guestbook/internal/guestbook"
	"github.com/runnerr0/guestbook/internal/logger"
	"github.com/runnerr0/guestbook/internal/reconcile"
	"github.com/runnerr0/guestbook/internal/storage"
	"github.com/runnerr0/guestbook/internal/visit"
)

// badRequest is an input error found by the HTTP layer itself.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

// writeError maps an operation error to a status code and a JSON body.
func writeError(c *gin.Context, err error) {
	var (
		verr     *visit.ValidationError
		conflict *reconcile.ConflictError
		serr     *storage.StorageError
		bad      *badRequest
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.As(err, &bad):
		c.JSON(http.StatusBadRequest, gin.H{"error": bad.msg})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error(), "id": conflict.ID})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrLoginDisabled):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrUnauthorized.Error()})
	case errors.Is(err, guestbook.ErrTryAgain):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &serr):
		logger.FromContext(c.Request.Context()).Error("storage error", "op", serr.Op, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
