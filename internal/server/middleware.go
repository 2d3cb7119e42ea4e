package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/runnerr0/guestbook/internal/auth"
	"github.com/runnerr0/guestbook/internal/logger"
)

const (
	headerRequestID = "X-Request-ID"
	sessionKey      = "session"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.HTTPLog(c.Request.Context(), c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// cors allows a browser UI served from origin to call the API with
// credentials. An empty origin disables the headers.
func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin == "" {
			c.Next()
			return
		}
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authRequired accepts a session token from the session cookie or an
// Authorization bearer header.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.cookie)
		if err != nil || token == "" {
			token = strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		}
		if token == "" {
			writeError(c, auth.ErrUnauthorized)
			c.Abort()
			return
		}

		sess, err := s.auth.Verify(token)
		if err != nil {
			logger.FromContext(c.Request.Context()).Debug("rejected admin token", "error", err.Error())
			writeError(c, err)
			c.Abort()
			return
		}

		c.Set(sessionKey, sess)
		c.Request = c.Request.WithContext(logger.WithAdmin(c.Request.Context(), sess.Username))
		c.Next()
	}
}

func session(c *gin.Context) *auth.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*auth.Session); ok {
			return sess
		}
	}
	return nil
}
