package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service"
	"storefront/internal/session"
)

const (
	sessionCookie = "storefront_sid"
	sessionKey    = "session"
	userKey       = "user"
)

// requestLogger logs one line per request through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			slog.Error("HTTP request", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			slog.Warn("HTTP request", attrs...)
		default:
			slog.Info("HTTP request", attrs...)
		}
	}
}

// sessionMiddleware loads the session named by the cookie, creating one when it is
// missing or expired.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *session.Session
		if id, err := c.Cookie(sessionCookie); err == nil && id != "" {
			got, err := s.Sessions.Get(c, id)
			switch {
			case err == nil:
				sess = got
			case !errors.Is(err, session.ErrNotFound):
				abortWithError(c, err)
				return
			}
		}
		if sess == nil {
			sess = session.New()
			if err := s.Sessions.Save(c, sess); err != nil {
				abortWithError(c, err)
				return
			}
			s.setSessionCookie(c, sess)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (s *Server) setSessionCookie(c *gin.Context, sess *session.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, sess.ID, 0, "/", "", s.SecureCookies, true)
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// requireAdmin answers 401 for anonymous sessions and 403 for non-admin users.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := s.Accounts.CurrentUser(c, currentSession(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		if u == nil {
			abortWithError(c, service.ErrUnauthenticated)
			return
		}
		if !u.IsAdmin {
			abortWithError(c, service.ErrForbidden)
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

func currentAdmin(c *gin.Context) *domain.User {
	return c.MustGet(userKey).(*domain.User)
}
