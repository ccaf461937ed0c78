package middleware

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tradesim/internal/domain"
)

// SessionCookieName is the cookie carrying the opaque session token
const SessionCookieName = "session"

// SessionAuth resolves the session cookie against the session store and sets
// user_id and session_token in the request context. Requests without a live
// session are redirected to the login page.
func SessionAuth(sessions domain.SessionRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return c.Redirect(http.StatusFound, "/login")
			}

			token, err := uuid.Parse(cookie.Value)
			if err != nil {
				return c.Redirect(http.StatusFound, "/login")
			}

			session, err := sessions.GetByToken(c.Request().Context(), token)
			if err != nil {
				return c.Redirect(http.StatusFound, "/login")
			}

			c.Set("user_id", session.UserID)
			c.Set("session_token", session.Token)

			return next(c)
		}
	}
}

// GetUserID extracts the authenticated user ID from echo context
func GetUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("user_id not found in context")
	}
	return userID, nil
}

// GetSessionToken extracts the session token from echo context
func GetSessionToken(c echo.Context) (uuid.UUID, error) {
	token, ok := c.Get("session_token").(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("session_token not found in context")
	}
	return token, nil
}
