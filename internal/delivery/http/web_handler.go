package http

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"tradesim/internal/domain"
	"tradesim/internal/middleware"
	"tradesim/internal/usecase"
)

// flashCookieName carries a one-shot status message across a redirect
const flashCookieName = "flash"

// WebHandler renders the HTML surface: portfolio, trading forms, history and
// the login/register pages
type WebHandler struct {
	templates     *template.Template
	accounts      *usecase.AccountService
	trading       *usecase.TradingService
	secureCookies bool
}

// NewWebHandler creates a new WebHandler. secureCookies marks every cookie
// Secure; enable it whenever the app is served over TLS.
func NewWebHandler(templates *template.Template, accounts *usecase.AccountService, trading *usecase.TradingService, secureCookies bool) *WebHandler {
	return &WebHandler{
		templates:     templates,
		accounts:      accounts,
		trading:       trading,
		secureCookies: secureCookies,
	}
}

// GET / - Render the portfolio
func (h *WebHandler) HandleIndex(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}

	portfolio, err := h.trading.Portfolio(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}

	return h.render(c, http.StatusOK, "index", map[string]interface{}{
		"Portfolio": portfolio,
	})
}

// GET /buy - Render the buy form
func (h *WebHandler) HandleBuy(c echo.Context) error {
	return h.render(c, http.StatusOK, "buy", nil)
}

// POST /buy - Execute a purchase
func (h *WebHandler) HandleBuyPost(c echo.Context) error {
	symbol := c.FormValue("symbol")
	shares, err := parseShares(c.FormValue("shares"))
	if err != nil {
		return h.apology(c, http.StatusForbidden, "shares must be a positive integer")
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}

	if _, err := h.trading.Buy(c.Request().Context(), userID, symbol, shares); err != nil {
		return h.fail(c, err)
	}

	h.setFlash(c, "Bought!")
	return c.Redirect(http.StatusSeeOther, "/")
}

// GET /sell - Render the sell form with the user's current symbols
func (h *WebHandler) HandleSell(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}

	symbols, err := h.trading.OwnedSymbols(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}

	return h.render(c, http.StatusOK, "sell", map[string]interface{}{
		"Symbols": symbols,
	})
}

// POST /sell - Execute a sale
func (h *WebHandler) HandleSellPost(c echo.Context) error {
	symbol := c.FormValue("symbol")
	shares, err := parseShares(c.FormValue("shares"))
	if err != nil {
		return h.apology(c, http.StatusForbidden, "shares must be a positive integer")
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}

	if _, err := h.trading.Sell(c.Request().Context(), userID, symbol, shares); err != nil {
		return h.fail(c, err)
	}

	h.setFlash(c, "Sold!")
	return c.Redirect(http.StatusSeeOther, "/")
}

// GET /quote - Render the quote form
func (h *WebHandler) HandleQuote(c echo.Context) error {
	return h.render(c, http.StatusOK, "quote", nil)
}

// POST /quote - Look up a quote and show the result
func (h *WebHandler) HandleQuotePost(c echo.Context) error {
	quote, err := h.trading.Quote(c.Request().Context(), c.FormValue("symbol"))
	if err != nil {
		return h.fail(c, err)
	}

	return h.render(c, http.StatusOK, "quoted", map[string]interface{}{
		"Quote": quote,
	})
}

// GET /history - Render the transaction history
func (h *WebHandler) HandleHistory(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}

	txns, err := h.trading.History(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}

	return h.render(c, http.StatusOK, "history", map[string]interface{}{
		"Transactions": txns,
	})
}

// GET /login - Render the login page
func (h *WebHandler) HandleLogin(c echo.Context) error {
	return h.render(c, http.StatusOK, "login", nil)
}

// POST /login - Handle login form submission
func (h *WebHandler) HandleLoginPost(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.accounts.Authenticate(ctx, c.FormValue("username"), c.FormValue("password"))
	if err != nil {
		return h.fail(c, err)
	}

	session, err := h.accounts.StartSession(ctx, user.ID)
	if err != nil {
		return h.fail(c, err)
	}

	h.setSessionCookie(c, session)
	return c.Redirect(http.StatusSeeOther, "/")
}

// GET /logout - Destroy the session
func (h *WebHandler) HandleLogout(c echo.Context) error {
	if token, err := middleware.GetSessionToken(c); err == nil {
		_ = h.accounts.EndSession(c.Request().Context(), token)
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		MaxAge:   -1, // Delete cookie
	})

	return c.Redirect(http.StatusSeeOther, "/")
}

// GET /register - Render the registration page
func (h *WebHandler) HandleRegister(c echo.Context) error {
	return h.render(c, http.StatusOK, "register", nil)
}

// POST /register - Create an account and log the new user in
func (h *WebHandler) HandleRegisterPost(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.accounts.Register(ctx,
		c.FormValue("username"),
		c.FormValue("password"),
		c.FormValue("confirmation"),
	)
	if err != nil {
		return h.fail(c, err)
	}

	session, err := h.accounts.StartSession(ctx, user.ID)
	if err != nil {
		return h.fail(c, err)
	}

	h.setSessionCookie(c, session)
	h.setFlash(c, "Registered!")
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *WebHandler) setSessionCookie(c echo.Context, session *domain.Session) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
	})
}

func (h *WebHandler) setFlash(c echo.Context, message string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		MaxAge:   60,
	})
}

// popFlash consumes the one-shot message cookie, if any
func (h *WebHandler) popFlash(c echo.Context) string {
	cookie, err := c.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		MaxAge:   -1,
	})

	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}

// fail maps an error to the apology page: user-facing errors render a 403
// with their message, anything else a generic 500 without internals.
func (h *WebHandler) fail(c echo.Context, err error) error {
	for _, userErr := range []error{
		domain.ErrInvalidInput,
		domain.ErrUnknownSymbol,
		domain.ErrInsufficientFunds,
		domain.ErrInsufficientShares,
		domain.ErrInvalidCredentials,
		domain.ErrDuplicateUsername,
		domain.ErrPasswordTooShort,
		domain.ErrPasswordMismatch,
		domain.ErrMissingField,
	} {
		if errors.Is(err, userErr) {
			return h.apology(c, http.StatusForbidden, err.Error())
		}
	}

	slog.Error("request failed", "path", c.Request().URL.Path, "err", err)
	return h.apology(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (h *WebHandler) apology(c echo.Context, status int, message string) error {
	return h.render(c, status, "apology", map[string]interface{}{
		"Code":    status,
		"Message": message,
	})
}

func (h *WebHandler) render(c echo.Context, status int, name string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	if flash := h.popFlash(c); flash != "" {
		data["Flash"] = flash
	}
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template render failed", "template", name, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func parseShares(value string) (int64, error) {
	shares, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if shares <= 0 {
		return 0, errors.New("shares must be positive")
	}
	return shares, nil
}
