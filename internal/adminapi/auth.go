package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/palengkeplus/palengke/internal/auth"
	"github.com/palengkeplus/palengke/internal/webserver"
	"github.com/palengkeplus/palengke/pkg/metrics"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResult struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id,string"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func registerAuthRoutes() {
	webserver.PubPOST("/login", login)
	webserver.ApiPOST("/logout", logout)
	webserver.ApiGET("/me/permissions", myPermissions)
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login request", nil)
	}

	svc := getApp(c).AuthService()
	u, err := svc.Authenticate(c.Request().Context(), payload.Username, payload.Password)
	if errors.Is(err, auth.ErrAccountDisabled) {
		metrics.CounterIncr(metrics.LoginFailure, 1)
		return fail(c, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled", nil)
	}
	if err != nil {
		metrics.CounterIncr(metrics.LoginFailure, 1)
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	}

	token, _, err := svc.IssueToken(u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue session token", err.Error())
	}
	metrics.CounterIncr(metrics.LoginSuccess, 1)
	return ok(c, loginResult{Token: token, UserID: u.ID, Username: u.Username, Role: u.Role})
}

func logout(c echo.Context) error {
	claims := currentClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required", nil)
	}
	if err := getApp(c).AuthService().Logout(claims.ID, claims.ExpiresAt.Time); err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to revoke session", err.Error())
	}
	return ok(c, map[string]interface{}{"logged_out": true})
}

func myPermissions(c echo.Context) error {
	claims := currentClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required", nil)
	}
	userID, err := claims.UserID()
	if err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required", nil)
	}
	perms, err := getApp(c).AuthService().PermissionsFor(c.Request().Context(), userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resolve permissions", err.Error())
	}
	return ok(c, perms)
}
