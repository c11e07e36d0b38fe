package adminapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palengkeplus/palengke/internal/auth"
	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/webserver"
)

func newAPIContext(t *testing.T, claims *auth.Claims) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/users/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set(webserver.ClaimsContextKey, claims)
	}
	return c, rec
}

func cashierClaims(userID string) *auth.Claims {
	return &auth.Claims{
		Username: "maria",
		Role:     domain.RoleCashier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
		},
	}
}

func TestAuthorizeAdminRejectsCashierRole(t *testing.T) {
	c, rec := newAPIContext(t, cashierClaims("7"))

	id, err := authorizeAdmin(c)

	// The denial must come back as a real error, not just a written 403,
	// or every caller's guard passes and the privileged body runs.
	require.ErrorIs(t, err, errAuthDenied)
	assert.Zero(t, id)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "PERMISSION_DENIED")
}

func TestAuthorizeAdminRequiresClaims(t *testing.T) {
	c, rec := newAPIContext(t, nil)

	_, err := authorizeAdmin(c)
	require.ErrorIs(t, err, errAuthDenied)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorizeAdminAcceptsAdminRole(t *testing.T) {
	claims := cashierClaims("3")
	claims.Role = domain.RoleAdmin
	c, rec := newAPIContext(t, claims)

	id, err := authorizeAdmin(c)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestAuthorizeRequiresClaims(t *testing.T) {
	c, rec := newAPIContext(t, nil)

	_, err := authorize(c, domain.PermAddProducts)
	require.ErrorIs(t, err, errAuthDenied)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAuthorizeRejectsMalformedSubject(t *testing.T) {
	c, rec := newAPIContext(t, cashierClaims("not-a-number"))

	_, err := authorize(c, domain.PermAddProducts)
	require.ErrorIs(t, err, errAuthDenied)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// A denied mutation must unwind before the handler body touches storage.
// The context here carries no database handle, so reaching the body would
// panic instead of returning cleanly.
func TestDeniedMutationStopsBeforeHandlerBody(t *testing.T) {
	c, rec := newAPIContext(t, cashierClaims("7"))
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := deleteUser(c)
	require.ErrorIs(t, err, errAuthDenied)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
