package adminapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/palengkeplus/palengke/internal/app"
	"github.com/palengkeplus/palengke/internal/auth"
	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/webserver"
)

type apiEnvelope struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type pagedEnvelope struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, apiEnvelope{Success: true, Data: data})
}

// fail renders a safe error body. detail is operator-facing only: it goes
// to the log and never into the response.
func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	if detail != nil {
		zap.L().Error("api error",
			zap.String("code", code),
			zap.String("uri", c.Request().RequestURI),
			zap.Any("detail", detail))
	}
	return c.JSON(status, apiEnvelope{Success: false, Code: code, Message: msg})
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, pagedEnvelope{
		Success:  true,
		Data:     rows,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	} else if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func getApp(c echo.Context) *app.Application {
	return webserver.GetApp(c)
}

func getDB(c echo.Context) *gorm.DB {
	return webserver.GetDB(c)
}

func currentClaims(c echo.Context) *auth.Claims {
	return webserver.CurrentClaims(c)
}

// errAuthDenied marks an authorization failure whose response is already
// written. Handlers return it so the privileged body never runs; echo's
// error handler sees the committed response and writes nothing more.
var errAuthDenied = errors.New("adminapi: authorization denied")

// denied writes the failure envelope and returns errAuthDenied. fail's
// own return value is nil whenever the JSON writes cleanly, so it cannot
// serve as the unwind signal.
func denied(c echo.Context, status int, code, msg string, detail interface{}) error {
	if err := fail(c, status, code, msg, detail); err != nil {
		zap.L().Error("failed to write auth failure response", zap.Error(err))
	}
	return errAuthDenied
}

// authorize resolves the caller and checks one permission. On failure the
// response is already written and the returned error unwinds the handler.
func authorize(c echo.Context, perm string) (int64, error) {
	claims := currentClaims(c)
	if claims == nil {
		return 0, denied(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required", nil)
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, denied(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required", err.Error())
	}
	allowed, err := getApp(c).AuthService().HasPermission(c.Request().Context(), userID, perm)
	if err != nil {
		return 0, denied(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resolve permissions", err.Error())
	}
	if !allowed {
		return 0, denied(c, http.StatusForbidden, "PERMISSION_DENIED", "You do not have permission for this action", nil)
	}
	return userID, nil
}

// authorizeAdmin requires the admin role, for user management surfaces.
func authorizeAdmin(c echo.Context) (int64, error) {
	claims := currentClaims(c)
	if claims == nil {
		return 0, denied(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required", nil)
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, denied(c, http.StatusUnauthorized, "UNAUTHORIZED", "Login required", err.Error())
	}
	if claims.Role != domain.RoleAdmin {
		return 0, denied(c, http.StatusForbidden, "PERMISSION_DENIED", "Administrator role required", nil)
	}
	return userID, nil
}
