package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/palengkeplus/palengke/internal/auth"
	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/store"
	"github.com/palengkeplus/palengke/internal/webserver"
	"github.com/palengkeplus/palengke/pkg/common"
)

func registerUserRoutes() {
	webserver.ApiGET("/users", listUsers)
	webserver.ApiGET("/users/:id", getUser)
	webserver.ApiPOST("/users", createUser)
	webserver.ApiPUT("/users/:id", updateUser)
	webserver.ApiDELETE("/users/:id", deleteUser)
	webserver.ApiGET("/users/:id/permissions", getUserPermissions)
	webserver.ApiPUT("/users/:id/permissions", replaceUserPermissions)
}

func listUsers(c echo.Context) error {
	if _, err := authorizeAdmin(c); err != nil {
		return err
	}
	page, pageSize := parsePagination(c)
	rows, total, err := store.NewUserRepository(getDB(c)).List(c.Request().Context(), page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getUser(c echo.Context) error {
	if _, err := authorizeAdmin(c); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	u, err := store.NewUserRepository(getDB(c)).GetByID(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}
	return ok(c, u)
}

type createUserPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func createUser(c echo.Context) error {
	if _, err := authorizeAdmin(c); err != nil {
		return err
	}
	var payload createUserPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse user", nil)
	}
	u, err := getApp(c).AuthService().Register(c.Request().Context(), payload.Username, payload.Email, payload.Password)
	if errors.Is(err, auth.ErrDuplicateUser) {
		return fail(c, http.StatusConflict, "DUPLICATE_USER", "Username or email already exists", nil)
	}
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username, email and a password of at least 6 characters are required", nil)
	}
	return ok(c, u)
}

type updateUserPayload struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
	Remark string `json:"remark"`
}

func updateUser(c echo.Context) error {
	callerID, err := authorizeAdmin(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var payload updateUserPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse user", nil)
	}

	repo := store.NewUserRepository(getDB(c))
	ctx := c.Request().Context()
	u, err := repo.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}

	if payload.Email != "" {
		u.Email = strings.TrimSpace(payload.Email)
	}
	if payload.Role != "" {
		if payload.Role != domain.RoleAdmin && payload.Role != domain.RoleCashier {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Role must be admin or cashier", nil)
		}
		if u.ID == callerID && payload.Role != domain.RoleAdmin {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Cannot demote your own account", nil)
		}
		u.Role = payload.Role
	}
	if payload.Status != "" {
		if payload.Status != common.ENABLED && payload.Status != common.DISABLED {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Status must be enabled or disabled", nil)
		}
		u.Status = payload.Status
	}
	if payload.Remark != "" {
		u.Remark = payload.Remark
	}
	u.UpdatedAt = time.Now()

	if err := repo.Update(ctx, u); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user", err.Error())
	}
	return ok(c, u)
}

func deleteUser(c echo.Context) error {
	callerID, err := authorizeAdmin(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	if id == callerID {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Cannot delete your own account", nil)
	}
	err = store.NewUserRepository(getDB(c)).Delete(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete user", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}

func getUserPermissions(c echo.Context) error {
	if _, err := authorizeAdmin(c); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	perms, err := getApp(c).AuthService().PermissionsFor(c.Request().Context(), id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query permissions", err.Error())
	}
	return ok(c, map[string]interface{}{
		"granted":   perms,
		"available": domain.AllPermissions,
	})
}

type permissionsPayload struct {
	Permissions []string `json:"permissions"`
}

func replaceUserPermissions(c echo.Context) error {
	if _, err := authorizeAdmin(c); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var payload permissionsPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse permissions", nil)
	}
	for _, name := range payload.Permissions {
		if !domain.ValidPermission(name) {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown permission: "+name, nil)
		}
	}

	repo := store.NewUserRepository(getDB(c))
	ctx := c.Request().Context()
	if _, err := repo.GetByID(ctx, id); errors.Is(err, store.ErrNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}
	if err := repo.ReplacePermissions(ctx, id, payload.Permissions); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update permissions", err.Error())
	}
	return ok(c, map[string]interface{}{"user_id": id, "permissions": payload.Permissions})
}
