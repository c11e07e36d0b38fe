package webserver

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/palengkeplus/palengke/internal/app"
	"github.com/palengkeplus/palengke/internal/auth"
)

const (
	dbContextKey  = "palengke_db"
	appContextKey = "palengke_app"

	// ClaimsContextKey is where the JWT middleware stores verified claims.
	ClaimsContextKey = "palengke_claims"
)

var server *WebServer

type WebServer struct {
	root *echo.Echo
	api  *echo.Group
	pub  *echo.Group
	app  *app.Application
}

// Init builds the echo server: public routes under /api (login), JWT
// protected routes under /api as well via group middleware.
func Init(application *app.Application) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsoniterSerializer{}
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(dbContextKey, application.DB())
			c.Set(appContextKey, application)
			return next(c)
		}
	})

	pub := e.Group("/api")
	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		ContextKey: ClaimsContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return application.AuthService().ParseToken(token)
		},
	}))

	server = &WebServer{root: e, api: api, pub: pub, app: application}
	return server
}

// Listen blocks serving HTTP until the listener fails or is closed.
func (ws *WebServer) Listen() error {
	cfg := ws.app.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.L().Info("web server listening", zap.String("addr", addr))
	return ws.root.Start(addr)
}

func (ws *WebServer) Shutdown() error {
	return ws.root.Close()
}

// Echo exposes the root engine (used in tests).
func (ws *WebServer) Echo() *echo.Echo {
	return ws.root
}

// Route registration helpers mirror HTTP verbs on the protected group.

func ApiGET(path string, h echo.HandlerFunc)    { server.api.GET(path, h) }
func ApiPOST(path string, h echo.HandlerFunc)   { server.api.POST(path, h) }
func ApiPUT(path string, h echo.HandlerFunc)    { server.api.PUT(path, h) }
func ApiDELETE(path string, h echo.HandlerFunc) { server.api.DELETE(path, h) }

// PubPOST registers an unauthenticated route (login only).
func PubPOST(path string, h echo.HandlerFunc) { server.pub.POST(path, h) }

// GetDB returns the request-scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	return c.Get(dbContextKey).(*gorm.DB)
}

// GetApp returns the application container.
func GetApp(c echo.Context) *app.Application {
	return c.Get(appContextKey).(*app.Application)
}

// CurrentClaims returns the verified JWT claims, nil on public routes.
func CurrentClaims(c echo.Context) *auth.Claims {
	v := c.Get(ClaimsContextKey)
	if v == nil {
		return nil
	}
	claims, okc := v.(*auth.Claims)
	if !okc {
		return nil
	}
	return claims
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Status >= http.StatusInternalServerError {
				zap.L().Error("http request",
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status))
			} else if !strings.HasPrefix(v.URI, "/health") {
				zap.L().Debug("http request",
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status))
			}
			return nil
		},
	})
}

type jsoniterSerializer struct{}

func (jsoniterSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsoniterSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(c.Request().Body).Decode(i)
	if err == io.EOF {
		return echo.NewHTTPError(http.StatusBadRequest, "empty request body")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed json")
	}
	return nil
}
