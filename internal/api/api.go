// Package api contains the API server.
package api //nolint:revive

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediactl/mediactl/internal/auth"
	"github.com/mediactl/mediactl/internal/conf"
	"github.com/mediactl/mediactl/internal/conf/jsonwrapper"
	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/httpp"
	"github.com/mediactl/mediactl/internal/logger"
	"github.com/mediactl/mediactl/internal/mediaserver"
	"github.com/mediactl/mediactl/internal/registry"
)

type apiAuthManager interface {
	Authenticate(req *auth.Request) error
	RefreshJWTJWKS()
}

type apiRegistry interface {
	List() []*registry.ObjectInfo
}

// API is an API server.
type API struct {
	Started        time.Time
	Address        string
	AllowOrigins   []string
	TrustedProxies conf.IPNetworks
	ReadTimeout    conf.Duration
	WriteTimeout   conf.Duration
	MaxBodySize    conf.StringSize
	AuthManager    apiAuthManager
	Handler        *mediaserver.Handler
	Registry       apiRegistry
	Parent         logger.Writer

	httpServer *httpp.Server
}

// Initialize initializes API.
func (a *API) Initialize() error {
	router := gin.New()
	router.SetTrustedProxies(a.TrustedProxies.ToTrustedProxies()) //nolint:errcheck

	router.Use(a.middlewarePreflightRequests)
	router.Use(a.middlewareAuth)
	router.Use(a.middlewareMaxBodySize)

	group := router.Group("/v1")

	group.GET("/info", a.onInfo)

	group.POST("/auth/jwks/refresh", a.onAuthJwksRefresh)

	group.GET("/objects/list", a.onObjectsList)

	group.POST("/pipelines/create", a.onPipelinesCreate)
	group.POST("/elements/create", a.onElementsCreate)
	group.POST("/mixers/create", a.onMixersCreate)
	group.POST("/mixerendpoints/create", a.onMixerEndPointsCreate)

	group.POST("/objects/keepalive", a.onObjectsKeepAlive)
	group.POST("/objects/release", a.onObjectsRelease)
	group.POST("/objects/parent", a.onObjectsParent)
	group.POST("/objects/pipeline", a.onObjectsPipeline)
	group.POST("/objects/command", a.onObjectsCommand)

	group.POST("/pads/connect", a.onPadsConnect)
	group.POST("/pads/disconnect", a.onPadsDisconnect)
	group.POST("/pads/connectedsinks", a.onPadsConnectedSinks)
	group.POST("/pads/connectedsrc", a.onPadsConnectedSrc)
	group.POST("/pads/element", a.onPadsElement)
	group.POST("/elements/srcs", a.onElementsSrcs)
	group.POST("/elements/sinks", a.onElementsSinks)

	group.POST("/events/subscribe", a.onEventsSubscribe)
	group.POST("/events/unsubscribe", a.onEventsUnsubscribe)
	group.POST("/errors/subscribe", a.onErrorsSubscribe)
	group.POST("/errors/unsubscribe", a.onErrorsUnsubscribe)

	a.httpServer = &httpp.Server{
		Address:      a.Address,
		AllowOrigins: a.AllowOrigins,
		ReadTimeout:  time.Duration(a.ReadTimeout),
		WriteTimeout: time.Duration(a.WriteTimeout),
		Handler:      router,
		Parent:       a,
	}
	err := a.httpServer.Initialize()
	if err != nil {
		return err
	}

	a.Log(logger.Info, "listener opened on "+a.Address)

	return nil
}

// Close closes the API.
func (a *API) Close() {
	a.Log(logger.Info, "listener is closing")
	a.httpServer.Close()
}

// Log implements logger.Writer.
func (a *API) Log(level logger.Level, format string, args ...any) {
	a.Parent.Log(level, "[API] "+format, args...)
}

func statusOf(code defs.ErrorCode) int {
	switch code {
	case defs.ErrorCodeNotFound:
		return http.StatusNotFound

	case defs.ErrorCodeTypeMismatch,
		defs.ErrorCodeInvalidMediaType,
		defs.ErrorCodeUnsupportedType,
		defs.ErrorCodeUnsupportedOperation,
		defs.ErrorCodeUnsupportedCommand:
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

func (a *API) writeError(ctx *gin.Context, status int, err error) {
	// show error in logs
	a.Log(logger.Error, err.Error())

	// add error to response
	ctx.JSON(status, &defs.APIError{
		Status: "error",
		Error:  err.Error(),
	})
}

// writeOpError writes an error returned by an operation, together with its code.
func (a *API) writeOpError(ctx *gin.Context, err error) {
	code := defs.CodeOf(err)

	// client mistakes are not worth more than a debug line
	level := logger.Debug
	if code == defs.ErrorCodeUnexpected || code == defs.ErrorCodeCommandExecution {
		level = logger.Error
	}
	a.Log(level, err.Error())

	ctx.JSON(statusOf(code), &defs.APIError{
		Status: "error",
		Code:   code.String(),
		Error:  err.Error(),
	})
}

func (a *API) writeOK(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, &defs.APIOK{Status: "ok"})
}

// decodeBody decodes the request body into dest, writing an error when it fails.
func (a *API) decodeBody(ctx *gin.Context, dest any) bool {
	err := jsonwrapper.Decode(ctx.Request.Body, dest)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			a.writeError(ctx, http.StatusRequestEntityTooLarge, err)
			return false
		}

		a.writeError(ctx, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (a *API) middlewarePreflightRequests(ctx *gin.Context) {
	if ctx.Request.Method == http.MethodOptions &&
		ctx.Request.Header.Get("Access-Control-Request-Method") != "" {
		ctx.Header("Access-Control-Allow-Methods", "OPTIONS, GET, POST")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		ctx.AbortWithStatus(http.StatusNoContent)
		return
	}
}

func (a *API) middlewareAuth(ctx *gin.Context) {
	req := auth.RequestFromHTTP(ctx.Request, net.ParseIP(ctx.ClientIP()), conf.AuthActionAPI)

	err := a.AuthManager.Authenticate(req)
	if err != nil {
		var terr *auth.Error
		if errors.As(err, &terr) && terr.AskCredentials {
			ctx.Header("WWW-Authenticate", `Basic realm="mediactl"`)
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, &defs.APIError{
				Status: "error",
				Error:  "authentication error",
			})
			return
		}

		a.Log(logger.Info, "connection %v failed to authenticate: %v", httpp.RemoteAddr(ctx), err)

		// wait some seconds to delay brute force attacks
		<-time.After(auth.PauseAfterError)

		ctx.AbortWithStatusJSON(http.StatusUnauthorized, &defs.APIError{
			Status: "error",
			Error:  "authentication error",
		})
		return
	}
}

func (a *API) middlewareMaxBodySize(ctx *gin.Context) {
	if a.MaxBodySize != 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, int64(a.MaxBodySize))
	}
}

func (a *API) onInfo(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, &defs.APIInfo{
		Version: a.Handler.GetVersion(),
		Started: a.Started,
	})
}

func (a *API) onAuthJwksRefresh(ctx *gin.Context) {
	a.AuthManager.RefreshJWTJWKS()
	a.writeOK(ctx)
}

func (a *API) onObjectsList(ctx *gin.Context) {
	infos := a.Registry.List()

	items := make([]*defs.APIObject, len(infos))
	for i, info := range infos {
		items[i] = objectOf(info)
	}

	page, pageCount, err := paginate(items, ctx.Query("itemsPerPage"), ctx.Query("page"))
	if err != nil {
		a.writeError(ctx, http.StatusBadRequest, err)
		return
	}

	ctx.JSON(http.StatusOK, &defs.APIObjectList{
		ItemCount: len(items),
		PageCount: pageCount,
		Items:     page,
	})
}
