// Package pprof contains a pprof exporter.
package pprof

import (
	"errors"
	"net"
	"net/http"
	"time"

	ginpprof "github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/mediactl/mediactl/internal/auth"
	"github.com/mediactl/mediactl/internal/conf"
	"github.com/mediactl/mediactl/internal/httpp"
	"github.com/mediactl/mediactl/internal/logger"
)

type pprofAuthManager interface {
	Authenticate(req *auth.Request) error
}

// PPROF is a pprof exporter.
type PPROF struct {
	Address        string
	AllowOrigins   []string
	TrustedProxies conf.IPNetworks
	ReadTimeout    conf.Duration
	WriteTimeout   conf.Duration
	AuthManager    pprofAuthManager
	Parent         logger.Writer

	httpServer *httpp.Server
}

// Initialize initializes PPROF.
func (pp *PPROF) Initialize() error {
	router := gin.New()
	router.SetTrustedProxies(pp.TrustedProxies.ToTrustedProxies()) //nolint:errcheck

	router.Use(pp.middlewarePreflightRequests)
	router.Use(pp.middlewareAuth)

	ginpprof.Register(router)

	pp.httpServer = &httpp.Server{
		Address:      pp.Address,
		AllowOrigins: pp.AllowOrigins,
		ReadTimeout:  time.Duration(pp.ReadTimeout),
		// profiles can take longer than a regular request
		WriteTimeout: time.Duration(pp.WriteTimeout) + 60*time.Second,
		Handler:      router,
		Parent:       pp,
	}
	err := pp.httpServer.Initialize()
	if err != nil {
		return err
	}

	pp.Log(logger.Info, "listener opened on "+pp.Address)

	return nil
}

// Close closes PPROF.
func (pp *PPROF) Close() {
	pp.Log(logger.Info, "listener is closing")
	pp.httpServer.Close()
}

// Log implements logger.Writer.
func (pp *PPROF) Log(level logger.Level, format string, args ...any) {
	pp.Parent.Log(level, "[pprof] "+format, args...)
}

func (pp *PPROF) middlewarePreflightRequests(ctx *gin.Context) {
	if ctx.Request.Method == http.MethodOptions &&
		ctx.Request.Header.Get("Access-Control-Request-Method") != "" {
		ctx.Header("Access-Control-Allow-Methods", "OPTIONS, GET")
		ctx.Header("Access-Control-Allow-Headers", "Authorization")
		ctx.AbortWithStatus(http.StatusNoContent)
		return
	}
}

func (pp *PPROF) middlewareAuth(ctx *gin.Context) {
	req := auth.RequestFromHTTP(ctx.Request, net.ParseIP(ctx.ClientIP()), conf.AuthActionPprof)

	err := pp.AuthManager.Authenticate(req)
	if err != nil {
		var terr *auth.Error
		if errors.As(err, &terr) && terr.AskCredentials {
			ctx.Header("WWW-Authenticate", `Basic realm="mediactl"`)
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		pp.Log(logger.Info, "connection %v failed to authenticate: %v", httpp.RemoteAddr(ctx), err)

		// wait some seconds to mitigate brute force attacks
		<-time.After(auth.PauseAfterError)

		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
}
