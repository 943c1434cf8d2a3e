// Package metrics contains the metrics provider.
package metrics

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mediactl/mediactl/internal/auth"
	"github.com/mediactl/mediactl/internal/conf"
	"github.com/mediactl/mediactl/internal/events"
	"github.com/mediactl/mediactl/internal/httpp"
	"github.com/mediactl/mediactl/internal/logger"
	"github.com/mediactl/mediactl/internal/registry"
)

const namespace = "mediactl"

type metricsAuthManager interface {
	Authenticate(req *auth.Request) error
}

type metricsRegistry interface {
	Stats() registry.Stats
}

type metricsDispatcher interface {
	Stats() events.Stats
}

type metricsExternalCmdPool interface {
	Running() int64
}

// Metrics is a metrics provider.
type Metrics struct {
	Address         string
	AllowOrigins    []string
	TrustedProxies  conf.IPNetworks
	ReadTimeout     conf.Duration
	WriteTimeout    conf.Duration
	AuthManager     metricsAuthManager
	Registry        metricsRegistry
	Dispatcher      metricsDispatcher
	ExternalCmdPool metricsExternalCmdPool
	Parent          logger.Writer

	promRegistry *prometheus.Registry
	httpServer   *httpp.Server
}

// Initialize initializes Metrics.
func (m *Metrics) Initialize() error {
	m.promRegistry = prometheus.NewRegistry()

	m.promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if m.Registry != nil {
		m.registerRegistryMetrics()
	}
	if m.Dispatcher != nil {
		m.registerDispatcherMetrics()
	}
	if m.ExternalCmdPool != nil {
		m.promRegistry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hooks_running",
			Help:      "Number of hook commands that have not exited yet.",
		}, func() float64 {
			return float64(m.ExternalCmdPool.Running())
		}))
	}

	router := gin.New()
	router.SetTrustedProxies(m.TrustedProxies.ToTrustedProxies()) //nolint:errcheck

	router.Use(m.middlewarePreflightRequests)
	router.Use(m.middlewareAuth)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.promRegistry, promhttp.HandlerOpts{})))

	m.httpServer = &httpp.Server{
		Address:      m.Address,
		AllowOrigins: m.AllowOrigins,
		ReadTimeout:  time.Duration(m.ReadTimeout),
		WriteTimeout: time.Duration(m.WriteTimeout),
		Handler:      router,
		Parent:       m,
	}
	err := m.httpServer.Initialize()
	if err != nil {
		return err
	}

	m.Log(logger.Info, "listener opened on "+m.Address)

	return nil
}

// Close closes Metrics.
func (m *Metrics) Close() {
	m.Log(logger.Info, "listener is closing")
	m.httpServer.Close()
}

// Log implements logger.Writer.
func (m *Metrics) Log(level logger.Level, format string, args ...any) {
	m.Parent.Log(level, "[metrics] "+format, args...)
}

func (m *Metrics) gauge(name string, help string, fn func() float64) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
}

func (m *Metrics) counter(name string, help string, fn func() float64) prometheus.Collector {
	return prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
}

func (m *Metrics) registerRegistryMetrics() {
	stats := m.Registry.Stats

	m.promRegistry.MustRegister(
		m.gauge("objects", "Number of live objects, pads included.", func() float64 {
			return float64(stats().Objects)
		}),
		m.gauge("pipelines", "Number of live pipelines.", func() float64 {
			return float64(stats().Pipelines)
		}),
		m.gauge("connections", "Number of connections between pads.", func() float64 {
			return float64(stats().Connections)
		}),
		m.gauge("subscriptions", "Number of event subscriptions.", func() float64 {
			return float64(stats().Subscriptions)
		}),
		m.counter("objects_created_total", "Objects created since startup.", func() float64 {
			return float64(stats().Created)
		}),
		m.counter("objects_released_total", "Objects released or removed in cascade since startup.", func() float64 {
			return float64(stats().Released)
		}),
		m.counter("objects_expired_total", "Objects removed by lease expiry since startup.", func() float64 {
			return float64(stats().Expired)
		}),
		m.counter("events_raised_total", "Events raised by objects since startup.", func() float64 {
			return float64(stats().Events)
		}),
	)
}

func (m *Metrics) registerDispatcherMetrics() {
	stats := m.Dispatcher.Stats

	m.promRegistry.MustRegister(
		m.gauge("events_queued", "Events waiting for delivery.", func() float64 {
			return float64(stats().Queued)
		}),
		m.counter("events_delivered_total", "Events delivered to handlers.", func() float64 {
			return float64(stats().Delivered)
		}),
		m.counter("events_failed_total", "Events whose delivery failed.", func() float64 {
			return float64(stats().Failed)
		}),
		m.counter("events_dropped_total", "Events dropped before delivery.", func() float64 {
			return float64(stats().Dropped)
		}),
	)
}

func (m *Metrics) middlewarePreflightRequests(ctx *gin.Context) {
	if ctx.Request.Method == http.MethodOptions &&
		ctx.Request.Header.Get("Access-Control-Request-Method") != "" {
		ctx.Header("Access-Control-Allow-Methods", "OPTIONS, GET")
		ctx.Header("Access-Control-Allow-Headers", "Authorization")
		ctx.AbortWithStatus(http.StatusNoContent)
		return
	}
}

func (m *Metrics) middlewareAuth(ctx *gin.Context) {
	req := auth.RequestFromHTTP(ctx.Request, net.ParseIP(ctx.ClientIP()), conf.AuthActionMetrics)

	err := m.AuthManager.Authenticate(req)
	if err != nil {
		var terr *auth.Error
		if errors.As(err, &terr) && terr.AskCredentials {
			ctx.Header("WWW-Authenticate", `Basic realm="mediactl"`)
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		m.Log(logger.Info, "connection %v failed to authenticate: %v", httpp.RemoteAddr(ctx), err)

		// wait some seconds to delay brute force attacks
		<-time.After(auth.PauseAfterError)

		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
}
