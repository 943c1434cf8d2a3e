// Package core contains the main struct of the software.
package core

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"

	"github.com/mediactl/mediactl/internal/api"
	"github.com/mediactl/mediactl/internal/auth"
	"github.com/mediactl/mediactl/internal/backend"
	"github.com/mediactl/mediactl/internal/conf"
	"github.com/mediactl/mediactl/internal/confwatcher"
	"github.com/mediactl/mediactl/internal/events"
	"github.com/mediactl/mediactl/internal/externalcmd"
	"github.com/mediactl/mediactl/internal/hooks"
	"github.com/mediactl/mediactl/internal/logger"
	"github.com/mediactl/mediactl/internal/mediaserver"
	"github.com/mediactl/mediactl/internal/metrics"
	"github.com/mediactl/mediactl/internal/pprof"
	"github.com/mediactl/mediactl/internal/registry"
	"github.com/mediactl/mediactl/internal/rlimit"
)

var version = "v0.0.0"

var defaultConfPaths = []string{
	"mediactl.yml",
	"/usr/local/etc/mediactl.yml",
	"/usr/etc/mediactl.yml",
	"/etc/mediactl/mediactl.yml",
}

var cli struct {
	Version  bool   `help:"print version"`
	Confpath string `arg:"" default:""`
}

// Core is an instance of mediactl.
type Core struct {
	ctx             context.Context
	ctxCancel       func()
	confPath        string
	conf            *conf.Conf
	started         time.Time
	loggerMutex     sync.RWMutex
	logger          *logger.Logger
	externalCmdPool *externalcmd.Pool
	authManager     *auth.Manager
	factory         *backend.Factory
	dispatcherMutex sync.RWMutex
	dispatcher      *events.Dispatcher
	registry        *registry.Registry
	handler         *mediaserver.Handler
	api             *api.API
	metrics         *metrics.Metrics
	pprof           *pprof.PPROF
	confWatcher     *confwatcher.ConfWatcher

	// hook commands are read by registry callbacks, outside of the run loop
	hooksConf atomic.Pointer[conf.Conf]

	// out
	done chan struct{}
}

// New allocates a Core.
func New(args []string) (*Core, bool) {
	parser, err := kong.New(&cli,
		kong.Description("mediactl "+version),
		kong.UsageOnError(),
		kong.ValueFormatter(func(value *kong.Value) string {
			switch value.Name {
			case "confpath":
				return "path to a config file. The default is mediactl.yml."

			default:
				return kong.DefaultHelpValueFormatter(value)
			}
		}))
	if err != nil {
		panic(err)
	}

	_, err = parser.Parse(args)
	parser.FatalIfErrorf(err)

	if cli.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	p := &Core{
		ctx:       ctx,
		ctxCancel: ctxCancel,
		started:   time.Now(),
		done:      make(chan struct{}),
	}

	p.conf, p.confPath, err = conf.Load(cli.Confpath, defaultConfPaths)
	if err != nil {
		fmt.Printf("ERR: %s\n", err)
		return nil, false
	}

	err = p.createResources(true)
	if err != nil {
		if p.logger != nil {
			p.Log(logger.Error, "%s", err)
		} else {
			fmt.Printf("ERR: %s\n", err)
		}
		p.closeResources(nil)
		return nil, false
	}

	go p.run()

	return p, true
}

// Close closes Core and waits for all goroutines to return.
func (p *Core) Close() {
	p.ctxCancel()
	<-p.done
}

// Wait waits for the Core to exit.
func (p *Core) Wait() {
	<-p.done
}

// Log implements logger.Writer.
func (p *Core) Log(level logger.Level, format string, args ...any) {
	p.loggerMutex.RLock()
	defer p.loggerMutex.RUnlock()

	if p.logger != nil {
		p.logger.Log(level, format, args...)
	}
}

// Deliver implements registry.EventDeliverer.
// Events are forwarded to the current dispatcher, which changes on reload.
func (p *Core) Deliver(address string, port int32, evt *registry.Event) {
	p.dispatcherMutex.RLock()
	defer p.dispatcherMutex.RUnlock()

	if p.dispatcher != nil {
		p.dispatcher.Deliver(address, port, evt)
	}
}

func (p *Core) onObjectCreate(info *registry.ObjectInfo) {
	hooks.OnCreate(hooks.OnCreateParams{
		Logger:          p,
		ExternalCmdPool: p.externalCmdPool,
		RunOnCreate:     p.hooksConf.Load().RunOnCreate,
		Info:            info,
	})
}

func (p *Core) onObjectRemove(info *registry.ObjectInfo, reason registry.RemoveReason) {
	hooks.OnRelease(hooks.OnReleaseParams{
		Logger:          p,
		ExternalCmdPool: p.externalCmdPool,
		RunOnRelease:    p.hooksConf.Load().RunOnRelease,
		Info:            info,
		Reason:          reason,
	})
}

func (p *Core) run() {
	defer close(p.done)

	confChanged := func() chan struct{} {
		if p.confWatcher != nil {
			return p.confWatcher.Watch()
		}
		return make(chan struct{})
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

outer:
	for {
		select {
		case _, ok := <-confChanged:
			if !ok {
				p.Log(logger.Warn, "configuration file is not watched anymore")
				confChanged = nil
				continue
			}

			p.Log(logger.Info, "reloading configuration (file changed)")

			newConf, _, err := conf.Load(p.confPath, nil)
			if err != nil {
				p.Log(logger.Error, "%s", err)
				break outer
			}

			err = p.reloadConf(newConf)
			if err != nil {
				p.Log(logger.Error, "%s", err)
				break outer
			}

		case <-interrupt:
			p.Log(logger.Info, "shutting down gracefully")
			break outer

		case <-p.ctx.Done():
			break outer
		}
	}

	p.ctxCancel()

	p.closeResources(nil)
}

func (p *Core) createResources(initial bool) error {
	if p.logger == nil {
		l := &logger.Logger{
			Level:        logger.Level(p.conf.LogLevel),
			Destinations: p.conf.LogDestinations,
			Structured:   p.conf.LogStructured,
			File:         p.conf.LogFile,
			SysLogPrefix: p.conf.SysLogPrefix,
		}
		err := l.Initialize()
		if err != nil {
			return err
		}

		p.loggerMutex.Lock()
		p.logger = l
		p.loggerMutex.Unlock()
	}

	if initial {
		p.Log(logger.Info, "mediactl %s", version)

		if p.confPath == "" {
			p.Log(logger.Warn, "configuration file not found, using an empty configuration")
		}

		// do not check for errors
		rlimit.Raise() //nolint:errcheck

		gin.SetMode(gin.ReleaseMode)

		p.externalCmdPool = &externalcmd.Pool{}
		p.externalCmdPool.Initialize()
	}

	p.hooksConf.Store(p.conf)

	if p.authManager == nil {
		p.authManager = &auth.Manager{
			Method:        p.conf.AuthMethod,
			InternalUsers: p.conf.AuthInternalUsers,
			JWTJWKS:       p.conf.AuthJWTJWKS,
			JWTClaimKey:   p.conf.AuthJWTClaimKey,
			ReadTimeout:   time.Duration(p.conf.ReadTimeout),
		}
	}

	if p.factory == nil {
		p.factory = &backend.Factory{
			ElementTypes: p.conf.ElementTypes,
			MixerTypes:   p.conf.MixerTypes,
			Parent:       p,
		}
		p.factory.Initialize()
	}

	if p.dispatcher == nil {
		d := &events.Dispatcher{
			Transport:      string(p.conf.EventTransport),
			QueueSize:      p.conf.EventQueueSize,
			Timeout:        time.Duration(p.conf.EventTimeout),
			Workers:        p.conf.EventWorkers,
			MaxPayloadSize: uint64(p.conf.EventMaxPayloadSize),
			Parent:         p,
		}
		err := d.Initialize()
		if err != nil {
			return err
		}

		p.dispatcherMutex.Lock()
		p.dispatcher = d
		p.dispatcherMutex.Unlock()
	}

	if p.registry == nil {
		p.registry = &registry.Registry{
			TTL:           time.Duration(p.conf.ObjectTTL),
			SweepInterval: time.Duration(p.conf.SweepInterval),
			Deliverer:     p,
			OnCreate:      p.onObjectCreate,
			OnRemove:      p.onObjectRemove,
			Parent:        p,
		}
		p.registry.Initialize()
	}

	if p.handler == nil {
		p.handler = &mediaserver.Handler{
			Version:  version,
			Registry: p.registry,
			Factory:  p.factory,
			Parent:   p,
		}
	}

	if p.conf.API &&
		p.api == nil {
		i := &api.API{
			Started:        p.started,
			Address:        p.conf.APIAddress,
			AllowOrigins:   p.conf.APIAllowOrigins,
			TrustedProxies: p.conf.APITrustedProxies,
			ReadTimeout:    p.conf.ReadTimeout,
			WriteTimeout:   p.conf.WriteTimeout,
			MaxBodySize:    p.conf.APIMaxBodySize,
			AuthManager:    p.authManager,
			Handler:        p.handler,
			Registry:       p.registry,
			Parent:         p,
		}
		err := i.Initialize()
		if err != nil {
			return err
		}
		p.api = i
	}

	if p.conf.Metrics &&
		p.metrics == nil {
		i := &metrics.Metrics{
			Address:         p.conf.MetricsAddress,
			AllowOrigins:    p.conf.MetricsAllowOrigins,
			TrustedProxies:  p.conf.MetricsTrustedProxies,
			ReadTimeout:     p.conf.ReadTimeout,
			WriteTimeout:    p.conf.WriteTimeout,
			AuthManager:     p.authManager,
			Registry:        p.registry,
			Dispatcher:      p.dispatcher,
			ExternalCmdPool: p.externalCmdPool,
			Parent:          p,
		}
		err := i.Initialize()
		if err != nil {
			return err
		}
		p.metrics = i
	}

	if p.conf.PPROF &&
		p.pprof == nil {
		i := &pprof.PPROF{
			Address:        p.conf.PPROFAddress,
			AllowOrigins:   p.conf.PPROFAllowOrigins,
			TrustedProxies: p.conf.PPROFTrustedProxies,
			ReadTimeout:    p.conf.ReadTimeout,
			WriteTimeout:   p.conf.WriteTimeout,
			AuthManager:    p.authManager,
			Parent:         p,
		}
		err := i.Initialize()
		if err != nil {
			return err
		}
		p.pprof = i
	}

	if initial && p.confPath != "" {
		cf := &confwatcher.ConfWatcher{FilePath: p.confPath}
		err := cf.Initialize()
		if err != nil {
			return err
		}
		p.confWatcher = cf
	}

	return nil
}

func (p *Core) closeResources(newConf *conf.Conf) {
	closeLogger := newConf == nil ||
		newConf.LogLevel != p.conf.LogLevel ||
		!reflect.DeepEqual(newConf.LogDestinations, p.conf.LogDestinations) ||
		newConf.LogStructured != p.conf.LogStructured ||
		newConf.LogFile != p.conf.LogFile ||
		newConf.SysLogPrefix != p.conf.SysLogPrefix

	closeAuthManager := newConf == nil ||
		newConf.AuthMethod != p.conf.AuthMethod ||
		newConf.AuthJWTJWKS != p.conf.AuthJWTJWKS ||
		newConf.AuthJWTClaimKey != p.conf.AuthJWTClaimKey ||
		newConf.ReadTimeout != p.conf.ReadTimeout
	if !closeAuthManager && !reflect.DeepEqual(newConf.AuthInternalUsers, p.conf.AuthInternalUsers) {
		p.authManager.ReloadInternalUsers(newConf.AuthInternalUsers)
	}

	closeFactory := newConf == nil ||
		!reflect.DeepEqual(newConf.ElementTypes, p.conf.ElementTypes) ||
		!reflect.DeepEqual(newConf.MixerTypes, p.conf.MixerTypes)

	closeDispatcher := newConf == nil ||
		newConf.EventTransport != p.conf.EventTransport ||
		newConf.EventQueueSize != p.conf.EventQueueSize ||
		newConf.EventWorkers != p.conf.EventWorkers ||
		newConf.EventTimeout != p.conf.EventTimeout ||
		newConf.EventMaxPayloadSize != p.conf.EventMaxPayloadSize

	// objects survive reloads: only their lease duration can change.
	closeRegistry := newConf == nil
	if !closeRegistry && newConf.ObjectTTL != p.conf.ObjectTTL {
		p.registry.SetTTL(time.Duration(newConf.ObjectTTL))
	}
	if !closeRegistry && newConf.SweepInterval != p.conf.SweepInterval {
		p.Log(logger.Warn, "sweepInterval changes take effect after a restart")
	}

	closeHandler := newConf == nil ||
		closeFactory ||
		closeRegistry

	closeAPI := newConf == nil ||
		newConf.API != p.conf.API ||
		newConf.APIAddress != p.conf.APIAddress ||
		!reflect.DeepEqual(newConf.APIAllowOrigins, p.conf.APIAllowOrigins) ||
		!reflect.DeepEqual(newConf.APITrustedProxies, p.conf.APITrustedProxies) ||
		newConf.APIMaxBodySize != p.conf.APIMaxBodySize ||
		newConf.ReadTimeout != p.conf.ReadTimeout ||
		newConf.WriteTimeout != p.conf.WriteTimeout ||
		closeAuthManager ||
		closeHandler

	closeMetrics := newConf == nil ||
		newConf.Metrics != p.conf.Metrics ||
		newConf.MetricsAddress != p.conf.MetricsAddress ||
		!reflect.DeepEqual(newConf.MetricsAllowOrigins, p.conf.MetricsAllowOrigins) ||
		!reflect.DeepEqual(newConf.MetricsTrustedProxies, p.conf.MetricsTrustedProxies) ||
		newConf.ReadTimeout != p.conf.ReadTimeout ||
		newConf.WriteTimeout != p.conf.WriteTimeout ||
		closeAuthManager ||
		closeDispatcher ||
		closeRegistry

	closePPROF := newConf == nil ||
		newConf.PPROF != p.conf.PPROF ||
		newConf.PPROFAddress != p.conf.PPROFAddress ||
		!reflect.DeepEqual(newConf.PPROFAllowOrigins, p.conf.PPROFAllowOrigins) ||
		!reflect.DeepEqual(newConf.PPROFTrustedProxies, p.conf.PPROFTrustedProxies) ||
		newConf.ReadTimeout != p.conf.ReadTimeout ||
		newConf.WriteTimeout != p.conf.WriteTimeout ||
		closeAuthManager

	if newConf == nil && p.confWatcher != nil {
		p.confWatcher.Close()
		p.confWatcher = nil
	}

	if closePPROF && p.pprof != nil {
		p.pprof.Close()
		p.pprof = nil
	}

	if closeMetrics && p.metrics != nil {
		p.metrics.Close()
		p.metrics = nil
	}

	if closeAPI && p.api != nil {
		p.api.Close()
		p.api = nil
	}

	if closeHandler {
		p.handler = nil
	}

	if closeRegistry && p.registry != nil {
		p.registry.Close()
		p.registry = nil
	}

	if closeDispatcher && p.dispatcher != nil {
		p.dispatcherMutex.Lock()
		d := p.dispatcher
		p.dispatcher = nil
		p.dispatcherMutex.Unlock()

		d.Close()
	}

	if closeFactory {
		p.factory = nil
	}

	if closeAuthManager {
		p.authManager = nil
	}

	if newConf == nil && p.externalCmdPool != nil {
		p.Log(logger.Info, "waiting for running hooks")
		p.externalCmdPool.Close()
	}

	if closeLogger && p.logger != nil {
		p.loggerMutex.Lock()
		l := p.logger
		p.logger = nil
		p.loggerMutex.Unlock()

		l.Close()
	}
}

func (p *Core) reloadConf(newConf *conf.Conf) error {
	p.closeResources(newConf)
	p.conf = newConf
	return p.createResources(false)
}
