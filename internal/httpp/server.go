// Package httpp contains HTTP utilities shared by the API, metrics and pprof servers.
package httpp

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mediactl/mediactl/internal/logger"
)

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

// Server is a wrapper around http.Server that provides:
// - net.Listener allocation and closure
// - recovery from panics
// - request logging
// - server header
// - filtering of invalid requests
type Server struct {
	Address      string
	AllowOrigins []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Handler      http.Handler
	Parent       logger.Writer

	ln    net.Listener
	inner *http.Server
}

// Initialize initializes Server.
func (s *Server) Initialize() error {
	if s.ReadTimeout == 0 {
		return fmt.Errorf("invalid ReadTimeout")
	}
	if s.WriteTimeout == 0 {
		return fmt.Errorf("invalid WriteTimeout")
	}

	network, address := "tcp", s.Address
	if strings.HasPrefix(s.Address, "unix://") {
		network, address = "unix", s.Address[len("unix://"):]
		os.Remove(address)
	}

	var err error
	s.ln, err = net.Listen(network, address)
	if err != nil {
		return err
	}

	h := s.Handler
	if s.AllowOrigins != nil {
		h = &handlerOrigin{h, s.AllowOrigins}
	}
	h = &handlerFilterRequests{h}
	h = &handlerServerHeader{h}
	h = &handlerLogger{h, s.Parent}
	h = &handlerRecover{h, s.Parent}
	h = &handlerWriteTimeout{h, s.WriteTimeout}

	s.inner = &http.Server{
		Handler: h,

		// applied before reading any request
		ReadTimeout: s.ReadTimeout,

		// applied after the handler has returned
		IdleTimeout: 30 * time.Second,

		ErrorLog: log.New(&nilWriter{}, "", 0),
	}

	go s.inner.Serve(s.ln) //nolint:errcheck

	return nil
}

// Close closes all resources and waits for all routines to return.
func (s *Server) Close() {
	ctx, ctxCancel := context.WithCancel(context.Background())
	ctxCancel()
	s.inner.Shutdown(ctx) //nolint:errcheck
	s.ln.Close()          // in case Shutdown() is called before Serve()
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}
