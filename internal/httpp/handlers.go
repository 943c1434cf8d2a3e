package httpp

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/mediactl/mediactl/internal/logger"
)

// reject requests with empty paths.
type handlerFilterRequests struct {
	h http.Handler
}

func (h *handlerFilterRequests) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "" || r.URL.Path[0] != '/' {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.h.ServeHTTP(w, r)
}

type handlerServerHeader struct {
	h http.Handler
}

func (h *handlerServerHeader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Server", "mediactl")
	h.h.ServeHTTP(w, r)
}

type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

type handlerLogger struct {
	h   http.Handler
	log logger.Writer
}

func (h *handlerLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sw := &statusWriter{ResponseWriter: w}
	start := time.Now()

	h.h.ServeHTTP(sw, r)

	h.log.Log(logger.Debug, "[conn %v] %s %s %d (%d bytes, %v)",
		r.RemoteAddr, r.Method, r.URL.Path, sw.status, sw.size, time.Since(start))
}

// turn panics of handlers into a 500 response instead of crashing the connection.
type handlerRecover struct {
	h   http.Handler
	log logger.Writer
}

func (h *handlerRecover) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if err := recover(); err != nil {
			if err == http.ErrAbortHandler { //nolint:errorlint
				panic(err)
			}
			h.log.Log(logger.Error, "panic while serving %s %s: %v\n%s",
				r.Method, r.URL.Path, err, debug.Stack())
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}()
	h.h.ServeHTTP(w, r)
}

type writeTimeoutWriter struct {
	http.ResponseWriter
	rc      *http.ResponseController
	timeout time.Duration
}

func (w *writeTimeoutWriter) Write(p []byte) (int, error) {
	w.rc.SetWriteDeadline(time.Now().Add(w.timeout)) //nolint:errcheck
	return w.ResponseWriter.Write(p)
}

func (w *writeTimeoutWriter) WriteHeader(statusCode int) {
	w.rc.SetWriteDeadline(time.Now().Add(w.timeout)) //nolint:errcheck
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *writeTimeoutWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// apply the write deadline before every Write(), so that long responses
// written in chunks do not time out.
type handlerWriteTimeout struct {
	h       http.Handler
	timeout time.Duration
}

func (h *handlerWriteTimeout) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.h.ServeHTTP(&writeTimeoutWriter{
		ResponseWriter: w,
		rc:             http.NewResponseController(w),
		timeout:        h.timeout,
	}, r)
}
