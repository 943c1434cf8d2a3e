package httpp

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var errOriginNotAllowed = errors.New("origin not allowed")

func withDefaultPort(u *url.URL) {
	if u.Port() != "" {
		return
	}
	switch u.Scheme {
	case "http":
		u.Host = net.JoinHostPort(u.Host, "80")
	case "https":
		u.Host = net.JoinHostPort(u.Host, "443")
	}
}

// allowed origins are either "*", exact origins or origins with a wildcard host ("http://*.example.com").
func isOriginAllowed(origin string, allowOrigins []string) (string, error) {
	for _, o := range allowOrigins {
		if o == "*" {
			return o, nil
		}
	}

	if origin == "" {
		return "", errOriginNotAllowed
	}

	originURL, err := url.Parse(origin)
	if err != nil || originURL.Scheme == "" {
		return "", errOriginNotAllowed
	}
	withDefaultPort(originURL)

	for _, o := range allowOrigins {
		allowedURL, err := url.Parse(o)
		if err != nil || allowedURL.Scheme != originURL.Scheme {
			continue
		}
		withDefaultPort(allowedURL)

		if allowedURL.Host == originURL.Host {
			return origin, nil
		}

		if strings.Contains(allowedURL.Host, "*") {
			pattern := strings.ReplaceAll(regexp.QuoteMeta(allowedURL.Host), `\*\.`, `(.*\.)?`)
			pattern = strings.ReplaceAll(pattern, `\*`, ".*")
			if matched, err := regexp.MatchString("^"+pattern+"$", originURL.Host); err == nil && matched {
				return origin, nil
			}
		}
	}

	return "", errOriginNotAllowed
}

// add CORS headers.
type handlerOrigin struct {
	h            http.Handler
	allowOrigins []string
}

func (h *handlerOrigin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin, err := isOriginAllowed(r.Header.Get("Origin"), h.allowOrigins)
	if err == nil {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	h.h.ServeHTTP(w, r)
}
