// Package auth contains the authentication system of the control surfaces.
package auth

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mediactl/mediactl/internal/conf"
)

const (
	// PauseAfterError is the pause to apply after an authentication failure.
	PauseAfterError = 2 * time.Second

	jwtRefreshPeriod = 60 * 60 * time.Second
)

// Request is an authentication request.
type Request struct {
	User   string
	Pass   string
	Token  string
	IP     net.IP
	Action conf.AuthAction
}

// RequestFromHTTP fills a Request with the credentials of an HTTP request.
// Credentials are read from basic authentication, from a bearer token
// (either "user:pass" or a JWT) or from the "jwt" query parameter.
func RequestFromHTTP(r *http.Request, ip net.IP, action conf.AuthAction) *Request {
	req := &Request{
		IP:     ip,
		Action: action,
	}

	req.User, req.Pass, _ = r.BasicAuth()

	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		bearer := strings.TrimPrefix(h, "Bearer ")
		if parts := strings.Split(bearer, ":"); len(parts) == 2 {
			req.User = parts[0]
			req.Pass = parts[1]
		} else {
			req.Token = bearer
		}
	}

	if req.Token == "" {
		req.Token = r.URL.Query().Get("jwt")
	}

	return req
}

// Error is an authentication error.
type Error struct {
	Message        string
	AskCredentials bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "authentication failed: " + e.Message
}

func hasPermission(perms []conf.AuthInternalUserPermission, action conf.AuthAction) bool {
	for _, perm := range perms {
		if perm.Action == action {
			return true
		}
	}
	return false
}

// the permission claim can either be a list or a string containing a JSON-encoded list.
type jwtClaims struct {
	jwt.RegisteredClaims
	permissionsKey string
	permissions    []conf.AuthInternalUserPermission
}

func (c *jwtClaims) UnmarshalJSON(b []byte) error {
	err := json.Unmarshal(b, &c.RegisteredClaims)
	if err != nil {
		return err
	}

	var claimMap map[string]json.RawMessage
	err = json.Unmarshal(b, &claimMap)
	if err != nil {
		return err
	}

	raw, ok := claimMap[c.permissionsKey]
	if !ok {
		return fmt.Errorf("claim '%s' not found inside JWT", c.permissionsKey)
	}

	var str string
	if err = json.Unmarshal(raw, &str); err == nil {
		raw = []byte(str)
	}

	return json.Unmarshal(raw, &c.permissions)
}

// Manager is the authentication manager.
type Manager struct {
	Method        conf.AuthMethod
	InternalUsers []conf.AuthInternalUser
	JWTJWKS       string
	JWTClaimKey   string
	ReadTimeout   time.Duration

	mutex          sync.RWMutex
	jwtHTTPClient  *http.Client
	jwtLastRefresh time.Time
	jwtKeyFunc     keyfunc.Keyfunc
}

// ReloadInternalUsers reloads InternalUsers.
func (m *Manager) ReloadInternalUsers(u []conf.AuthInternalUser) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.InternalUsers = u
}

// RefreshJWTJWKS forces a refresh of the JWT key set at the next request.
func (m *Manager) RefreshJWTJWKS() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jwtLastRefresh = time.Time{}
}

// Authenticate authenticates a request.
func (m *Manager) Authenticate(req *Request) error {
	var err error

	if m.Method == conf.AuthMethodJWT {
		err = m.authenticateJWT(req)
	} else {
		err = m.authenticateInternal(req)
	}

	if err != nil {
		return &Error{
			Message:        err.Error(),
			AskCredentials: req.User == "" && req.Pass == "" && req.Token == "",
		}
	}

	return nil
}

func (m *Manager) authenticateInternal(req *Request) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var lastErr error

	for _, u := range m.InternalUsers {
		lastErr = authenticateWithUser(req, &u)
		if lastErr == nil {
			return nil
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no users are configured")
	}

	return lastErr
}

func authenticateWithUser(req *Request, u *conf.AuthInternalUser) error {
	if u.User != "any" && !u.User.Check(req.User) {
		return fmt.Errorf("wrong user")
	}

	if !u.IPs.Contains(req.IP) {
		return fmt.Errorf("IP not allowed")
	}

	if !hasPermission(u.Permissions, req.Action) {
		return fmt.Errorf("user doesn't have permission to perform action")
	}

	if u.User != "any" && !u.Pass.Check(req.Pass) {
		return fmt.Errorf("invalid credentials")
	}

	return nil
}

func (m *Manager) authenticateJWT(req *Request) error {
	if req.Token == "" {
		return fmt.Errorf("JWT not provided")
	}

	keyfunc, err := m.pullJWTJWKS()
	if err != nil {
		return err
	}

	var cc jwtClaims
	cc.permissionsKey = m.JWTClaimKey
	_, err = jwt.ParseWithClaims(req.Token, &cc, keyfunc)
	if err != nil {
		return err
	}

	if !hasPermission(cc.permissions, req.Action) {
		return fmt.Errorf("user doesn't have permission to perform action")
	}

	return nil
}

func (m *Manager) pullJWTJWKS() (jwt.Keyfunc, error) {
	now := time.Now()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if now.Sub(m.jwtLastRefresh) >= jwtRefreshPeriod {
		if m.jwtHTTPClient == nil {
			m.jwtHTTPClient = &http.Client{
				Timeout:   m.ReadTimeout,
				Transport: &http.Transport{},
			}
		}

		res, err := m.jwtHTTPClient.Get(m.JWTJWKS)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("JWKS server replied with code %d", res.StatusCode)
		}

		var raw json.RawMessage
		err = json.NewDecoder(res.Body).Decode(&raw)
		if err != nil {
			return nil, err
		}

		tmp, err := keyfunc.NewJWKSetJSON(raw)
		if err != nil {
			return nil, err
		}

		m.jwtKeyFunc = tmp
		m.jwtLastRefresh = now
	}

	return m.jwtKeyFunc.Keyfunc, nil
}
