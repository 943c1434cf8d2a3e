package test

import "github.com/mediactl/mediactl/internal/auth"

// AuthManager is a dummy auth manager.
type AuthManager struct {
	AuthenticateImpl   func(req *auth.Request) error
	RefreshJWTJWKSImpl func()
}

// Authenticate implements the authentication of auth.Manager.
func (m *AuthManager) Authenticate(req *auth.Request) error {
	return m.AuthenticateImpl(req)
}

// RefreshJWTJWKS simulates a JWKS refresh.
func (m *AuthManager) RefreshJWTJWKS() {
	if m.RefreshJWTJWKSImpl != nil {
		m.RefreshJWTJWKSImpl()
	}
}

// NilAuthManager is an auth manager that accepts everything.
var NilAuthManager = &AuthManager{
	AuthenticateImpl: func(_ *auth.Request) error {
		return nil
	},
}
