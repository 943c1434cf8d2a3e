package conf

import (
	"encoding/json"
	"fmt"

	"github.com/mediactl/mediactl/internal/conf/jsonwrapper"
)

// AuthMethod is an authentication method.
type AuthMethod int

// authentication methods.
const (
	AuthMethodInternal AuthMethod = iota
	AuthMethodJWT
)

// MarshalJSON implements json.Marshaler.
func (d AuthMethod) MarshalJSON() ([]byte, error) {
	if d == AuthMethodJWT {
		return json.Marshal("jwt")
	}
	return json.Marshal("internal")
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *AuthMethod) UnmarshalJSON(b []byte) error {
	var in string
	if err := jsonwrapper.Unmarshal(b, &in); err != nil {
		return err
	}

	switch in {
	case "internal":
		*d = AuthMethodInternal

	case "jwt":
		*d = AuthMethodJWT

	default:
		return fmt.Errorf("invalid authMethod: '%s'", in)
	}

	return nil
}

// UnmarshalEnv implements env.Unmarshaler.
func (d *AuthMethod) UnmarshalEnv(_ string, v string) error {
	return d.UnmarshalJSON([]byte(`"` + v + `"`))
}
