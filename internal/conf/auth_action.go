package conf

import (
	"encoding/json"
	"fmt"

	"github.com/mediactl/mediactl/internal/conf/jsonwrapper"
)

// AuthAction is something a user can be allowed to do.
type AuthAction string

// auth actions.
const (
	AuthActionAPI     AuthAction = "api"
	AuthActionMetrics AuthAction = "metrics"
	AuthActionPprof   AuthAction = "pprof"
)

// MarshalJSON implements json.Marshaler.
func (d AuthAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *AuthAction) UnmarshalJSON(b []byte) error {
	var in string
	if err := jsonwrapper.Unmarshal(b, &in); err != nil {
		return err
	}

	switch AuthAction(in) {
	case AuthActionAPI, AuthActionMetrics, AuthActionPprof:
		*d = AuthAction(in)

	default:
		return fmt.Errorf("invalid auth action: '%s'", in)
	}

	return nil
}

// UnmarshalEnv implements env.Unmarshaler.
func (d *AuthAction) UnmarshalEnv(_ string, v string) error {
	return d.UnmarshalJSON([]byte(`"` + v + `"`))
}
