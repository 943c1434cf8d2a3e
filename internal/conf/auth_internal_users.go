package conf

import (
	"fmt"

	"github.com/mediactl/mediactl/internal/conf/jsonwrapper"
)

// AuthInternalUserPermission is a permission of a user.
type AuthInternalUserPermission struct {
	Action AuthAction `json:"action"`
}

// AuthInternalUser is a user.
type AuthInternalUser struct {
	User        Credential                   `json:"user"`
	Pass        Credential                   `json:"pass"`
	IPs         IPNetworks                   `json:"ips"`
	Permissions []AuthInternalUserPermission `json:"permissions"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *AuthInternalUser) UnmarshalJSON(b []byte) error {
	type alias AuthInternalUser
	if err := jsonwrapper.Unmarshal(b, (*alias)(d)); err != nil {
		return err
	}

	if d.User == "" {
		return fmt.Errorf("empty usernames are not supported")
	}

	if d.User == "any" && d.Pass != "" {
		return fmt.Errorf("using a password with 'any' user is not supported")
	}

	return nil
}

// Allows returns true if the user has a permission for action.
func (d AuthInternalUser) Allows(action AuthAction) bool {
	for _, perm := range d.Permissions {
		if perm.Action == action {
			return true
		}
	}
	return false
}

// AuthInternalUsers is a list of AuthInternalUser.
type AuthInternalUsers []AuthInternalUser

// UnmarshalJSON implements json.Unmarshaler.
func (s *AuthInternalUsers) UnmarshalJSON(b []byte) error {
	// drop defaults, elements must not be merged with them
	*s = nil
	return jsonwrapper.Unmarshal(b, (*[]AuthInternalUser)(s))
}
