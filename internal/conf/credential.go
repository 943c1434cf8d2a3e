package conf

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/matthewhartstonge/argon2"

	"github.com/mediactl/mediactl/internal/conf/jsonwrapper"
)

const (
	credentialPrefixSha256 = "sha256:"
	credentialPrefixArgon2 = "argon2:"
)

var (
	rePlainCredential = regexp.MustCompile(`^[a-zA-Z0-9!\$\(\)\*\+\.;<=>\[\]\^_\-\{\}@#&]+$`)
	reSha256          = regexp.MustCompile(`^sha256:[a-zA-Z0-9\+/=]+$`)
)

// Credential is a username or password.
// It is either plain text, a base64 sha256 hash ("sha256:...") or an argon2 hash ("argon2:...").
type Credential string

// MarshalJSON implements json.Marshaler.
func (d Credential) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Credential) UnmarshalJSON(b []byte) error {
	var in string
	if err := jsonwrapper.Unmarshal(b, &in); err != nil {
		return err
	}

	*d = Credential(in)
	return d.validate()
}

// UnmarshalEnv implements env.Unmarshaler.
func (d *Credential) UnmarshalEnv(_ string, v string) error {
	return d.UnmarshalJSON([]byte(`"` + v + `"`))
}

// IsSha256 returns true if the credential is a sha256 hash.
func (d Credential) IsSha256() bool {
	return strings.HasPrefix(string(d), credentialPrefixSha256)
}

// IsArgon2 returns true if the credential is an argon2 hash.
func (d Credential) IsArgon2() bool {
	return strings.HasPrefix(string(d), credentialPrefixArgon2)
}

// IsHashed returns true if the credential is a sha256 or argon2 hash.
func (d Credential) IsHashed() bool {
	return d.IsSha256() || d.IsArgon2()
}

func sha256Base64(in string) string {
	h := sha256.Sum256([]byte(in))
	return base64.StdEncoding.EncodeToString(h[:])
}

// Check returns true if guess matches the credential.
// An empty credential matches anything.
func (d Credential) Check(guess string) bool {
	switch {
	case d == "":
		return true

	case d.IsSha256():
		return subtle.ConstantTimeCompare(
			[]byte(d[len(credentialPrefixSha256):]), []byte(sha256Base64(guess))) == 1

	case d.IsArgon2():
		ok, err := argon2.VerifyEncoded([]byte(guess), []byte(d[len(credentialPrefixArgon2):]))
		return ok && err == nil
	}

	return subtle.ConstantTimeCompare([]byte(d), []byte(guess)) == 1
}

func (d Credential) validate() error {
	switch {
	case d == "":
		return nil

	case d.IsSha256():
		if !reSha256.MatchString(string(d)) {
			return fmt.Errorf("credential contains unsupported characters, sha256 hash must be base64 encoded")
		}

	case d.IsArgon2():
		if _, err := argon2.Decode([]byte(d[len(credentialPrefixArgon2):])); err != nil {
			return fmt.Errorf("invalid argon2 hash: %w", err)
		}

	default:
		if !rePlainCredential.MatchString(string(d)) {
			return fmt.Errorf("credential contains unsupported characters")
		}
	}

	return nil
}
