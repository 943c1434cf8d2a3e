// Package conf contains the struct that holds the configuration of the server.
package conf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mediactl/mediactl/internal/conf/decrypt"
	"github.com/mediactl/mediactl/internal/conf/env"
	"github.com/mediactl/mediactl/internal/conf/yamlwrapper"
	"github.com/mediactl/mediactl/internal/logger"
)

// EnvPrefix is the prefix of environment variables that override the configuration.
const EnvPrefix = "MCTL"

// EnvConfKey is the environment variable containing the key of an encrypted configuration.
const EnvConfKey = "MCTL_CONFKEY"

// by default, everything is allowed from localhost only.
func defaultAuthInternalUsers() AuthInternalUsers {
	return AuthInternalUsers{
		{
			User: "any",
			Pass: "",
			IPs:  IPNetworks{mustParseIPNetwork("127.0.0.1/32"), mustParseIPNetwork("::1/128")},
			Permissions: []AuthInternalUserPermission{
				{Action: AuthActionAPI},
				{Action: AuthActionMetrics},
				{Action: AuthActionPprof},
			},
		},
	}
}

func mustParseIPNetwork(s string) IPNetwork {
	var n IPNetwork
	if err := n.UnmarshalJSON([]byte(`"` + s + `"`)); err != nil {
		panic(err)
	}
	return n
}

func firstThatExists(paths []string) string {
	for _, pa := range paths {
		if _, err := os.Stat(pa); err == nil {
			return pa
		}
	}
	return ""
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Conf is a configuration.
type Conf struct {
	// General
	LogLevel        LogLevel        `json:"logLevel"`
	LogDestinations LogDestinations `json:"logDestinations"`
	LogStructured   bool            `json:"logStructured"`
	LogFile         string          `json:"logFile"`
	SysLogPrefix    string          `json:"sysLogPrefix"`
	ReadTimeout     Duration        `json:"readTimeout"`
	WriteTimeout    Duration        `json:"writeTimeout"`

	// Objects
	ObjectTTL     Duration `json:"objectTTL"`
	SweepInterval Duration `json:"sweepInterval"`
	ElementTypes  []string `json:"elementTypes"`
	MixerTypes    []string `json:"mixerTypes"`

	// Events
	EventTransport      EventTransport `json:"eventTransport"`
	EventQueueSize      int            `json:"eventQueueSize"`
	EventWorkers        int            `json:"eventWorkers"`
	EventTimeout        Duration       `json:"eventTimeout"`
	EventMaxPayloadSize StringSize     `json:"eventMaxPayloadSize"`

	// Hooks
	RunOnCreate  string `json:"runOnCreate"`
	RunOnRelease string `json:"runOnRelease"`

	// Authentication
	AuthMethod        AuthMethod        `json:"authMethod"`
	AuthInternalUsers AuthInternalUsers `json:"authInternalUsers"`
	AuthJWTJWKS       string            `json:"authJWTJWKS"`
	AuthJWTClaimKey   string            `json:"authJWTClaimKey"`

	// Control API
	API               bool       `json:"api"`
	APIAddress        string     `json:"apiAddress"`
	APIAllowOrigins   []string   `json:"apiAllowOrigins"`
	APITrustedProxies IPNetworks `json:"apiTrustedProxies"`
	APIMaxBodySize    StringSize `json:"apiMaxBodySize"`

	// Metrics
	Metrics               bool       `json:"metrics"`
	MetricsAddress        string     `json:"metricsAddress"`
	MetricsAllowOrigins   []string   `json:"metricsAllowOrigins"`
	MetricsTrustedProxies IPNetworks `json:"metricsTrustedProxies"`

	// PPROF
	PPROF               bool       `json:"pprof"`
	PPROFAddress        string     `json:"pprofAddress"`
	PPROFAllowOrigins   []string   `json:"pprofAllowOrigins"`
	PPROFTrustedProxies IPNetworks `json:"pprofTrustedProxies"`
}

func (conf *Conf) setDefaults() {
	// General
	conf.LogLevel = LogLevel(logger.Info)
	conf.LogDestinations = LogDestinations{logger.DestinationStdout}
	conf.LogStructured = false
	conf.LogFile = "mediactl.log"
	conf.SysLogPrefix = "mediactl"
	conf.ReadTimeout = Duration(10 * time.Second)
	conf.WriteTimeout = Duration(10 * time.Second)

	// Objects
	conf.ObjectTTL = Duration(120 * time.Second)
	conf.SweepInterval = Duration(5 * time.Second)
	conf.ElementTypes = []string{}
	conf.MixerTypes = []string{}

	// Events
	conf.EventTransport = EventTransportHTTP
	conf.EventQueueSize = 1024
	conf.EventWorkers = 4
	conf.EventTimeout = Duration(5 * time.Second)
	conf.EventMaxPayloadSize = 64 * 1024

	// Authentication
	conf.AuthMethod = AuthMethodInternal
	conf.AuthInternalUsers = defaultAuthInternalUsers()
	conf.AuthJWTClaimKey = "mediactl_permissions"

	// Control API
	conf.API = true
	conf.APIAddress = ":9888"
	conf.APIAllowOrigins = []string{"*"}
	conf.APITrustedProxies = IPNetworks{}
	conf.APIMaxBodySize = 1024 * 1024

	// Metrics
	conf.MetricsAddress = ":9998"
	conf.MetricsAllowOrigins = []string{"*"}
	conf.MetricsTrustedProxies = IPNetworks{}

	// PPROF
	conf.PPROFAddress = ":9999"
	conf.PPROFAllowOrigins = []string{"*"}
	conf.PPROFTrustedProxies = IPNetworks{}
}

// Load loads a Conf.
// When fpath is empty, the first existing file of defaultConfPaths is used,
// and the configuration file becomes optional.
func Load(fpath string, defaultConfPaths []string) (*Conf, string, error) {
	conf := &Conf{}

	fpath, err := conf.loadFromFile(fpath, defaultConfPaths)
	if err != nil {
		return nil, "", err
	}

	err = env.Load(EnvPrefix, conf)
	if err != nil {
		return nil, "", err
	}

	err = conf.Validate()
	if err != nil {
		return nil, "", err
	}

	return conf, fpath, nil
}

func (conf *Conf) loadFromFile(fpath string, defaultConfPaths []string) (string, error) {
	if fpath == "" {
		fpath = firstThatExists(defaultConfPaths)

		if fpath == "" {
			conf.setDefaults()
			return "", nil
		}
	}

	byts, err := os.ReadFile(fpath)
	if err != nil {
		return "", err
	}

	if key, ok := os.LookupEnv(EnvConfKey); ok {
		byts, err = decrypt.Decrypt(key, byts)
		if err != nil {
			return "", err
		}
	}

	err = yamlwrapper.Unmarshal(byts, conf)
	if err != nil {
		return "", err
	}

	return fpath, nil
}

// Clone clones the configuration.
func (conf Conf) Clone() *Conf {
	enc, err := json.Marshal(conf)
	if err != nil {
		panic(err)
	}

	var dest Conf
	err = json.Unmarshal(enc, &dest)
	if err != nil {
		panic(err)
	}

	return &dest
}

// Validate checks the configuration for errors.
func (conf *Conf) Validate() error {
	// General

	if conf.ReadTimeout <= 0 {
		return fmt.Errorf("'readTimeout' must be greater than zero")
	}
	if conf.WriteTimeout <= 0 {
		return fmt.Errorf("'writeTimeout' must be greater than zero")
	}

	// Objects

	if conf.ObjectTTL <= 0 {
		return fmt.Errorf("'objectTTL' must be greater than zero")
	}
	if conf.SweepInterval <= 0 {
		return fmt.Errorf("'sweepInterval' must be greater than zero")
	}
	if conf.SweepInterval > conf.ObjectTTL {
		return fmt.Errorf("'sweepInterval' must not be greater than 'objectTTL'")
	}
	for _, typ := range conf.ElementTypes {
		if typ == "" {
			return fmt.Errorf("'elementTypes' contains an empty type")
		}
	}
	for _, typ := range conf.MixerTypes {
		if typ == "" {
			return fmt.Errorf("'mixerTypes' contains an empty type")
		}
	}

	// Events

	if conf.EventQueueSize <= 0 {
		return fmt.Errorf("'eventQueueSize' must be greater than zero")
	}
	if conf.EventWorkers <= 0 {
		return fmt.Errorf("'eventWorkers' must be greater than zero")
	}
	if conf.EventTimeout <= 0 {
		return fmt.Errorf("'eventTimeout' must be greater than zero")
	}
	if conf.EventMaxPayloadSize == 0 {
		return fmt.Errorf("'eventMaxPayloadSize' must be greater than zero")
	}

	// Authentication

	switch conf.AuthMethod {
	case AuthMethodJWT:
		if conf.AuthJWTJWKS == "" {
			return fmt.Errorf("'authJWTJWKS' must be set when 'authMethod' is 'jwt'")
		}
		if !isHTTPURL(conf.AuthJWTJWKS) {
			return fmt.Errorf("'authJWTJWKS' must be a HTTP URL")
		}
		if conf.AuthJWTClaimKey == "" {
			return fmt.Errorf("'authJWTClaimKey' is empty")
		}

	default:
		if len(conf.AuthInternalUsers) == 0 {
			return fmt.Errorf("'authInternalUsers' is empty")
		}
	}

	// Control API

	if conf.APIMaxBodySize == 0 {
		return fmt.Errorf("'apiMaxBodySize' must be greater than zero")
	}

	return nil
}

// UnmarshalJSON implements json.Unmarshaler. It fills the defaults
// before decoding, so that omitted fields keep them.
func (conf *Conf) UnmarshalJSON(b []byte) error {
	conf.setDefaults()

	type alias Conf
	d := json.NewDecoder(bytes.NewReader(b))
	d.DisallowUnknownFields()
	return d.Decode((*alias)(conf))
}
