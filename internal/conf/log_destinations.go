package conf

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mediactl/mediactl/internal/conf/jsonwrapper"
	"github.com/mediactl/mediactl/internal/logger"
)

var logDestinationNames = map[logger.Destination]string{
	logger.DestinationStdout: "stdout",
	logger.DestinationFile:   "file",
	logger.DestinationSyslog: "syslog",
}

// LogDestinations is the logDestinations parameter.
type LogDestinations []logger.Destination

// MarshalJSON implements json.Marshaler.
func (d LogDestinations) MarshalJSON() ([]byte, error) {
	out := make([]string, len(d))

	for i, dest := range d {
		name, ok := logDestinationNames[dest]
		if !ok {
			return nil, fmt.Errorf("invalid log destination: %v", dest)
		}
		out[i] = name
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *LogDestinations) UnmarshalJSON(b []byte) error {
	var in []string
	if err := jsonwrapper.Unmarshal(b, &in); err != nil {
		return err
	}

	*d = nil

outer:
	for _, name := range in {
		for dest, destName := range logDestinationNames {
			if destName != name {
				continue
			}

			if slices.Contains(*d, dest) {
				return fmt.Errorf("log destination set twice")
			}

			*d = append(*d, dest)
			continue outer
		}

		return fmt.Errorf("invalid log destination: %s", name)
	}

	return nil
}

// UnmarshalEnv implements env.Unmarshaler.
func (d *LogDestinations) UnmarshalEnv(_ string, v string) error {
	byts, _ := json.Marshal(strings.Split(v, ","))
	return d.UnmarshalJSON(byts)
}
