package conf

import (
	"encoding/json"
	"fmt"

	"github.com/mediactl/mediactl/internal/conf/jsonwrapper"
)

// EventTransport is the protocol used to deliver events to subscribers.
type EventTransport string

// event transports.
const (
	EventTransportHTTP      EventTransport = "http"
	EventTransportWebSocket EventTransport = "websocket"
)

// MarshalJSON implements json.Marshaler.
func (d EventTransport) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *EventTransport) UnmarshalJSON(b []byte) error {
	var in string
	if err := jsonwrapper.Unmarshal(b, &in); err != nil {
		return err
	}

	switch EventTransport(in) {
	case EventTransportHTTP, EventTransportWebSocket:
		*d = EventTransport(in)

	default:
		return fmt.Errorf("invalid event transport: '%s'", in)
	}

	return nil
}

// UnmarshalEnv implements env.Unmarshaler.
func (d *EventTransport) UnmarshalEnv(_ string, v string) error {
	return d.UnmarshalJSON([]byte(`"` + v + `"`))
}
