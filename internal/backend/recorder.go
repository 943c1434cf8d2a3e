package backend

import (
	"fmt"
	"sync"

	"github.com/mediactl/mediactl/internal/mediaobject"
)

type recorder struct {
	uri   string
	raise mediaobject.RaiseFunc

	mutex sync.Mutex
	state string
}

func newRecorder(params mediaobject.Params, raise mediaobject.RaiseFunc) (*backend, error) {
	r := &recorder{
		uri:   params["uri"],
		raise: raise,
		state: "stopped",
	}

	return &backend{
		pads: sinkPads(videoMedia(), audioMedia()),
		commands: map[string]mediaobject.CommandFunc{
			"getUri": func(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
				return &mediaobject.CommandResult{Value: r.uri}, nil
			},
			"getState": func(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
				r.mutex.Lock()
				defer r.mutex.Unlock()
				return &mediaobject.CommandResult{Value: r.state}, nil
			},
			"record": func(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
				if r.uri == "" {
					return nil, fmt.Errorf("uri is not set")
				}
				return nil, r.transition("recording", "Recording")
			},
			"pause": func(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
				return nil, r.transition("paused", "Paused")
			},
			"stop": func(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
				return nil, r.transition("stopped", "Stopped")
			},
		},
	}, nil
}

func (r *recorder) transition(state string, eventType string) error {
	r.mutex.Lock()
	if state == "paused" && r.state != "recording" {
		r.mutex.Unlock()
		return fmt.Errorf("recorder is not recording")
	}
	changed := r.state != state
	r.state = state
	r.mutex.Unlock()

	if changed {
		r.raise(eventType, map[string]string{"uri": r.uri})
	}
	return nil
}
