package backend

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mediactl/mediactl/internal/mediaobject"
)

type player struct {
	uri   string
	raise mediaobject.RaiseFunc

	mutex sync.Mutex
	state string
	timer *time.Timer
}

func newPlayer(params mediaobject.Params, raise mediaobject.RaiseFunc) (*backend, error) {
	p := &player{
		uri:   params["uri"],
		raise: raise,
		state: "stopped",
	}

	return &backend{
		pads: srcPads(videoMedia(), audioMedia()),
		commands: map[string]mediaobject.CommandFunc{
			"getUri":   p.onGetURI,
			"getState": p.onGetState,
			"play":     p.onPlay,
			"pause":    p.onPause,
			"stop":     p.onStop,
		},
		onClose: p.close,
	}, nil
}

func (p *player) onGetURI(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
	return &mediaobject.CommandResult{Value: p.uri}, nil
}

func (p *player) onGetState(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return &mediaobject.CommandResult{Value: p.state}, nil
}

// onPlay starts playback. When the "duration" parameter (in milliseconds)
// is set, an EndOfStream event is raised once it elapses.
func (p *player) onPlay(params mediaobject.Params) (*mediaobject.CommandResult, error) {
	if p.uri == "" {
		return nil, fmt.Errorf("uri is not set")
	}

	var duration time.Duration
	if v, ok := params["duration"]; ok {
		ms, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %w", err)
		}
		duration = time.Duration(ms) * time.Millisecond
	}

	p.setState("playing")

	if duration != 0 {
		p.mutex.Lock()
		if p.timer != nil {
			p.timer.Stop()
		}
		p.timer = time.AfterFunc(duration, p.onEndOfStream)
		p.mutex.Unlock()
	}

	return nil, nil
}

func (p *player) onPause(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
	p.setState("paused")
	return nil, nil
}

func (p *player) onStop(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
	p.stopTimer()
	p.setState("stopped")
	return nil, nil
}

func (p *player) onEndOfStream() {
	p.setState("stopped")
	p.raise("EndOfStream", map[string]string{"uri": p.uri})
}

func (p *player) setState(state string) {
	p.mutex.Lock()
	changed := p.state != state
	p.state = state
	p.mutex.Unlock()

	if changed {
		p.raise("MediaStateChanged", map[string]string{"state": state})
	}
}

func (p *player) stopTimer() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *player) close() {
	p.stopTimer()
}
