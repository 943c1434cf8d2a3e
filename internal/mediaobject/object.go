// Package mediaobject contains the media object variants.
package mediaobject

import (
	"fmt"
	"maps"
	"sync"

	"github.com/bluenviron/gortsplib/v4/pkg/description"

	"github.com/mediactl/mediactl/internal/defs"
)

// Params are the creation parameters of an object.
type Params map[string]string

// Command is a named command sent to an object.
type Command struct {
	Name   string
	Params Params
}

// CommandResult is the result of a command.
type CommandResult struct {
	Value  string
	Values map[string]string
}

// CommandFunc is a command handler.
type CommandFunc func(params Params) (*CommandResult, error)

// RaiseFunc is called by backends to raise an event.
type RaiseFunc func(eventType string, data map[string]string)

// PadSpec describes a pad exposed by a backend.
type PadSpec struct {
	Direction Direction
	Media     *description.Media
}

// Backend realizes the behavior of an object. It is provided by the
// processing layer through a BackendFactory.
type Backend interface {
	Pads() []PadSpec
	Commands() map[string]CommandFunc
	Close()
}

// BackendFactory creates backends.
type BackendFactory interface {
	CreateBackend(kind Kind, typ string, params Params, raise RaiseFunc) (Backend, error)
}

// Object is a media object.
type Object interface {
	Kind() Kind
	Type() string
	Params() Params
	SendCommand(cmd Command) (*CommandResult, error)
	BindEvents(sink RaiseFunc)
	Close()
}

// Container is implemented by objects that are registered together with
// a fixed set of children.
type Container interface {
	InitialChildren() []Object
}

type base struct {
	kind     Kind
	typ      string
	params   Params
	backend  Backend
	commands map[string]CommandFunc

	sinkMutex sync.Mutex
	sink      RaiseFunc
	closeOnce sync.Once
}

func (b *base) initialize(kind Kind, typ string, params Params) {
	b.kind = kind
	b.typ = typ
	b.params = maps.Clone(params)
	if b.params == nil {
		b.params = Params{}
	}

	b.commands = map[string]CommandFunc{
		"getType": func(_ Params) (*CommandResult, error) {
			return &CommandResult{Value: b.typ}, nil
		},
		"getKind": func(_ Params) (*CommandResult, error) {
			return &CommandResult{Value: b.kind.String()}, nil
		},
		"getParams": func(_ Params) (*CommandResult, error) {
			return &CommandResult{Values: maps.Clone(b.params)}, nil
		},
	}
}

func (b *base) attach(factory BackendFactory) error {
	bk, err := factory.CreateBackend(b.kind, b.typ, b.params, b.raise)
	if err != nil {
		return err
	}

	b.backend = bk
	for name, fn := range bk.Commands() {
		b.commands[name] = fn
	}

	return nil
}

// Kind returns the object kind.
func (b *base) Kind() Kind {
	return b.kind
}

// Type returns the object type.
func (b *base) Type() string {
	return b.typ
}

// Params returns a copy of the creation parameters.
func (b *base) Params() Params {
	return maps.Clone(b.params)
}

// BindEvents sets the destination of events raised by the backend.
func (b *base) BindEvents(sink RaiseFunc) {
	b.sinkMutex.Lock()
	defer b.sinkMutex.Unlock()
	b.sink = sink
}

func (b *base) raise(eventType string, data map[string]string) {
	b.sinkMutex.Lock()
	sink := b.sink
	b.sinkMutex.Unlock()

	if sink != nil {
		sink(eventType, data)
	}
}

// SendCommand runs a command.
func (b *base) SendCommand(cmd Command) (res *CommandResult, err error) {
	fn, ok := b.commands[cmd.Name]
	if !ok {
		return nil, defs.NewError(defs.ErrorCodeUnsupportedCommand,
			"command '%s' is not supported by %s", cmd.Name, b.kind)
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = defs.WrapError(defs.ErrorCodeCommandExecution, fmt.Errorf("%v", r),
				"command '%s' failed", cmd.Name)
		}
	}()

	res, err = fn(cmd.Params)
	if err != nil {
		return nil, defs.WrapError(defs.ErrorCodeCommandExecution, err, "command '%s' failed", cmd.Name)
	}

	if res == nil {
		res = &CommandResult{}
	}
	return res, nil
}

// Close releases the backend.
func (b *base) Close() {
	b.closeOnce.Do(func() {
		b.BindEvents(nil)
		if b.backend != nil {
			b.backend.Close()
		}
	})
}
