package backend

import (
	"github.com/mediactl/mediactl/internal/mediaobject"
)

type backend struct {
	pads     []mediaobject.PadSpec
	commands map[string]mediaobject.CommandFunc
	onClose  func()
}

// Pads implements mediaobject.Backend.
func (b *backend) Pads() []mediaobject.PadSpec {
	return b.pads
}

// Commands implements mediaobject.Backend.
func (b *backend) Commands() map[string]mediaobject.CommandFunc {
	return b.commands
}

// Close implements mediaobject.Backend.
func (b *backend) Close() {
	if b.onClose != nil {
		b.onClose()
	}
}
