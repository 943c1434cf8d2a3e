package externalcmd

import (
	"sync"
	"sync/atomic"
)

// Pool is a pool of external commands.
type Pool struct {
	wg      sync.WaitGroup
	running atomic.Int64
}

// Initialize initializes a Pool.
func (p *Pool) Initialize() {
}

// Close waits for all external commands to exit.
func (p *Pool) Close() {
	p.wg.Wait()
}

// Running returns the number of commands that have not exited yet.
func (p *Pool) Running() int64 {
	return p.running.Load()
}

func (p *Pool) add() {
	p.wg.Add(1)
	p.running.Add(1)
}

func (p *Pool) done() {
	p.running.Add(-1)
	p.wg.Done()
}
