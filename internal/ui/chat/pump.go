// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Sender delivers a message to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// =============================================================================
// MESSAGE PUMP
// =============================================================================

// Pump forwards messages to a Sender from its own goroutine.
//
// Program.Send blocks until the event loop receives the message, and
// observable subscribers may run inside Update (a submit publishes history
// synchronously), so subscribers must never call Send themselves. Post
// queues instead and never blocks; Run delivers in post order.
type Pump struct {
	sender Sender

	mu     sync.Mutex
	queue  []tea.Msg
	notify chan struct{}
}

// NewPump creates a pump delivering to sender.
func NewPump(sender Sender) *Pump {
	return &Pump{
		sender: sender,
		notify: make(chan struct{}, 1),
	}
}

// Post queues msg for delivery.
func (p *Pump) Post(msg tea.Msg) {
	p.mu.Lock()
	p.queue = append(p.queue, msg)
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued messages.
func (p *Pump) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Run delivers queued messages until ctx is done.
func (p *Pump) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.notify:
		}

		for {
			p.mu.Lock()
			batch := p.queue
			p.queue = nil
			p.mu.Unlock()

			if len(batch) == 0 {
				break
			}
			for _, msg := range batch {
				if ctx.Err() != nil {
					return nil
				}
				p.sender.Send(msg)
			}
		}
	}
}
