// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/novagem/internal/logging"
	"github.com/jeranaias/novagem/internal/observable"
)

// =============================================================================
// STATE
// =============================================================================

// Phase is the bridge's position in idle -> loading -> answered|errored.
type Phase int

const (
	Idle Phase = iota
	Loading
	Answered
	Errored
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Answered:
		return "answered"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// State is the bridge's tagged state. Answer is set only when Answered and
// Error only when Errored.
type State struct {
	Phase  Phase
	Answer string
	Error  string

	// Seq identifies the ask that produced this state. Clear also advances
	// it so a late result can't be mistaken for a current one.
	Seq uint64
}

// IsLoading reports whether a request is in flight.
func (s State) IsLoading() bool { return s.Phase == Loading }

// =============================================================================
// BRIDGE
// =============================================================================

// Bridge turns questions into requests and exposes the outcome as
// observable state.
//
// The tagged State is the primary channel. Loading, Answer and Error are
// derived from it and only publish when their own value changes, in this
// order: on Ask, loading turns true and then answer and error are cleared;
// on completion, the answer or error is set and then loading turns false.
//
// A new Ask supersedes any request still in flight: the older request's
// context is cancelled and its result, if one still arrives, is dropped.
//
// Subscribers run on the goroutine that caused the change and must not call
// Ask or Clear synchronously.
type Bridge struct {
	transport Transport
	logger    *zap.Logger

	// pubMu serializes transitions together with their notifications.
	pubMu sync.Mutex

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	inflight sync.WaitGroup
	changed  chan struct{}
	settled  State
	closed   bool

	state   *observable.Value[State]
	loading *observable.Value[bool]
	answer  *observable.Value[*string]
	errMsg  *observable.Value[*string]
}

// NewBridge creates a bridge over transport.
func NewBridge(transport Transport, logger *zap.Logger) *Bridge {
	logger = logging.OrNop(logger)
	return &Bridge{
		transport: transport,
		logger:    logger.Named("bridge"),
		changed:   make(chan struct{}),
		state:     observable.New(State{Phase: Idle}),
		loading:   observable.NewDistinct(false),
		answer:    observable.NewDistinctFunc[*string](nil, equalOptional),
		errMsg:    observable.NewDistinctFunc[*string](nil, equalOptional),
	}
}

// State returns the tagged state channel.
func (b *Bridge) State() *observable.Value[State] { return b.state }

// Loading returns the loading channel.
func (b *Bridge) Loading() *observable.Value[bool] { return b.loading }

// Answer returns the answer channel; nil means no answer.
func (b *Bridge) Answer() *observable.Value[*string] { return b.answer }

// Error returns the error channel; nil means no error.
func (b *Bridge) Error() *observable.Value[*string] { return b.errMsg }

// Ask sends question and returns immediately. The outcome arrives on the
// channels. ctx bounds the request, not the call.
func (b *Bridge) Ask(ctx context.Context, question string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}

	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.cancel != nil {
		b.cancel()
		b.logger.Debug("superseding in-flight request", zap.Uint64("seq", b.seq))
	}
	b.seq++
	seq := b.seq
	reqCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.inflight.Add(1)
	b.mu.Unlock()

	// Loading is published before the request starts.
	b.publish(State{Phase: Loading, Seq: seq})

	go b.run(reqCtx, cancel, seq, question)
	return nil
}

// Clear resets every channel to its empty value without a request. A
// request still in flight is cancelled and its result dropped.
func (b *Bridge) Clear() {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	b.publish(State{Phase: Idle, Seq: seq})
}

// Wait blocks until the latest ask has resolved, or ctx is done, and
// returns the resulting state. Subscribers have all run by the time Wait
// returns.
func (b *Bridge) Wait(ctx context.Context) (State, error) {
	for {
		b.mu.Lock()
		changed := b.changed
		s := b.settled
		b.mu.Unlock()

		if s.Phase != Loading {
			return s, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}

// Close cancels any request in flight and waits for its goroutine to exit.
// Ask fails with ErrClosed afterwards.
func (b *Bridge) Close() error {
	b.mu.Lock()
	b.closed = true
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.mu.Unlock()

	b.inflight.Wait()
	return nil
}

// =============================================================================
// INTERNAL
// =============================================================================

func (b *Bridge) run(ctx context.Context, cancel context.CancelFunc, seq uint64, question string) {
	defer b.inflight.Done()
	defer cancel()

	start := time.Now()
	answer, err := b.transport.Ask(ctx, question)

	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	stale := seq != b.seq
	if !stale {
		b.cancel = nil
	}
	b.mu.Unlock()

	if stale {
		b.logger.Debug("dropping superseded result",
			zap.Uint64("seq", seq),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			// The caller's context went away; nobody is waiting for this.
			b.publish(State{Phase: Idle, Seq: seq})
			return
		}
		msg := Classify(err)
		b.logger.Warn("request failed",
			zap.Uint64("seq", seq),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		b.publish(State{Phase: Errored, Error: msg, Seq: seq})
		return
	}

	if strings.TrimSpace(answer) == "" {
		b.logger.Warn("empty answer", zap.Uint64("seq", seq))
		b.publish(State{Phase: Errored, Error: MsgMalformed, Seq: seq})
		return
	}

	b.logger.Debug("request answered",
		zap.Uint64("seq", seq),
		zap.Duration("duration", time.Since(start)))
	b.publish(State{Phase: Answered, Answer: answer, Seq: seq})
}

// publish sets the tagged state and derives the three channels from it.
// The caller holds pubMu.
func (b *Bridge) publish(s State) {
	b.state.Set(s)

	switch s.Phase {
	case Loading:
		b.loading.Set(true)
		b.answer.Set(nil)
		b.errMsg.Set(nil)
	case Answered:
		b.answer.Set(&s.Answer)
		b.loading.Set(false)
	case Errored:
		b.errMsg.Set(&s.Error)
		b.loading.Set(false)
	default:
		b.answer.Set(nil)
		b.errMsg.Set(nil)
		b.loading.Set(false)
	}

	b.mu.Lock()
	b.settled = s
	close(b.changed)
	b.changed = make(chan struct{})
	b.mu.Unlock()
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
