// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// =============================================================================
// HELPERS
// =============================================================================

// leakOptions ignores the stats worker that genai's opencensus dependency
// starts from init and never stops.
var leakOptions = []goleak.Option{
	goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
}

// recorder captures every emission on the three derived channels.
type recorder struct {
	mu      sync.Mutex
	loading []bool
	answer  []*string
	errs    []*string
}

func record(b *Bridge) *recorder {
	r := &recorder{}
	b.Loading().Subscribe(func(v bool) {
		r.mu.Lock()
		r.loading = append(r.loading, v)
		r.mu.Unlock()
	})
	b.Answer().Subscribe(func(v *string) {
		r.mu.Lock()
		r.answer = append(r.answer, v)
		r.mu.Unlock()
	})
	b.Error().Subscribe(func(v *string) {
		r.mu.Lock()
		r.errs = append(r.errs, v)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) snapshot() ([]bool, []*string, []*string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.loading...),
		append([]*string(nil), r.answer...),
		append([]*string(nil), r.errs...)
}

func strp(s string) *string { return &s }

func fixed(answer string, err error) Transport {
	return TransportFunc(func(ctx context.Context, q string) (string, error) {
		return answer, err
	})
}

func waitResolved(t *testing.T, b *Bridge) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := b.Wait(ctx)
	require.NoError(t, err)
	return s
}

// =============================================================================
// CHANNEL SEQUENCES
// =============================================================================

func TestBridge_AnswerSequence(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	b := NewBridge(fixed("Y", nil), nil)
	defer b.Close()
	r := record(b)

	require.NoError(t, b.Ask(context.Background(), "X"))
	s := waitResolved(t, b)

	loading, answer, errs := r.snapshot()
	assert.Equal(t, []bool{false, true, false}, loading)
	assert.Equal(t, []*string{nil, strp("Y")}, answer)
	assert.Equal(t, []*string{nil}, errs)

	assert.Equal(t, Answered, s.Phase)
	assert.Equal(t, "Y", s.Answer)
}

func TestBridge_HTTPErrorSequence(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	b := NewBridge(fixed("", &StatusError{Status: 500, ServerMessage: "boom"}), nil)
	defer b.Close()
	r := record(b)

	require.NoError(t, b.Ask(context.Background(), "X"))
	s := waitResolved(t, b)

	loading, answer, errs := r.snapshot()
	assert.Equal(t, []bool{false, true, false}, loading)
	assert.Equal(t, []*string{nil}, answer)
	require.Len(t, errs, 2)
	assert.Contains(t, *errs[1], "boom")
	assert.Contains(t, *errs[1], "500")
	assert.Equal(t, Errored, s.Phase)
	assert.False(t, b.Loading().Get())
}

func TestBridge_NetworkErrorSequence(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	b := NewBridge(fixed("", ErrUnreachable), nil)
	defer b.Close()
	r := record(b)

	require.NoError(t, b.Ask(context.Background(), "X"))
	waitResolved(t, b)

	loading, answer, errs := r.snapshot()
	assert.Equal(t, []bool{false, true, false}, loading)
	assert.Equal(t, []*string{nil}, answer)
	assert.Equal(t, []*string{nil, strp(MsgNetwork)}, errs)
}

func TestBridge_MalformedAndEmptyAnswers(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	for name, tr := range map[string]Transport{
		"malformed": fixed("", ErrMalformedResponse),
		"empty":     fixed("   ", nil),
	} {
		t.Run(name, func(t *testing.T) {
			b := NewBridge(tr, nil)
			defer b.Close()

			require.NoError(t, b.Ask(context.Background(), "X"))
			s := waitResolved(t, b)

			assert.Equal(t, Errored, s.Phase)
			assert.Equal(t, MsgMalformed, s.Error)
			assert.Nil(t, b.Answer().Get())
		})
	}
}

func TestBridge_ServerErrorIn2xxBody(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	b := NewBridge(fixed("", &ServerError{Message: "quota reached"}), nil)
	defer b.Close()

	require.NoError(t, b.Ask(context.Background(), "X"))
	s := waitResolved(t, b)
	assert.Equal(t, "quota reached", s.Error)
}

func TestBridge_LoadingBeforeNetwork(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	var b *Bridge
	var sawLoading bool
	b = NewBridge(TransportFunc(func(ctx context.Context, q string) (string, error) {
		sawLoading = b.Loading().Get()
		return "ok", nil
	}), nil)
	defer b.Close()

	require.NoError(t, b.Ask(context.Background(), "X"))
	waitResolved(t, b)
	assert.True(t, sawLoading)
}

func TestBridge_NewAskClearsPreviousOutcome(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	calls := 0
	b := NewBridge(TransportFunc(func(ctx context.Context, q string) (string, error) {
		calls++
		if calls == 1 {
			return "", ErrUnreachable
		}
		return "second", nil
	}), nil)
	defer b.Close()

	require.NoError(t, b.Ask(context.Background(), "one"))
	waitResolved(t, b)
	require.NotNil(t, b.Error().Get())

	r := record(b)
	require.NoError(t, b.Ask(context.Background(), "two"))
	waitResolved(t, b)

	loading, answer, errs := r.snapshot()
	assert.Equal(t, []bool{false, true, false}, loading)
	assert.Equal(t, []*string{nil, strp("second")}, answer)
	assert.Equal(t, []*string{strp(MsgNetwork), nil}, errs)
}

// =============================================================================
// CLEAR / SUPERSEDE
// =============================================================================

func TestBridge_Clear(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	b := NewBridge(fixed("", ErrUnreachable), nil)
	defer b.Close()

	require.NoError(t, b.Ask(context.Background(), "X"))
	waitResolved(t, b)

	b.Clear()
	s := b.State().Get()
	assert.Equal(t, Idle, s.Phase)
	assert.Nil(t, b.Answer().Get())
	assert.Nil(t, b.Error().Get())
	assert.False(t, b.Loading().Get())
}

func TestBridge_ClearCancelsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	started := make(chan struct{})
	b := NewBridge(TransportFunc(func(ctx context.Context, q string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}), nil)
	defer b.Close()

	require.NoError(t, b.Ask(context.Background(), "X"))
	<-started
	b.Clear()

	assert.Equal(t, Idle, b.State().Get().Phase)
	assert.False(t, b.Loading().Get())
}

func TestBridge_LastCallWins(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	release := make(chan struct{})
	firstCancelled := make(chan struct{})
	b := NewBridge(TransportFunc(func(ctx context.Context, q string) (string, error) {
		if q == "first" {
			<-ctx.Done()
			close(firstCancelled)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	}), nil)
	defer b.Close()
	r := record(b)

	require.NoError(t, b.Ask(context.Background(), "first"))
	require.NoError(t, b.Ask(context.Background(), "second"))
	<-firstCancelled

	s := waitResolved(t, b)
	assert.Equal(t, "fresh", s.Answer)

	// Let the superseded request finish; its result must not surface.
	close(release)
	require.NoError(t, b.Close())

	assert.Equal(t, "fresh", *b.Answer().Get())
	loading, answer, _ := r.snapshot()
	assert.Equal(t, []bool{false, true, false}, loading)
	assert.Equal(t, []*string{nil, strp("fresh")}, answer)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestBridge_EmptyQuestion(t *testing.T) {
	b := NewBridge(fixed("unused", nil), nil)
	defer b.Close()

	err := b.Ask(context.Background(), "  \n ")
	assert.True(t, errors.Is(err, ErrEmptyQuestion))
	assert.Equal(t, Idle, b.State().Get().Phase)
}

func TestBridge_AskAfterClose(t *testing.T) {
	b := NewBridge(fixed("unused", nil), nil)
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Ask(context.Background(), "X"), ErrClosed)
}

func TestBridge_CloseCancelsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	b := NewBridge(TransportFunc(func(ctx context.Context, q string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), nil)

	require.NoError(t, b.Ask(context.Background(), "X"))
	require.NoError(t, b.Close())
	assert.False(t, b.Loading().Get())
}

func TestBridge_WaitHonoursContext(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	b := NewBridge(TransportFunc(func(ctx context.Context, q string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), nil)
	defer b.Close()

	require.NoError(t, b.Ask(context.Background(), "X"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s, err := b.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Loading, s.Phase)
}

func TestBridge_WaitWhenIdle(t *testing.T) {
	b := NewBridge(fixed("unused", nil), nil)
	defer b.Close()

	s, err := b.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Idle, s.Phase)
}

func TestBridge_RequestDeadline(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	b := NewBridge(TransportFunc(func(ctx context.Context, q string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), nil)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.NoError(t, b.Ask(ctx, "X"))

	s := waitResolved(t, b)
	assert.Equal(t, Errored, s.Phase)
	assert.Equal(t, MsgTimeout, s.Error)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "answered", Answered.String())
	assert.Equal(t, "errored", Errored.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
