// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/novagem/internal/api"
	"github.com/jeranaias/novagem/internal/chatstate"
	"github.com/jeranaias/novagem/internal/model"
	"github.com/jeranaias/novagem/internal/storage"
)

// leakOptions ignores the stats worker that genai's opencensus dependency
// starts from init and never stops.
var leakOptions = []goleak.Option{
	goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
}

func newManager(t *testing.T, tr api.Transport) (*Manager, *storage.HistoryStore) {
	t.Helper()
	hs := storage.NewHistoryStore(storage.NewMemory(), nil)
	mgr := NewManager(chatstate.New(hs, nil), api.NewBridge(tr, nil), nil)
	return mgr, hs
}

func echo() api.Transport {
	return api.TransportFunc(func(ctx context.Context, q string) (string, error) {
		return "echo: " + q, nil
	})
}

func blocking(started chan<- struct{}) api.Transport {
	var once sync.Once
	return api.TransportFunc(func(ctx context.Context, q string) (string, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return "", ctx.Err()
	})
}

func ctxTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestManager_AskResolvesPlaceholderInPlace(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)
	mgr, hs := newManager(t, echo())
	defer mgr.Close()

	answer, err := mgr.Ask(ctxTimeout(t), "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", answer.Text)
	assert.Equal(t, model.RoleAI, answer.Role)
	assert.False(t, answer.Pending)

	snap := mgr.Bus().Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, model.RoleUser, snap[0].Role)
	assert.Equal(t, "hello", snap[0].Text)
	assert.Equal(t, answer.ID, snap[1].ID)

	persisted := hs.Load()
	require.Len(t, persisted, 2)
	assert.Equal(t, "echo: hello", persisted[1].Text)
	assert.False(t, mgr.Busy())
}

func TestManager_ErrorBecomesErrorMessage(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)
	mgr, _ := newManager(t, api.TransportFunc(func(ctx context.Context, q string) (string, error) {
		return "", &api.StatusError{Status: 403}
	}))
	defer mgr.Close()

	msg, err := mgr.Ask(ctxTimeout(t), "secret")
	require.NoError(t, err)
	assert.True(t, msg.IsError)
	assert.Equal(t, model.ErrorPrefix+api.MsgForbidden, msg.Text)
}

func TestManager_SubmitRejectedWhileBusy(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)
	started := make(chan struct{})
	mgr, _ := newManager(t, blocking(started))
	defer mgr.Close()

	_, err := mgr.Submit(context.Background(), "first")
	require.NoError(t, err)
	<-started

	assert.True(t, mgr.Busy())
	_, err = mgr.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 2, mgr.Bus().Len(), "rejected submit must not add messages")

	snap := mgr.Bus().Snapshot()
	assert.True(t, snap[1].Pending)
}

func TestManager_EmptyInput(t *testing.T) {
	mgr, _ := newManager(t, echo())
	defer mgr.Close()
	_, err := mgr.Submit(context.Background(), " \n\t ")
	assert.True(t, errors.Is(err, ErrEmptyQuestion))
	assert.Equal(t, 0, mgr.Bus().Len())
}

func TestManager_DismissCancelsPending(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)
	started := make(chan struct{})
	mgr, _ := newManager(t, blocking(started))
	defer mgr.Close()

	_, err := mgr.Submit(context.Background(), "q")
	require.NoError(t, err)
	<-started

	mgr.Dismiss()

	assert.False(t, mgr.Busy())
	snap := mgr.Bus().Snapshot()
	require.Len(t, snap, 2)
	assert.True(t, snap[1].IsError)
	assert.Equal(t, model.ErrorPrefix+CancelledReason, snap[1].Text)
}

func TestManager_ClearHistoryWhilePending(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)
	started := make(chan struct{})
	mgr, hs := newManager(t, blocking(started))
	defer mgr.Close()

	_, err := mgr.Submit(context.Background(), "q")
	require.NoError(t, err)
	<-started

	mgr.ClearHistory()

	assert.Empty(t, mgr.Bus().Snapshot())
	assert.Empty(t, hs.Load())
	assert.False(t, mgr.Busy())

	// The session accepts new questions afterwards.
	_, err = mgr.Submit(context.Background(), "again")
	assert.NoError(t, err)
}

func TestManager_CloseMarksInterrupted(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)
	started := make(chan struct{})
	mgr, hs := newManager(t, blocking(started))
	defer mgr.Close()

	_, err := mgr.Submit(context.Background(), "q")
	require.NoError(t, err)
	<-started

	require.NoError(t, mgr.Close())

	persisted := hs.Load()
	require.Len(t, persisted, 2)
	assert.False(t, persisted[1].Pending)
	assert.Equal(t, model.ErrorPrefix+chatstate.InterruptedReason, persisted[1].Text)

	_, err = mgr.Submit(context.Background(), "late")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestManager_SequentialQuestions(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)
	mgr, _ := newManager(t, echo())
	defer mgr.Close()

	for _, q := range []string{"a", "b", "c"} {
		_, err := mgr.Ask(ctxTimeout(t), q)
		require.NoError(t, err)
	}

	snap := mgr.Bus().Snapshot()
	require.Len(t, snap, 6)
	for i, q := range []string{"a", "b", "c"} {
		assert.Equal(t, q, snap[2*i].Text)
		assert.Equal(t, "echo: "+q, snap[2*i+1].Text)
	}
}
