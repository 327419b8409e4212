package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/sqfls/internal/protocol"
	"github.com/wharflab/sqfls/internal/transport"
)

type threadSafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *threadSafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *threadSafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestPeer(t *testing.T, input string) (*Peer, *threadSafeBuffer) {
	t.Helper()
	out := &threadSafeBuffer{}
	tr := transport.New(bytes.NewReader([]byte(input)), out, transport.HeaderErrorSkip)
	p := New(tr, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go tr.Run(ctx)
	return p, out
}

func frame(body string) string {
	return "Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
}

func jsonNum(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestDispatchRequestRoutesToRegisteredHandler(t *testing.T) {
	t.Parallel()
	msg := `{"jsonrpc":"2.0","id":"1","method":"ping","params":{}}`
	p, out := newTestPeer(t, frame(msg))

	p.Register("ping", func(_ context.Context, _ json.RawMessage) (any, error) {
		return map[string]string{"pong": "ok"}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go p.Pump(ctx)

	require.Eventually(t, func() bool {
		return len(out.String()) > 0
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), `"pong":"ok"`)
}

func TestDispatchRequestUnknownMethodRepliesMethodNotFound(t *testing.T) {
	t.Parallel()
	msg := `{"jsonrpc":"2.0","id":"1","method":"doesNotExist"}`
	p, out := newTestPeer(t, frame(msg))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go p.Pump(ctx)

	require.Eventually(t, func() bool {
		return len(out.String()) > 0
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), jsonNum(protocol.ErrorCodeMethodNotFound))
}

func TestDispatchNotificationUnknownMethodIsSilentlyDropped(t *testing.T) {
	t.Parallel()
	msg := `{"jsonrpc":"2.0","method":"unhandledNotification"}`
	p, out := newTestPeer(t, frame(msg))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	p.Pump(ctx)

	assert.Empty(t, out.String())
}

func TestRegisterOverwritesPreviousHandler(t *testing.T) {
	t.Parallel()
	p := New(transport.New(bytes.NewReader(nil), io.Discard, transport.HeaderErrorSkip), log.New(io.Discard, "", 0))

	calls := 0
	p.Register("m", func(_ context.Context, _ json.RawMessage) (any, error) { calls++; return "first", nil })
	p.Register("m", func(_ context.Context, _ json.RawMessage) (any, error) { calls++; return "second", nil })

	h, ok := p.handlerFor("m")
	require.True(t, ok)
	result, err := h(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "second", result)
	assert.Equal(t, 1, calls)
}

func TestNotifySendsWellFormedNotification(t *testing.T) {
	t.Parallel()
	out := &threadSafeBuffer{}
	tr := transport.New(bytes.NewReader(nil), out, transport.HeaderErrorSkip)
	p := New(tr, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	require.NoError(t, p.Notify(context.Background(), "window/logMessage", map[string]any{"type": 3, "message": "hi"}))
	require.Eventually(t, func() bool { return len(out.String()) > 0 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), `"method":"window/logMessage"`)
}
