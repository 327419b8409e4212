package transport

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHeadersSingleMessage(t *testing.T) {
	t.Parallel()
	tr, got := runReader(t, "Content-Length: 5\r\n\r\nhello")
	select {
	case body := <-got:
		assert.Equal(t, "hello", string(body))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	tr.Close()
}

func TestReadHeadersTwoBackToBackMessages(t *testing.T) {
	t.Parallel()
	_, got := runReader(t, "Content-Length: 2\r\n\r\nabContent-Length: 3\r\n\r\nxyz")

	first := <-got
	second := <-got
	assert.Equal(t, "ab", string(first))
	assert.Equal(t, "xyz", string(second))
}

func TestSkipPolicySkipsMalformedHeaderBlock(t *testing.T) {
	t.Parallel()
	// A malformed header line ("garbage" has no colon) followed by a
	// well-formed message: in skip mode the reader discards the
	// malformed block and still parses the next complete message.
	input := "garbage\r\n\r\nContent-Length: 5\r\n\r\nhello"

	r := bytes.NewReader([]byte(input))
	tr := New(r, io.Discard, HeaderErrorSkip)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	select {
	case body := <-tr.Incoming():
		assert.Equal(t, "hello", string(body))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message after malformed header")
	}
}

func TestFatalPolicyStopsOnMalformedHeader(t *testing.T) {
	t.Parallel()
	input := "garbage\r\n\r\nContent-Length: 5\r\n\r\nhello"
	r := bytes.NewReader([]byte(input))
	tr := New(r, io.Discard, HeaderErrorFatal)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	select {
	case err := <-tr.Errs():
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("expected a fatal transport error")
	}
}

func TestSendWritesFramedMessage(t *testing.T) {
	t.Parallel()
	var buf threadSafeBuffer
	tr := New(bytes.NewReader(nil), &buf, HeaderErrorSkip)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	require.NoError(t, tr.Send(context.Background(), []byte("hi")))
	time.Sleep(50 * time.Millisecond)

	assert.Contains(t, buf.String(), "Content-Length: 2\r\n")
	assert.Contains(t, buf.String(), "Content-Type: application/json-rpc;charset=utf-8\r\n\r\nhi")
}

func runReader(t *testing.T, input string) (*Transport, <-chan []byte) {
	t.Helper()
	r := bytes.NewReader([]byte(input))
	tr := New(r, io.Discard, HeaderErrorSkip)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go tr.Run(ctx)
	return tr, tr.Incoming()
}

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
