// Package rpc dispatches decoded protocol.Message values to registered
// handlers and encodes handler results back onto a transport: a
// name-keyed handler table, request/notification routing, and handler
// errors turned into error responses for requests (and logged, not
// answered, for notifications).
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/wharflab/sqfls/internal/protocol"
	"github.com/wharflab/sqfls/internal/transport"
)

// Handler processes a single request or notification. For a request, the
// returned value is JSON-encoded as the result; a returned error becomes
// an error response. For a notification, the returned value is ignored
// and a non-nil error is only logged.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Peer wires a transport to a method-dispatch table and exposes a method
// to send the server's own outbound requests/notifications.
type Peer struct {
	tr *transport.Transport

	mu       sync.RWMutex
	handlers map[string]Handler

	nextID atomic.Int64

	logger *log.Logger
}

// New builds a Peer over the given transport.
func New(tr *transport.Transport, logger *log.Logger) *Peer {
	return &Peer{tr: tr, handlers: make(map[string]Handler), logger: logger}
}

// Register installs (or replaces) the handler for method. Re-registering
// a method overwrites the previous handler.
func (p *Peer) Register(method string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[method] = h
}

func (p *Peer) handlerFor(method string) (Handler, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.handlers[method]
	return h, ok
}

// Pump drains the transport's Incoming channel, decoding and routing each
// message until the channel closes or ctx is done.
func (p *Peer) Pump(ctx context.Context) {
	for {
		select {
		case body, ok := <-p.tr.Incoming():
			if !ok {
				return
			}
			p.dispatch(ctx, body)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Peer) dispatch(ctx context.Context, body []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		p.logger.Printf("rpc: discarding malformed message: %v", err)
		return
	}

	switch {
	case msg.IsRequest():
		p.dispatchRequest(ctx, &msg)
	case msg.IsNotification():
		p.dispatchNotification(ctx, &msg)
	default:
		p.logger.Printf("rpc: discarding message that is neither request nor notification: %s", msg.Method)
	}
}

func (p *Peer) dispatchRequest(ctx context.Context, msg *protocol.Message) {
	h, ok := p.handlerFor(msg.Method)
	if !ok {
		p.replyError(*msg.ID, protocol.ErrorCodeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
		return
	}
	result, err := h(ctx, msg.Params)
	if err != nil {
		p.replyError(*msg.ID, protocol.ErrorCodeInternalError, err.Error())
		return
	}
	resp, err := protocol.NewResult(*msg.ID, result)
	if err != nil {
		p.replyError(*msg.ID, protocol.ErrorCodeInternalError, err.Error())
		return
	}
	p.sendMessage(ctx, resp)
}

func (p *Peer) dispatchNotification(ctx context.Context, msg *protocol.Message) {
	h, ok := p.handlerFor(msg.Method)
	if !ok {
		// Unmatched notifications are silently dropped: there is no peer
		// waiting on a response to fail.
		return
	}
	if _, err := h(ctx, msg.Params); err != nil {
		p.logger.Printf("rpc: notification handler for %s failed: %v", msg.Method, err)
	}
}

func (p *Peer) replyError(id protocol.ID, code int, message string) {
	p.sendMessage(context.Background(), protocol.NewError(id, code, message))
}

func (p *Peer) sendMessage(ctx context.Context, msg *protocol.Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		p.logger.Printf("rpc: failed to encode outgoing message: %v", err)
		return
	}
	if err := p.tr.Send(ctx, raw); err != nil {
		p.logger.Printf("rpc: failed to send message: %v", err)
	}
}

// Notify sends an outbound notification.
func (p *Peer) Notify(ctx context.Context, method string, params any) error {
	msg, err := protocol.NewNotification(method, params)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.tr.Send(ctx, raw)
}

// nextRequestID returns a monotonically increasing id for outbound
// server-initiated requests.
func (p *Peer) nextRequestID() string {
	return fmt.Sprintf("%d", p.nextID.Add(1))
}

// Request sends an outbound request with the next id from the counter.
// This server issues none today.
func (p *Peer) Request(ctx context.Context, method string, params any) error {
	msg, err := protocol.NewRequest(p.nextRequestID(), method, params)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.tr.Send(ctx, raw)
}
