// SPDX-License-Identifier: GPL-3.0-or-later

package dnsfwd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Errors emitted by [*Forwarder.Exchange]. All of them wrap
// [ErrForward], so callers can match the whole family with a single
// [errors.Is] check.
var (
	// ErrForward is the base error for failed upstream exchanges.
	ErrForward = errors.New("cannot forward DNS query")

	// ErrUpstreamTimeout means no reply arrived within the timeout.
	ErrUpstreamTimeout = fmt.Errorf("%w: upstream timeout", ErrForward)

	// ErrUpstreamUnreachable means we could not send the query.
	ErrUpstreamUnreachable = fmt.Errorf("%w: upstream unreachable", ErrForward)

	// ErrUpstreamMalformedResponse means the reply did not decode or
	// does not match the query transaction.
	ErrUpstreamMalformedResponse = fmt.Errorf("%w: malformed upstream response", ErrForward)
)

// DefaultForwardTimeout is the reply wait used when [Forwarder.Timeout]
// is zero.
const DefaultForwardTimeout = 5 * time.Second

// maxReplySize is the buffer used to receive the upstream reply.
const maxReplySize = 4096

// Exchanger forwards a single-question query upstream and returns the
// decoded reply. [*Forwarder] is the UDP implementation; tests may
// substitute their own.
type Exchanger interface {
	Exchange(ctx context.Context, query *Message) (*Message, error)
}

// Forwarder sends single-question queries to an upstream recursive
// resolver over UDP, one fresh socket per exchange.
//
// Construct by setting the MANDATORY fields.
type Forwarder struct {
	// Resolver is the MANDATORY "host:port" of the upstream resolver.
	Resolver string

	// Timeout is the OPTIONAL reply wait, [DefaultForwardTimeout]
	// when zero.
	Timeout time.Duration
}

var _ Exchanger = &Forwarder{}

// Exchange encodes the query, sends it to the upstream resolver, and
// awaits exactly one reply datagram, which it decodes and validates.
//
// The socket is released when Exchange returns and also when ctx is
// canceled while the exchange is still in flight. The query keeps
// whatever transaction ID it carries; the reply must echo it.
func (f *Forwarder) Exchange(ctx context.Context, query *Message) (*Message, error) {
	// 1. serialize the query; a failure here is a caller bug, not an
	// upstream condition, so it surfaces untranslated
	raw, err := Encode(query)
	if err != nil {
		return nil, err
	}

	// 2. open a fresh socket for this exchange
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", f.Resolver)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamUnreachable, err.Error())
	}
	defer conn.Close()

	// Unblock the pending read when the caller goes away.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultForwardTimeout
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamUnreachable, err.Error())
	}

	// 3. send the query
	if _, err := conn.Write(raw); err != nil {
		return nil, f.classify(ctx, err, ErrUpstreamUnreachable)
	}

	// 4. await exactly one reply datagram
	buffer := make([]byte, maxReplySize)
	count, err := conn.Read(buffer)
	if err != nil {
		return nil, f.classify(ctx, err, ErrUpstreamUnreachable)
	}

	// 5. decode and validate the reply
	resp, err := Decode(buffer[:count])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamMalformedResponse, err.Error())
	}
	if !resp.Header.QR() || resp.Header.ID != query.Header.ID {
		return nil, ErrUpstreamMalformedResponse
	}
	return resp, nil
}

// classify maps a socket error to the forward error taxonomy, giving
// precedence to caller cancellation over the generic fallback.
func (f *Forwarder) classify(ctx context.Context, err, fallback error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s", ErrUpstreamTimeout, err.Error())
	}
	return fmt.Errorf("%w: %s", fallback, err.Error())
}
