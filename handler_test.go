// SPDX-License-Identifier: GPL-3.0-or-later

package dnsfwd

import (
	"context"
	"testing"

	"github.com/bassosimone/runtimex"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestHandlerHandle(t *testing.T) {
	mock := &mockExchanger{fn: func(ctx context.Context, query *Message) (*Message, error) {
		return replyWithAnswers(query, []byte{5, 5, 5, 5}), nil
	}}
	handler := &Handler{Processor: &Processor{Exchanger: mock}}

	incoming := newIncoming(31337, "a.example", "b.example")
	raw := runtimex.PanicOnError1(Encode(incoming))

	rawResp, err := handler.Handle(context.Background(), raw)
	require.NoError(t, err)

	resp, err := Decode(rawResp)
	require.NoError(t, err)
	require.Equal(t, uint16(31337), resp.Header.ID)
	require.True(t, resp.Header.QR())
	require.Equal(t, uint8(dns.RcodeSuccess), resp.Header.Rcode())
	require.Equal(t, incoming.Questions, resp.Questions)
	require.Len(t, resp.Answers, 2)
}

func TestHandlerHandleMalformedPacket(t *testing.T) {
	mock := &mockExchanger{fn: func(ctx context.Context, query *Message) (*Message, error) {
		return replyWithAnswers(query, []byte{5, 5, 5, 5}), nil
	}}
	handler := &Handler{Processor: &Processor{Exchanger: mock}}

	resp, err := handler.Handle(context.Background(), []byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrDecode)
	require.Nil(t, resp)
	require.Equal(t, 0, mock.calls)
}
