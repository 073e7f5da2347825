// SPDX-License-Identifier: BSD-3-Clause

package dnsfwd

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestNewQuery(t *testing.T) {
	query, err := NewQuery("www.example.com", dns.TypeA)
	require.NoError(t, err)

	require.False(t, query.Header.QR())
	require.True(t, query.Header.RD())
	require.Equal(t, uint16(1), query.Header.QDCount)
	require.Len(t, query.Questions, 1)
	require.Equal(t, "www.example.com", query.Questions[0].Name)
	require.Equal(t, dns.TypeA, query.Questions[0].Type)
	require.Equal(t, uint16(dns.ClassINET), query.Questions[0].Class)
}

func TestNewQueryIDNA(t *testing.T) {
	query, err := NewQuery("bücher.example", dns.TypeA)
	require.NoError(t, err)
	require.Equal(t, "xn--bcher-kva.example", query.Questions[0].Name)
}

func TestNewQueryIDNAError(t *testing.T) {
	_, err := NewQuery("bad name.example", dns.TypeA)
	require.Error(t, err)
}

func TestMessageClone(t *testing.T) {
	msg := &Message{}
	msg.Header.ID = 1234
	msg.Header.SetRD(true)
	msg.Questions = []Question{{Name: "www.example.com", Type: dns.TypeA, Class: dns.ClassINET}}
	msg.Answers = []ResourceRecord{{
		Name:  "www.example.com",
		Type:  dns.TypeA,
		Class: dns.ClassINET,
		TTL:   60,
		Data:  []byte{127, 0, 0, 1},
	}}
	msg.SyncCounts()

	clone := msg.Clone()
	require.NotSame(t, msg, clone)
	require.Equal(t, msg, clone)

	clone.Header.ID = 5678
	clone.Questions[0].Name = "www.example.net"
	clone.Answers[0].Data[0] = 8

	require.Equal(t, uint16(1234), msg.Header.ID)
	require.Equal(t, "www.example.com", msg.Questions[0].Name)
	require.Equal(t, []byte{127, 0, 0, 1}, msg.Answers[0].Data)
}
