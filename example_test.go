// SPDX-License-Identifier: GPL-3.0-or-later

package dnsfwd_test

import (
	"context"
	"fmt"

	"github.com/bassosimone/dnsfwd"
	"github.com/bassosimone/runtimex"
	"github.com/miekg/dns"
)

func Example_encodeDecode() {
	query := runtimex.PanicOnError1(dnsfwd.NewQuery("www.example.com", dns.TypeA))

	// Use a deterministic query ID to have deterministic output. In
	// production keep the randomized default.
	query.Header.ID = 37

	raw := runtimex.PanicOnError1(dnsfwd.Encode(query))
	parsed := runtimex.PanicOnError1(dnsfwd.Decode(raw))
	fmt.Printf("id=%d rd=%v question=%s\n",
		parsed.Header.ID, parsed.Header.RD(), parsed.Questions[0].Name)

	// Output:
	// id=37 rd=true question=www.example.com
}

// staticExchanger answers every sub-query with a fixed A record, in
// place of a real [*dnsfwd.Forwarder].
type staticExchanger struct{}

func (staticExchanger) Exchange(ctx context.Context, query *dnsfwd.Message) (*dnsfwd.Message, error) {
	resp := query.Clone()
	resp.Header.SetQR(true)
	resp.Header.SetRA(true)
	resp.Answers = []dnsfwd.ResourceRecord{{
		Name:  query.Questions[0].Name,
		Type:  dns.TypeA,
		Class: dns.ClassINET,
		TTL:   60,
		Data:  []byte{93, 184, 216, 34},
	}}
	resp.SyncCounts()
	return resp, nil
}

func Example_splitAndMerge() {
	incoming := &dnsfwd.Message{}
	incoming.Header.ID = 37
	incoming.Header.SetRD(true)
	incoming.Questions = []dnsfwd.Question{
		{Name: "www.example.com", Type: dns.TypeA, Class: dns.ClassINET},
		{Name: "www.example.org", Type: dns.TypeA, Class: dns.ClassINET},
	}
	incoming.SyncCounts()

	proc := &dnsfwd.Processor{Exchanger: staticExchanger{}}
	out := runtimex.PanicOnError1(proc.Process(context.Background(), incoming))
	fmt.Printf("id=%d questions=%d answers=%d rcode=%d\n",
		out.Header.ID, out.Header.QDCount, out.Header.ANCount, out.Header.Rcode())

	// Output:
	// id=37 questions=2 answers=2 rcode=0
}
