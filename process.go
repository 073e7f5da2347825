// SPDX-License-Identifier: GPL-3.0-or-later

package dnsfwd

import (
	"context"
	"sync"

	"github.com/miekg/dns"
)

// Processor splits a multi-question message into single-question
// sub-queries, forwards them via the configured [Exchanger], and merges
// the answers back into one response.
//
// Construct by setting the MANDATORY fields.
type Processor struct {
	// Exchanger is the MANDATORY upstream used for each sub-query.
	Exchanger Exchanger
}

// forwardResult is one child outcome tagged by original question index
// through its position in the results slice.
type forwardResult struct {
	resp *Message
	err  error
}

// Process turns an incoming query message into the outgoing response
// message.
//
// Each question becomes an independent single-question child query with
// its own transaction ID, forwarded concurrently. The merged response
// keeps the incoming transaction ID and question order, concatenates
// the children's answers in original-question order, and drops the
// children's authority and additional sections.
//
// A failed child never aborts its siblings: its question contributes
// zero answers and SERVFAIL enters the RCODE selection at that slot.
// The response RCODE is the first non-zero RCODE in original-question
// order, or zero when every child succeeded.
//
// The returned error is reserved for conditions preventing any response
// at all; partial upstream failure is not one of them.
func (p *Processor) Process(ctx context.Context, incoming *Message) (*Message, error) {
	// 1. an empty question section is a malformed query: answer
	// FORMERR without touching the upstream
	if len(incoming.Questions) == 0 {
		out := newResponse(incoming)
		out.Header.SetRcode(dns.RcodeFormatError)
		out.SyncCounts()
		return out, nil
	}

	// 2. fan out one single-question child per question, joining the
	// results by original question index so that merge order never
	// depends on completion order
	results := make([]forwardResult, len(incoming.Questions))
	var wg sync.WaitGroup
	for idx, question := range incoming.Questions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := p.Exchanger.Exchange(ctx, newChildQuery(incoming, question))
			results[idx] = forwardResult{resp: resp, err: err}
		}()
	}
	wg.Wait()

	// 3. merge: answers concatenated in original-question order, RCODE
	// resolved first-nonzero-wins in the same order
	out := newResponse(incoming)
	out.Questions = append([]Question(nil), incoming.Questions...)
	rcode := uint8(dns.RcodeSuccess)
	for _, result := range results {
		if result.err != nil {
			if rcode == dns.RcodeSuccess {
				rcode = dns.RcodeServerFailure
			}
			continue
		}
		out.Answers = append(out.Answers, result.resp.Answers...)
		if rcode == dns.RcodeSuccess {
			rcode = result.resp.Header.Rcode()
		}
	}
	out.Header.SetRcode(rcode)
	out.SyncCounts()
	return out, nil
}

// newChildQuery builds the single-question sub-query for one incoming
// question: fresh transaction ID, incoming flags with QR cleared (RD in
// particular is preserved), exactly one question.
func newChildQuery(incoming *Message, question Question) *Message {
	child := &Message{}
	child.Header.ID = dns.Id()
	child.Header.Flags = incoming.Header.Flags
	child.Header.SetQR(false)
	child.Questions = []Question{question}
	child.SyncCounts()
	return child
}

// newResponse builds the skeleton of the outgoing message: transaction
// ID and Opcode/RD copied from the incoming message, QR and RA set.
func newResponse(incoming *Message) *Message {
	out := &Message{}
	out.Header.ID = incoming.Header.ID
	out.Header.SetQR(true)
	out.Header.SetOpcode(incoming.Header.Opcode())
	out.Header.SetRD(incoming.Header.RD())
	out.Header.SetRA(true)
	return out
}
