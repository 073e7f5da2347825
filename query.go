//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/bassosimone/dnscodec/blob/main/query.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/query.go
//

package dnsfwd

import (
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

// NewQuery constructs a single-question query [*Message] with safe
// defaults: a randomized transaction ID, recursion desired, and the IN
// class. The domain name is IDNA encoded before being used.
func NewQuery(name string, qtype uint16) (*Message, error) {
	// IDNA encode the domain name.
	punyName, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return nil, err
	}

	// The codec uses dotted names without the trailing dot.
	punyName = strings.TrimSuffix(punyName, ".")

	// Create the query message.
	msg := &Message{}
	msg.Header.ID = dns.Id()
	msg.Header.SetRD(true)
	msg.Questions = []Question{{
		Name:  punyName,
		Type:  qtype,
		Class: dns.ClassINET,
	}}
	msg.SyncCounts()
	return msg, nil
}
