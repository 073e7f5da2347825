// SPDX-License-Identifier: GPL-3.0-or-later

// Package dnsfwd is a DNS forwarding engine with its own wire codec.
//
// [Decode] and [Encode] convert between raw RFC 1035 packets and the
// [*Message] model, including compressed domain names. [*Forwarder]
// relays a single-question query to an upstream resolver over UDP with
// a bounded wait. [*Processor] splits a multi-question message into
// independent single-question sub-queries, forwards them, and merges
// the answers back into one response preserving the original transaction
// ID and question order. [*Handler] ties decode, process, and encode
// together for one request/response cycle, and [*Server] runs the UDP
// listen loop around it.
package dnsfwd
