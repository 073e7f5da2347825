// SPDX-License-Identifier: GPL-3.0-or-later

package dnsfwd

// headerSize is the size of the fixed DNS header.
const headerSize = 12

// Header is the fixed 12-byte DNS message header.
//
// The QR, Opcode, AA, TC, RD, RA, Z, and RCODE sub-fields are packed
// into Flags the same way they appear on the wire; use the accessor
// methods instead of manipulating Flags directly.
type Header struct {
	// ID is the 16-bit transaction ID.
	ID uint16

	// Flags holds the packed flag sub-fields.
	Flags uint16

	// QDCount is the number of entries in the question section.
	QDCount uint16

	// ANCount is the number of entries in the answer section.
	ANCount uint16

	// NSCount is the number of entries in the authority section.
	NSCount uint16

	// ARCount is the number of entries in the additional section.
	ARCount uint16
}

func (h *Header) flagBit(shift uint) bool {
	return (h.Flags>>shift)&1 == 1
}

func (h *Header) setFlagBit(shift uint, value bool) {
	h.Flags &^= 1 << shift
	if value {
		h.Flags |= 1 << shift
	}
}

// QR returns whether the message is a response.
func (h *Header) QR() bool { return h.flagBit(15) }

// SetQR sets whether the message is a response.
func (h *Header) SetQR(value bool) { h.setFlagBit(15, value) }

// Opcode returns the 4-bit operation code.
func (h *Header) Opcode() uint8 { return uint8((h.Flags >> 11) & 0xF) }

// SetOpcode sets the 4-bit operation code.
func (h *Header) SetOpcode(value uint8) {
	h.Flags = (h.Flags &^ (0xF << 11)) | (uint16(value&0xF) << 11)
}

// AA returns the authoritative-answer flag.
func (h *Header) AA() bool { return h.flagBit(10) }

// SetAA sets the authoritative-answer flag.
func (h *Header) SetAA(value bool) { h.setFlagBit(10, value) }

// TC returns the truncation flag.
func (h *Header) TC() bool { return h.flagBit(9) }

// SetTC sets the truncation flag.
func (h *Header) SetTC(value bool) { h.setFlagBit(9, value) }

// RD returns the recursion-desired flag.
func (h *Header) RD() bool { return h.flagBit(8) }

// SetRD sets the recursion-desired flag.
func (h *Header) SetRD(value bool) { h.setFlagBit(8, value) }

// RA returns the recursion-available flag.
func (h *Header) RA() bool { return h.flagBit(7) }

// SetRA sets the recursion-available flag.
func (h *Header) SetRA(value bool) { h.setFlagBit(7, value) }

// Z returns the 3-bit reserved field.
func (h *Header) Z() uint8 { return uint8((h.Flags >> 4) & 0x7) }

// SetZ sets the 3-bit reserved field.
func (h *Header) SetZ(value uint8) {
	h.Flags = (h.Flags &^ (0x7 << 4)) | (uint16(value&0x7) << 4)
}

// Rcode returns the 4-bit response code.
func (h *Header) Rcode() uint8 { return uint8(h.Flags & 0xF) }

// SetRcode sets the 4-bit response code.
func (h *Header) SetRcode(value uint8) {
	h.Flags = (h.Flags &^ 0xF) | uint16(value&0xF)
}

// Question is one entry in the question section.
type Question struct {
	// Name is the dotted domain name without the trailing dot.
	Name string

	// Type is the query type (e.g., 1 for an A query).
	Type uint16

	// Class is the query class (typically 1, i.e., IN).
	Class uint16
}

// ResourceRecord is one entry in the answer, authority, or
// additional section. Data is treated opaquely: the codec never
// reinterprets RDATA based on the record type.
type ResourceRecord struct {
	// Name is the dotted owner name without the trailing dot.
	Name string

	// Type is the record type.
	Type uint16

	// Class is the record class.
	Class uint16

	// TTL is the time to live in seconds.
	TTL uint32

	// Data is the raw RDATA. Its length becomes RDLENGTH on encode.
	Data []byte
}

// Message is a whole DNS message.
//
// A Message lives for a single request/response cycle: [Decode] builds
// one from an incoming packet, [*Processor] derives transient child
// messages from it, and [Encode] serializes the merged result.
type Message struct {
	// Header is the fixed header.
	Header Header

	// Questions is the question section.
	Questions []Question

	// Answers is the answer section.
	Answers []ResourceRecord

	// Authority is the authority section.
	Authority []ResourceRecord

	// Additional is the additional section.
	Additional []ResourceRecord
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	clone := &Message{
		Header:     m.Header,
		Questions:  append([]Question(nil), m.Questions...),
		Answers:    cloneRecords(m.Answers),
		Authority:  cloneRecords(m.Authority),
		Additional: cloneRecords(m.Additional),
	}
	return clone
}

func cloneRecords(records []ResourceRecord) []ResourceRecord {
	if records == nil {
		return nil
	}
	out := make([]ResourceRecord, len(records))
	for idx, rr := range records {
		rr.Data = append([]byte(nil), rr.Data...)
		out[idx] = rr
	}
	return out
}

// SyncCounts recomputes the header counts from the actual section
// lengths. [Encode] always derives counts itself, so calling this is
// only needed when the header must be observed before encoding.
func (m *Message) SyncCounts() {
	m.Header.QDCount = uint16(len(m.Questions))
	m.Header.ANCount = uint16(len(m.Answers))
	m.Header.NSCount = uint16(len(m.Authority))
	m.Header.ARCount = uint16(len(m.Additional))
}
