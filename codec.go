// SPDX-License-Identifier: GPL-3.0-or-later

package dnsfwd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Errors emitted by [Decode]. All of them wrap [ErrDecode], so callers
// can match the whole family with a single [errors.Is] check.
var (
	// ErrDecode is the base error for malformed incoming messages.
	ErrDecode = errors.New("cannot decode DNS message")

	// ErrTruncatedHeader means the packet is shorter than the fixed header.
	ErrTruncatedHeader = fmt.Errorf("%w: truncated header", ErrDecode)

	// ErrTruncatedQuestion means the question section ended early.
	ErrTruncatedQuestion = fmt.Errorf("%w: truncated question", ErrDecode)

	// ErrTruncatedRecord means a resource record ended early.
	ErrTruncatedRecord = fmt.Errorf("%w: truncated resource record", ErrDecode)

	// ErrCompressionLoop means a compression pointer chain did not terminate.
	ErrCompressionLoop = fmt.Errorf("%w: compression pointer loop", ErrDecode)
)

// Errors emitted by [Encode]. A [*Message] respecting the name limits
// always encodes, so these indicate a programming error in the caller.
var (
	// ErrNameTooLong means a domain name exceeds 255 encoded octets.
	ErrNameTooLong = errors.New("domain name too long")

	// ErrLabelTooLong means a domain label exceeds 63 octets.
	ErrLabelTooLong = errors.New("domain label too long")
)

const (
	// maxLabelLen is the maximum length of a single label.
	maxLabelLen = 63

	// maxDomainLen is the maximum length of a dotted domain name, which
	// keeps the encoded name within the 255-octet wire limit.
	maxDomainLen = 253

	// maxPointerHops bounds how many compression pointers we follow
	// while decoding a single name. Legitimate messages chain a handful
	// of pointers at most; anything deeper is a crafted loop.
	maxPointerHops = 16

	// pointerTag marks the two top bits identifying a compression pointer.
	pointerTag = 0xC0

	// maxPointerOffset is the largest offset a 14-bit pointer can express.
	maxPointerOffset = 0x3FFF
)

// errTruncatedName is an internal marker mapped by callers to either
// [ErrTruncatedQuestion] or [ErrTruncatedRecord] depending on the
// section being decoded.
var errTruncatedName = errors.New("truncated name")

// Decode parses a raw DNS packet into a [*Message].
//
// Decoding reads the fixed header first and then exactly as many
// questions and records as the header counts declare; finding fewer is
// a malformed-message error. Every advance over the buffer is bounds
// checked and compression pointers are followed iteratively with a
// bounded hop count.
func Decode(raw []byte) (*Message, error) {
	// 1. fixed header
	if len(raw) < headerSize {
		return nil, ErrTruncatedHeader
	}
	msg := &Message{
		Header: Header{
			ID:      binary.BigEndian.Uint16(raw[0:2]),
			Flags:   binary.BigEndian.Uint16(raw[2:4]),
			QDCount: binary.BigEndian.Uint16(raw[4:6]),
			ANCount: binary.BigEndian.Uint16(raw[6:8]),
			NSCount: binary.BigEndian.Uint16(raw[8:10]),
			ARCount: binary.BigEndian.Uint16(raw[10:12]),
		},
	}
	off := headerSize

	// 2. question section
	for range msg.Header.QDCount {
		question, next, err := decodeQuestion(raw, off)
		if err != nil {
			return nil, err
		}
		msg.Questions = append(msg.Questions, question)
		off = next
	}

	// 3. answer, authority, and additional sections
	var err error
	if msg.Answers, off, err = decodeRecords(raw, off, msg.Header.ANCount); err != nil {
		return nil, err
	}
	if msg.Authority, off, err = decodeRecords(raw, off, msg.Header.NSCount); err != nil {
		return nil, err
	}
	if msg.Additional, _, err = decodeRecords(raw, off, msg.Header.ARCount); err != nil {
		return nil, err
	}
	return msg, nil
}

func decodeQuestion(raw []byte, off int) (Question, int, error) {
	name, off, err := decodeName(raw, off)
	if err != nil {
		return Question{}, 0, sectionError(err, ErrTruncatedQuestion)
	}
	if off+4 > len(raw) {
		return Question{}, 0, ErrTruncatedQuestion
	}
	question := Question{
		Name:  name,
		Type:  binary.BigEndian.Uint16(raw[off : off+2]),
		Class: binary.BigEndian.Uint16(raw[off+2 : off+4]),
	}
	return question, off + 4, nil
}

func decodeRecords(raw []byte, off int, count uint16) ([]ResourceRecord, int, error) {
	var records []ResourceRecord
	for range count {
		rr, next, err := decodeRecord(raw, off)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rr)
		off = next
	}
	return records, off, nil
}

func decodeRecord(raw []byte, off int) (ResourceRecord, int, error) {
	name, off, err := decodeName(raw, off)
	if err != nil {
		return ResourceRecord{}, 0, sectionError(err, ErrTruncatedRecord)
	}
	if off+10 > len(raw) {
		return ResourceRecord{}, 0, ErrTruncatedRecord
	}
	rr := ResourceRecord{
		Name:  name,
		Type:  binary.BigEndian.Uint16(raw[off : off+2]),
		Class: binary.BigEndian.Uint16(raw[off+2 : off+4]),
		TTL:   binary.BigEndian.Uint32(raw[off+4 : off+8]),
	}
	rdlength := int(binary.BigEndian.Uint16(raw[off+8 : off+10]))
	off += 10
	if off+rdlength > len(raw) {
		return ResourceRecord{}, 0, ErrTruncatedRecord
	}
	rr.Data = append([]byte(nil), raw[off:off+rdlength]...)
	return rr, off + rdlength, nil
}

// sectionError maps a name-decoding failure to the proper section
// error, keeping [ErrCompressionLoop] intact.
func sectionError(err, truncated error) error {
	if errors.Is(err, ErrCompressionLoop) {
		return err
	}
	return truncated
}

// decodeName reads a possibly compressed domain name starting at off
// and returns the dotted name together with the offset of the first
// byte after the name. Pointer chains are walked iteratively: the
// cursor resumes right after the first pointer once the chain ends.
func decodeName(raw []byte, off int) (string, int, error) {
	var labels []string
	resume := -1
	hops := 0
	total := 0
	for {
		if off >= len(raw) {
			return "", 0, errTruncatedName
		}
		length := int(raw[off])
		switch {
		case length&pointerTag == pointerTag:
			if off+1 >= len(raw) {
				return "", 0, errTruncatedName
			}
			hops++
			if hops > maxPointerHops {
				return "", 0, ErrCompressionLoop
			}
			if resume < 0 {
				resume = off + 2
			}
			off = int(binary.BigEndian.Uint16(raw[off:off+2])) & maxPointerOffset

		case length == 0:
			off++
			if resume < 0 {
				resume = off
			}
			return strings.Join(labels, "."), resume, nil

		case length > maxLabelLen:
			// The 0x40 and 0x80 tag combinations are reserved.
			return "", 0, errTruncatedName

		default:
			if off+1+length > len(raw) {
				return "", 0, errTruncatedName
			}
			total += length + 1
			if total > maxDomainLen+1 {
				return "", 0, errTruncatedName
			}
			labels = append(labels, string(raw[off+1:off+1+length]))
			off += 1 + length
		}
	}
}

// Encode serializes a [*Message] into RFC 1035 wire format.
//
// The header counts are derived from the actual section lengths, never
// taken from the caller-supplied header. Names are compressed against
// a table built in first-occurrence order across the header, question,
// answer, authority, and additional sections.
func Encode(msg *Message) ([]byte, error) {
	out := make([]byte, 0, 512)

	// 1. header with derived counts
	out = binary.BigEndian.AppendUint16(out, msg.Header.ID)
	out = binary.BigEndian.AppendUint16(out, msg.Header.Flags)
	out = binary.BigEndian.AppendUint16(out, uint16(len(msg.Questions)))
	out = binary.BigEndian.AppendUint16(out, uint16(len(msg.Answers)))
	out = binary.BigEndian.AppendUint16(out, uint16(len(msg.Authority)))
	out = binary.BigEndian.AppendUint16(out, uint16(len(msg.Additional)))

	// 2. question section
	table := make(map[string]int)
	var err error
	for _, question := range msg.Questions {
		if out, err = appendName(out, question.Name, table); err != nil {
			return nil, err
		}
		out = binary.BigEndian.AppendUint16(out, question.Type)
		out = binary.BigEndian.AppendUint16(out, question.Class)
	}

	// 3. record sections in wire order
	for _, section := range [][]ResourceRecord{msg.Answers, msg.Authority, msg.Additional} {
		for _, rr := range section {
			if out, err = appendRecord(out, rr, table); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func appendRecord(out []byte, rr ResourceRecord, table map[string]int) ([]byte, error) {
	out, err := appendName(out, rr.Name, table)
	if err != nil {
		return nil, err
	}
	out = binary.BigEndian.AppendUint16(out, rr.Type)
	out = binary.BigEndian.AppendUint16(out, rr.Class)
	out = binary.BigEndian.AppendUint32(out, rr.TTL)
	out = binary.BigEndian.AppendUint16(out, uint16(len(rr.Data)))
	out = append(out, rr.Data...)
	return out, nil
}

// appendName writes a domain name, emitting a compression pointer for
// the longest suffix already present in the table and recording the
// offsets of any new suffixes it writes out literally.
func appendName(out []byte, name string, table map[string]int) ([]byte, error) {
	if len(name) > maxDomainLen {
		return nil, fmt.Errorf("%w: %s", ErrNameTooLong, name)
	}
	labels := splitLabels(name)
	for idx, label := range labels {
		if len(label) > maxLabelLen {
			return nil, fmt.Errorf("%w: %s", ErrLabelTooLong, label)
		}
		suffix := foldNameASCII(strings.Join(labels[idx:], "."))
		if off, ok := table[suffix]; ok {
			out = binary.BigEndian.AppendUint16(out, pointerTag<<8|uint16(off))
			return out, nil
		}
		if len(out) <= maxPointerOffset {
			table[suffix] = len(out)
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	out = append(out, 0)
	return out, nil
}

// splitLabels splits a dotted name into its non-empty labels, so both
// the root name and a trailing dot are handled uniformly.
func splitLabels(name string) []string {
	var labels []string
	for label := range strings.SplitSeq(name, ".") {
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// foldNameASCII lowercases ASCII letters so that compression-table
// lookups are case-insensitive per label, as required by RFC 1035.
func foldNameASCII(name string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + 0x20
		}
		return r
	}, name)
}
