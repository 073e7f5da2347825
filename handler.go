// SPDX-License-Identifier: GPL-3.0-or-later

package dnsfwd

import (
	"context"
	"fmt"
)

// Handler turns a raw incoming datagram into a raw outgoing datagram:
// decode, split/forward/merge, encode.
//
// Construct by setting the MANDATORY fields.
type Handler struct {
	// Processor is the MANDATORY splitter/merger.
	Processor *Processor
}

// Handle processes one raw DNS packet and returns the encoded response.
//
// A decode failure on the incoming packet means no response can be
// built: the error is returned and the caller should drop the packet.
// An encode failure on the merged response indicates a programming
// error, since a decoded message always respects the name limits.
func (h *Handler) Handle(ctx context.Context, raw []byte) ([]byte, error) {
	incoming, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	out, err := h.Processor.Process(ctx, incoming)
	if err != nil {
		return nil, err
	}
	resp, err := Encode(out)
	if err != nil {
		return nil, fmt.Errorf("cannot encode response: %w", err)
	}
	return resp, nil
}
