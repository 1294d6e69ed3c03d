// Copyright (C) 2024 The Fileretrieval Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameLen is the largest payload size allowed on the wire. (500 MB)
const MaxFrameLen = 500 * 1000 * 1000

const (
	// Request tags. The payload after the colon is the XDR encoded message.
	TagIndex  = "INDEX:"
	TagSearch = "SEARCH:"

	// QuitPayload is a complete request payload of its own. It must match
	// exactly; a tagged request whose body happens to contain "QUIT" is not
	// a disconnect.
	QuitPayload = "QUIT"

	// IndexAck is the reply payload for a successful INDEX request. Clients
	// accept any reply frame as an acknowledgement.
	IndexAck = "Index updated successfully"
)

var ErrClosed = errors.New("connection closed")

// WriteFrame writes a length-prefixed frame. The payload may be empty; the
// 4 byte length is transmitted either way.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	metricFramesSent.Inc()
	return nil
}

// ReadFrame reads one length-prefixed frame. Short reads are retried until
// the full payload has arrived; a zero length frame yields a nil payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("reading frame length: %w", err)
	}
	frameLen := binary.BigEndian.Uint32(lenBuf[:])
	if frameLen > MaxFrameLen {
		return nil, fmt.Errorf("frame length %d exceeds maximum %d", frameLen, MaxFrameLen)
	}
	if frameLen == 0 {
		metricFramesRecv.Inc()
		return nil, nil
	}

	buf := make([]byte, frameLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}
	metricFramesRecv.Inc()
	return buf, nil
}
