// Package protocol implements the Cambio wire protocol: length-prefixed
// JSON frames and the client/server event vocabulary carried in them.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame's payload. A peer announcing more is
// treated as malformed rather than trusted with the allocation.
const MaxFrameSize = 1 << 20

// ProtocolError marks a malformed frame or message, as opposed to a plain
// transport error. Callers that only care about the distinction can use
// errors.As; the underlying cause is preserved for logging.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func protocolErr(op string, err error) error {
	return &ProtocolError{Op: op, Err: err}
}

// ReadFrame reads one frame: a big-endian uint32 length followed by that
// many payload bytes. A clean close between frames surfaces as io.EOF; a
// close mid-frame as io.ErrUnexpectedEOF. An oversized length is a
// ProtocolError.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > MaxFrameSize {
		return nil, protocolErr("read", fmt.Errorf("frame of %d bytes exceeds limit %d", n, MaxFrameSize))
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes one length-prefixed frame. Header and payload go out in
// a single Write so concurrent writers cannot interleave partial frames.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return protocolErr("write", fmt.Errorf("frame of %d bytes exceeds limit %d", len(payload), MaxFrameSize))
	}
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadClientEvent reads and decodes one client-originated frame.
func ReadClientEvent(r io.Reader) (ClientEvent, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return ClientEvent{}, err
	}
	var ev ClientEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ClientEvent{}, protocolErr("decode client event", err)
	}
	return ev, nil
}

// WriteClientEvent encodes and writes one client-originated frame.
func WriteClientEvent(w io.Writer, ev ClientEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return protocolErr("encode client event", err)
	}
	return WriteFrame(w, payload)
}

// ReadServerEvent reads and decodes one server-originated frame.
func ReadServerEvent(r io.Reader) (ServerEvent, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return ServerEvent{}, err
	}
	var ev ServerEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ServerEvent{}, protocolErr("decode server event", err)
	}
	return ev, nil
}

// WriteServerEvent encodes and writes one server-originated frame.
func WriteServerEvent(w io.Writer, ev ServerEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return protocolErr("encode server event", err)
	}
	return WriteFrame(w, payload)
}
