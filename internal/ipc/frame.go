// Package ipc is the IPC Protocol and Server (spec §4.6-4.7): a
// length-prefixed JSON frame codec over a persistent connection, a
// request dispatcher wiring Storage/Provider Runtime/Dedupe Service/
// Subscription Manager into typed request handlers, and platform
// transports (Unix domain socket on POSIX, named pipe on Windows via
// go-winio). Grounded on core/src/ipc/server.rs's persistent
// read-dispatch-write loop, generalized from its line-delimited framing
// to spec §4.6's four-byte big-endian length prefix.
package ipc

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameBytes bounds a single frame's payload so a corrupt or hostile
// length prefix can't make the reader allocate unbounded memory.
const maxFrameBytes = 64 << 20

// ReadFrame blocks until one complete length-prefixed frame has been read
// from r, then unmarshals its JSON payload into v. A partial frame simply
// blocks the reader, matching spec §4.6; io.EOF at a frame boundary is
// returned unwrapped so callers can tell "clean disconnect" from "broken
// frame".
func ReadFrame(r *bufio.Reader, v any) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameBytes {
		return fmt.Errorf("ipc: frame of %d bytes exceeds %d byte limit", n, maxFrameBytes)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	return json.Unmarshal(payload, v)
}

// WriteFrame marshals v to JSON and writes it to w as one length-prefixed
// frame.
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if len(payload) > maxFrameBytes {
		return fmt.Errorf("ipc: outgoing frame of %d bytes exceeds %d byte limit", len(payload), maxFrameBytes)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}
