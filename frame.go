package blizzard

import (
	"encoding/binary"
	"io"
)

// FrameType identifies the kind of payload a frame carries (spec §3, §6).
type FrameType uint8

// Frame types. Value 2 is reserved on the wire and always rejected.
const (
	FrameHandshake       FrameType = 0
	FrameJSON            FrameType = 1
	frameReserved        FrameType = 2
	FrameBufferResponse  FrameType = 3
)

// Magic is the constant leading byte of every frame (spec §6).
const Magic uint8 = 89

// MaxID is the largest legal id before the sequence wraps to 0 (spec §6).
const MaxID uint32 = 1<<32 - 1

// headerSize is the fixed 10-byte frame header (spec §6): magic(1) + type(1)
// + id(4) + length(4).
const headerSize = 10

// header is the decoded fixed portion of a frame, before its payload (if
// any) has been read off the wire.
type header struct {
	magic  uint8
	typ    FrameType
	id     uint32
	length uint32
}

// encodeHeader writes the 10-byte header for typ/id/payloadLen into buf,
// which must be at least headerSize bytes.
func encodeHeader(buf []byte, typ FrameType, id uint32, payloadLen uint32) {
	buf[0] = Magic
	buf[1] = uint8(typ)
	binary.BigEndian.PutUint32(buf[2:6], id)
	binary.BigEndian.PutUint32(buf[6:10], payloadLen)
}

// writeFrame writes a complete frame (header plus payload, if any) to w in
// a single Write call, so the two are never observed split by a concurrent
// reader on the other end of a pipe (spec §4.1: "written atomically").
func writeFrame(w io.Writer, typ FrameType, id uint32, payload []byte) error {
	buf := make([]byte, headerSize+len(payload))
	encodeHeader(buf, typ, id, uint32(len(payload)))
	if len(payload) > 0 {
		copy(buf[headerSize:], payload)
	}
	_, err := w.Write(buf)
	return err
}

// readHeader reads and decodes the next 10-byte header from r.
func readHeader(r io.Reader) (header, error) {
	var raw [headerSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return header{}, err
	}
	return header{
		magic:  raw[0],
		typ:    FrameType(raw[1]),
		id:     binary.BigEndian.Uint32(raw[2:6]),
		length: binary.BigEndian.Uint32(raw[6:10]),
	}, nil
}
