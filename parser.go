package blizzard

import (
	"bufio"
	"encoding/binary"
	"io"
)

// parser turns a byte stream into a sequence of frameEvents (spec §4.2).
// It is purely streaming: it never buffers more than one frame's payload,
// and every yielded event is independent of the ones before it.
type parser struct {
	r *bufio.Reader
}

func newParser(r io.Reader) *parser {
	return &parser{r: bufio.NewReader(r)}
}

// next reads and decodes one frame, returning the event it produces.
//
// On a magic-byte mismatch it returns a single eventFail(0, INVALID, ...)
// and does not attempt to scan forward for the next magic byte: the next
// call to next resumes reading immediately after the bad byte, as if it
// were the start of a new header. This mirrors the source behavior spec.md
// §9 explicitly leaves as an open resync question; this implementation
// preserves it rather than adding a scan. One stray byte immediately
// followed by a well-formed frame therefore yields exactly one eventFail,
// and the frame itself then decodes normally (spec.md §8 scenario S5).
func (p *parser) next() (frameEvent, error) {
	magic, err := p.r.ReadByte()
	if err != nil {
		return frameEvent{}, err
	}
	if magic != Magic {
		return failEvent(0, CodeInvalid, "Unexpected magic"), nil
	}

	var rest [headerSize - 1]byte
	if _, err := io.ReadFull(p.r, rest[:]); err != nil {
		return frameEvent{}, err
	}
	typ := FrameType(rest[0])
	id := binary.BigEndian.Uint32(rest[1:5])
	length := binary.BigEndian.Uint32(rest[5:9])

	if length == 0 {
		switch typ {
		case FrameBufferResponse:
			return bufferEndEvent(id), nil
		case FrameHandshake:
			return readyEvent(), nil
		default:
			return failEvent(id, CodeInvalid, "Unexpected 0-length header"), nil
		}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(p.r, payload); err != nil {
		return frameEvent{}, err
	}

	switch typ {
	case FrameJSON:
		return jsonEvent(id, payload), nil
	case FrameBufferResponse:
		return bufferChunkEvent(id, payload), nil
	default:
		return failEvent(id, CodeInvalid, "Unknown packet type"), nil
	}
}
