package blizzard

// eventKind tags the variant of a decoded frameEvent (spec §9: "replace
// event-emitter fan-out ... with a tagged variant and a single dispatcher
// match").
type eventKind uint8

const (
	eventReady eventKind = iota
	eventJSON
	eventBufferChunk
	eventBufferEnd
	eventFail
)

// frameEvent is the single value the stream parser yields per iteration.
// Exactly one of its fields is meaningful, selected by kind.
type frameEvent struct {
	kind eventKind

	id      uint32
	payload []byte // eventJSON, eventBufferChunk

	code    ErrorCode // eventFail
	message string    // eventFail
}

func readyEvent() frameEvent {
	return frameEvent{kind: eventReady}
}

func jsonEvent(id uint32, payload []byte) frameEvent {
	return frameEvent{kind: eventJSON, id: id, payload: payload}
}

func bufferChunkEvent(id uint32, payload []byte) frameEvent {
	return frameEvent{kind: eventBufferChunk, id: id, payload: payload}
}

func bufferEndEvent(id uint32) frameEvent {
	return frameEvent{kind: eventBufferEnd, id: id}
}

func failEvent(id uint32, code ErrorCode, message string) frameEvent {
	return frameEvent{kind: eventFail, id: id, code: code, message: message}
}
