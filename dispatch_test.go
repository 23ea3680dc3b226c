package blizzard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*dispatcher, chan outboundFrame, *[]error) {
	t.Helper()
	out := make(chan outboundFrame, 16)
	var fatals []error
	d := newDispatcher(
		newIDAllocator(false),
		newMethodTable(),
		newRequestTable(),
		newReassemblyBuffer(1024),
		out,
		func(err error) { fatals = append(fatals, err) },
		defaultLogger(),
		nil,
	)
	return d, out, &fatals
}

func TestDispatchMethodNotFound(t *testing.T) {
	d, out, _ := newTestDispatcher(t)
	d.handle(jsonEvent(5, []byte(`{"method":"nope","params":[]}`)))

	frame := <-out
	assert.Equal(t, FrameJSON, frame.typ)
	assert.Equal(t, uint32(5), frame.id)
	assert.JSONEq(t, `{"error":{"code":-32601,"message":"Method nope not found."}}`, string(frame.payload))
}

func TestDispatchMethodSuccessReply(t *testing.T) {
	d, out, _ := newTestDispatcher(t)
	d.methods.expose("echo", func(params json.RawMessage, done Completion) {
		done(nil, params)
	})
	d.handle(jsonEvent(3, []byte(`{"method":"echo","params":[1,2]}`)))

	frame := <-out
	assert.Equal(t, FrameJSON, frame.typ)
	assert.JSONEq(t, `{"result":[1,2]}`, string(frame.payload))
}

func TestDispatchNotificationDiscardsReply(t *testing.T) {
	d, out, _ := newTestDispatcher(t)
	called := make(chan struct{}, 1)
	d.methods.expose("ping", func(params json.RawMessage, done Completion) {
		called <- struct{}{}
		done(nil, "pong")
	})
	d.handle(jsonEvent(0, []byte(`{"method":"ping"}`)))

	<-called
	select {
	case frame := <-out:
		t.Fatalf("unexpected outbound frame for notification: %+v", frame)
	default:
	}
}

func TestDispatchBinaryReplyIsBufferChunkThenTerminator(t *testing.T) {
	d, out, _ := newTestDispatcher(t)
	d.methods.expose("blob", func(params json.RawMessage, done Completion) {
		done(nil, []byte{0xDE, 0xAD})
	})
	d.handle(jsonEvent(9, []byte(`{"method":"blob"}`)))

	chunk := <-out
	assert.Equal(t, FrameBufferResponse, chunk.typ)
	assert.Equal(t, []byte{0xDE, 0xAD}, chunk.payload)

	end := <-out
	assert.Equal(t, FrameBufferResponse, end.typ)
	assert.Equal(t, 0, len(end.payload))
}

func TestDispatchCompleteFiresPendingCompletion(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	got := make(chan any, 1)
	d.requests.insert(2, func(err *Error, result any) { got <- result })

	d.handle(jsonEvent(2, []byte(`{"result":"ok"}`)))
	assert.Equal(t, json.RawMessage(`"ok"`), <-got)
}

func TestDispatchCompleteWithNoPendingCallbackRepliesWithInternalError(t *testing.T) {
	d, out, fatals := newTestDispatcher(t)
	d.handle(jsonEvent(7, []byte(`{"result":"ok"}`)))

	frame := <-out
	assert.Equal(t, FrameJSON, frame.typ)
	assert.Equal(t, uint32(7), frame.id)
	assert.JSONEq(t, `{"error":{"code":-32603,"message":"No callback for id 7"}}`, string(frame.payload))
	assert.Empty(t, *fatals)
}

func TestDispatchErrorReplyWithNoPendingCallbackDoesNotReply(t *testing.T) {
	d, out, _ := newTestDispatcher(t)
	d.handle(jsonEvent(7, []byte(`{"error":{"code":-32000,"message":"boom"}}`)))

	select {
	case frame := <-out:
		t.Fatalf("unexpected reply for unknown id error: %+v", frame)
	default:
	}
}

func TestDispatchFatalFunnelForZeroIDInternal(t *testing.T) {
	d, _, fatals := newTestDispatcher(t)
	d.fail(0, CodeInternal, "boom")

	require.Len(t, *fatals, 1)
	var fatal *FatalError
	assert.ErrorAs(t, (*fatals)[0], &fatal)
}

func TestDispatchSwallowsNonInternalZeroIDFailure(t *testing.T) {
	d, out, fatals := newTestDispatcher(t)
	d.fail(0, CodeInvalid, "bad")

	assert.Empty(t, *fatals)
	select {
	case frame := <-out:
		t.Fatalf("unexpected outbound frame: %+v", frame)
	default:
	}
}

func TestDispatchUnknownStreamOnBufferEnd(t *testing.T) {
	d, out, _ := newTestDispatcher(t)
	d.handle(bufferEndEvent(4))

	frame := <-out
	assert.JSONEq(t, `{"error":{"code":-32600,"message":"Final packet for unknown stream"}}`, string(frame.payload))
}

func TestSendReplyRejectsZeroID(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	err := d.sendReply(0, "x")
	assert.ErrorIs(t, err, ErrNotifyIDMustBeZero)
}

// TestDispatchFailSyncsIDEvenForMalformedFrames covers spec invariant 6:
// the peer's id always advances local sequence, even for a headered frame
// the parser rejects outright (unexpected 0-length header, unknown packet
// type). A dropped sync here would let a malformed high-id frame leave the
// allocator behind, risking a collision with a later legitimate id.
func TestDispatchFailSyncsIDEvenForMalformedFrames(t *testing.T) {
	d, out, _ := newTestDispatcher(t)
	d.handle(failEvent(41, CodeInvalid, "Unknown packet type"))

	<-out // the error reply for id 41
	assert.Equal(t, uint32(43), d.ids.next())
}
