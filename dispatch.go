package blizzard

import (
	"encoding/json"
	"fmt"
)

// outboundFrame is one frame queued for the write loop.
type outboundFrame struct {
	typ     FrameType
	id      uint32
	payload []byte
}

// Observer receives dispatch-level counters (spec §4.11). It is satisfied
// by a no-op default and by internal/metrics's Prometheus collector; none
// of its methods can influence control flow.
type Observer interface {
	FrameDecoded(typ FrameType)
	FrameEncoded(typ FrameType)
	RequestDispatched()
	DispatchFailed(code ErrorCode)
}

type noopObserver struct{}

func (noopObserver) FrameDecoded(FrameType)   {}
func (noopObserver) FrameEncoded(FrameType)   {}
func (noopObserver) RequestDispatched()       {}
func (noopObserver) DispatchFailed(ErrorCode) {}

// dispatcher implements spec §4.6/§4.8: classification of decoded
// messages, invocation of handlers/completions, and the fail funnel.
type dispatcher struct {
	ids      *idAllocator
	methods  *methodTable
	requests *requestTable
	streams  *reassemblyBuffer

	out     chan<- outboundFrame
	onFatal func(error)
	log     Logger
	obs     Observer
}

func newDispatcher(ids *idAllocator, methods *methodTable, requests *requestTable, streams *reassemblyBuffer, out chan<- outboundFrame, onFatal func(error), log Logger, obs Observer) *dispatcher {
	if obs == nil {
		obs = noopObserver{}
	}
	return &dispatcher{
		ids: ids, methods: methods, requests: requests, streams: streams,
		out: out, onFatal: onFatal, log: log, obs: obs,
	}
}

// handle processes one frameEvent from the parser. eventReady is not
// passed here: it is a session lifecycle signal handled by Session
// directly (spec §4.9).
func (d *dispatcher) handle(ev frameEvent) {
	switch ev.kind {
	case eventJSON:
		d.ids.sync(ev.id)
		d.obs.FrameDecoded(FrameJSON)
		d.handleJSON(ev.id, ev.payload)
	case eventBufferChunk:
		d.ids.sync(ev.id)
		d.obs.FrameDecoded(FrameBufferResponse)
		if err := d.streams.append(ev.id, ev.payload); err != nil {
			d.fail(ev.id, CodeInvalid, err.Error())
		}
	case eventBufferEnd:
		d.ids.sync(ev.id)
		d.obs.FrameDecoded(FrameBufferResponse)
		data, ok := d.streams.complete(ev.id)
		if !ok {
			d.fail(ev.id, CodeInvalid, "Final packet for unknown stream")
			return
		}
		d.complete(ev.id, nil, data)
	case eventFail:
		d.ids.sync(ev.id)
		d.fail(ev.id, ev.code, ev.message)
	}
}

func (d *dispatcher) handleJSON(id uint32, payload []byte) {
	msg := decodeMessage(payload, id != 0)
	switch msg.kind {
	case decodedRequest, decodedNotification:
		d.dispatchMethod(id, msg.method, msg.params)
	case decodedSuccess:
		d.complete(id, nil, msg.result)
	case decodedError:
		d.complete(id, msg.err, nil)
	case decodedInvalid:
		d.fail(id, msg.invalidCode, msg.invalidMsg)
	}
}

// dispatchMethod implements spec §4.6's request-dispatch branch.
func (d *dispatcher) dispatchMethod(id uint32, method string, params json.RawMessage) {
	if len(params) == 0 {
		params = json.RawMessage("[]")
	}

	handler, ok := d.methods.lookup(method)
	if !ok {
		d.fail(id, CodeMethodNotFound, fmt.Sprintf("Method %s not found.", method))
		return
	}

	d.obs.RequestDispatched()
	handler(params, func(err *Error, reply any) {
		if err != nil {
			d.fail(id, CodeUser, err.Message)
			return
		}
		if id == 0 {
			return // notification: reply discarded
		}
		if sendErr := d.sendReply(id, reply); sendErr != nil {
			d.log.Debug("reply send failed", "id", id, "error", sendErr)
		}
	})
}

// complete implements spec §4.5's complete(id, error, result).
func (d *dispatcher) complete(id uint32, err *Error, result any) {
	completion, ok := d.requests.take(id)
	if ok {
		completion(err, result)
		return
	}
	if err == nil {
		d.fail(id, CodeInternal, fmt.Sprintf("No callback for id %d", id))
		return
	}
	// Both sides already disagree about this id; replying would start an
	// error loop (spec §4.5).
}

// fail implements the single funnel of spec §4.8.
func (d *dispatcher) fail(id uint32, code ErrorCode, message string) {
	d.obs.DispatchFailed(code)

	if id == 0 {
		if code == CodeInternal {
			d.onFatal(newFatalError(&Error{Code: code, Message: message}))
			return
		}
		d.log.Debug("swallowed protocol failure", "code", code, "message", message)
		return
	}

	payload, err := encodeErrorReply(&Error{Code: code, Message: message})
	if err != nil {
		d.log.Debug("failed to encode error reply", "error", err)
		return
	}
	d.enqueue(FrameJSON, id, payload)
}

// sendReply implements spec §4.7.
func (d *dispatcher) sendReply(id uint32, payload any) error {
	if id == 0 {
		return ErrNotifyIDMustBeZero
	}

	if bin, ok := payload.([]byte); ok {
		d.enqueue(FrameBufferResponse, id, bin)
		d.enqueue(FrameBufferResponse, id, nil)
		return nil
	}

	raw, err := encodeSuccess(payload)
	if err != nil {
		return err
	}
	d.enqueue(FrameJSON, id, raw)
	return nil
}

func (d *dispatcher) enqueue(typ FrameType, id uint32, payload []byte) {
	d.obs.FrameEncoded(typ)
	d.out <- outboundFrame{typ: typ, id: id, payload: payload}
}
