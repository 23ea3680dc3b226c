package blizzard

import (
	"bytes"
	"encoding/json"
)

// decodedKind classifies a JSON frame payload once parsed (spec §9: model
// dynamic-shape JSON messages as a sum type, validated once at the parse
// boundary rather than on every field access).
type decodedKind uint8

const (
	decodedRequest decodedKind = iota
	decodedNotification
	decodedSuccess
	decodedError
	decodedInvalid
)

// decodedMessage is the sum type produced by decodeMessage: exactly one of
// {method+params, result, err} is populated, selected by kind. invalidMsg
// carries the human-readable reason when kind == decodedInvalid.
type decodedMessage struct {
	kind decodedKind

	method string
	params json.RawMessage

	result json.RawMessage
	err    *Error

	invalidCode ErrorCode
	invalidMsg  string
}

// wireIn is the union of every field a JSON frame payload may legally
// carry (spec §6 grammar).
type wireIn struct {
	Method *string         `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *wireError      `json:"error"`
}

type wireError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// decodeMessage validates and classifies one JSON frame payload against
// the grammar in spec §3/§6:
//
//	- top-level JSON arrays are always invalid;
//	- a message carrying `method` is a request/notification;
//	- otherwise `error` or `result` selects a reply;
//	- a payload with none of {method, error, result} is invalid.
//
// hasID tells decodeMessage whether the frame this payload arrived in
// carried a non-zero id, since the grammar differs slightly for id-less
// messages (spec §4.6: "Messages without IDs must contain method").
func decodeMessage(payload []byte, hasID bool) decodedMessage {
	if !json.Valid(payload) {
		return decodedMessage{kind: decodedInvalid, invalidCode: CodeParse, invalidMsg: "Malformed JSON payload"}
	}
	if looksLikeTopLevelArray(payload) {
		return decodedMessage{kind: decodedInvalid, invalidCode: CodeInvalid, invalidMsg: invalidShapeMessage(hasID)}
	}

	var in wireIn
	if err := json.Unmarshal(payload, &in); err != nil {
		// Valid JSON, wrong top-level shape (e.g. a scalar or an object
		// whose field types don't match the grammar).
		return decodedMessage{kind: decodedInvalid, invalidCode: CodeInvalid, invalidMsg: invalidShapeMessage(hasID)}
	}

	if in.Method != nil {
		if hasID {
			return decodedMessage{kind: decodedRequest, method: *in.Method, params: in.Params}
		}
		return decodedMessage{kind: decodedNotification, method: *in.Method, params: in.Params}
	}

	if !hasID {
		return decodedMessage{kind: decodedInvalid, invalidCode: CodeInvalid, invalidMsg: invalidShapeMessage(false)}
	}

	if in.Error != nil {
		return decodedMessage{kind: decodedError, err: &Error{Code: in.Error.Code, Message: in.Error.Message}}
	}
	if in.Result != nil {
		return decodedMessage{kind: decodedSuccess, result: in.Result}
	}

	return decodedMessage{kind: decodedInvalid, invalidCode: CodeInvalid, invalidMsg: invalidShapeMessage(true)}
}

// invalidShapeMessage picks the wording spec §4.6 assigns to a
// schema-violating payload, which differs for id-bearing vs id-less
// messages.
func invalidShapeMessage(hasID bool) string {
	if hasID {
		return "Messages with IDs must contain method, error, or result"
	}
	return "Messages without IDs must contain method"
}

// looksLikeTopLevelArray reports whether payload's first non-whitespace
// byte is '[', i.e. it is a JSON array rather than an object. Per spec §9
// this is treated as strict/intentional: it rejects top-level arrays
// outright rather than trying to special-case array-shaped objects.
func looksLikeTopLevelArray(payload []byte) bool {
	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// wireRequest is the on-wire shape of a request or notification.
type wireRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// wireSuccess is the on-wire shape of a success reply.
type wireSuccess struct {
	Result json.RawMessage `json:"result"`
}

// wireErrorReply is the on-wire shape of an error reply.
type wireErrorReply struct {
	Error wireError `json:"error"`
}

func encodeRequest(method string, params any) ([]byte, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireRequest{Method: method, Params: raw})
}

func encodeSuccess(result any) ([]byte, error) {
	raw, err := marshalParams(result)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		raw = json.RawMessage("null")
	}
	return json.Marshal(wireSuccess{Result: raw})
}

func encodeErrorReply(e *Error) ([]byte, error) {
	return json.Marshal(wireErrorReply{Error: wireError{Code: e.Code, Message: e.Message}})
}

// marshalParams accepts either a pre-encoded json.RawMessage/[]byte or any
// other Go value and returns its JSON encoding. A nil value encodes to a
// nil json.RawMessage, which the `omitempty` tag on wireRequest.Params
// drops entirely (spec §6: params is optional).
func marshalParams(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	if raw, ok := v.([]byte); ok {
		return json.RawMessage(raw), nil
	}
	return json.Marshal(v)
}
