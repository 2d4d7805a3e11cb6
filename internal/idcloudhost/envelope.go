package idcloudhost

import (
	"encoding/json"
	"strconv"
)

// Envelope is the uniform failure payload: a human message plus the
// machine detail, either the provider's raw response body or a locally
// authored string. Every hard failure out of the reconcilers is one of
// these; transport faults stay plain errors.
type Envelope struct {
	Msg    string
	Detail json.RawMessage
}

func (e *Envelope) Error() string {
	if len(e.Detail) == 0 {
		return e.Msg
	}
	return e.Msg + ": " + string(e.Detail)
}

// newEnvelope wraps the provider's raw response body.
func newEnvelope(msg string, body json.RawMessage) *Envelope {
	return &Envelope{Msg: msg, Detail: body}
}

// textEnvelope wraps a locally authored detail string.
func textEnvelope(msg, detail string) *Envelope {
	return &Envelope{Msg: msg, Detail: json.RawMessage(strconv.Quote(detail))}
}
