package problem

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Outcome is the raw result of an HTTP exchange attempt, before
// classification.
type Outcome struct {
	// OK is true when the transport completed and the status was 2xx.
	OK bool
	// Tag is set by the transport when OK is false.
	Tag Tag
	// Status is the HTTP status code, zero if no response was received.
	Status int
	// Body is the raw response body, possibly empty.
	Body []byte
}

// Result is a classified outcome: either KindOK with the unwrapped payload,
// or one problem kind carrying the raw body of the failed exchange.
type Result struct {
	Kind      Kind
	Temporary bool
	Data      json.RawMessage
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Kind == KindOK
}

// Err returns nil for a successful result and a *Problem otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Problem{Kind: r.Kind, Temporary: r.Temporary, Data: r.Data}
}

// Problem is the error form of a non-ok Result.
type Problem struct {
	Kind      Kind
	Temporary bool
	Data      json.RawMessage
}

func (p *Problem) Error() string {
	if p.Temporary {
		return fmt.Sprintf("api problem: %s (temporary)", p.Kind)
	}
	return fmt.Sprintf("api problem: %s", p.Kind)
}

// IsKind reports whether err is a *Problem of the given kind.
func IsKind(err error, kind Kind) bool {
	var p *Problem
	return errors.As(err, &p) && p.Kind == kind
}

// envelope is the backend response wrapper. Only result is consumed.
type envelope struct {
	Result       json.RawMessage `json:"result"`
	Errors       string          `json:"errors,omitempty"`
	ErrorDetails json.RawMessage `json:"errorDetails,omitempty"`
	Status       int             `json:"status"`
}

// Classify maps an outcome to exactly one Result. The second return value is
// false only for a cancelled exchange, which produces no classification at
// all and must be treated by callers as "do nothing".
//
// A successful outcome unwraps the "result" field of the body. The body shape
// is not validated: a missing or null field or an undecodable body yields
// KindOK with nil Data. Use ClassifyStrict to turn that case into KindBadData.
func Classify(o Outcome) (Result, bool) {
	if !o.OK {
		return classifyFailure(o)
	}
	data, _ := unwrap(o.Body)
	return Result{Kind: KindOK, Data: data}, true
}

// ClassifyStrict behaves like Classify but reports KindBadData when a
// successful body does not carry a "result" field.
func ClassifyStrict(o Outcome) (Result, bool) {
	if !o.OK {
		return classifyFailure(o)
	}
	data, ok := unwrap(o.Body)
	if !ok {
		return problemResult(KindBadData, o.Body), true
	}
	return Result{Kind: KindOK, Data: data}, true
}

func classifyFailure(o Outcome) (Result, bool) {
	switch o.Tag {
	case TagConnection, TagNetwork:
		return problemResult(KindCannotConnect, o.Body), true
	case TagTimeout:
		return problemResult(KindTimeout, o.Body), true
	case TagServer:
		return problemResult(KindServer, o.Body), true
	case TagUnknown:
		return problemResult(KindUnknown, o.Body), true
	case TagCancel:
		return Result{}, false
	case TagClient:
		return problemResult(kindForClientStatus(o.Status), o.Body), true
	}
	// A failed exchange without a recognizable tag.
	return problemResult(KindUnknown, o.Body), true
}

func kindForClientStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindDuplicate
	default:
		return KindRejected
	}
}

func problemResult(kind Kind, body []byte) Result {
	return Result{Kind: kind, Temporary: kind.Temporary(), Data: rawBody(body)}
}

// rawBody returns body as raw JSON. A body that is not valid JSON, such as
// an HTML error page from a proxy, is carried as a JSON string.
func rawBody(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}

// unwrap extracts the "result" field. The boolean is false when the body is
// not a JSON object, has no result, or carries an explicit null result.
func unwrap(body []byte) (json.RawMessage, bool) {
	if len(body) == 0 {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, false
	}
	if len(env.Result) == 0 || bytes.Equal(bytes.TrimSpace(env.Result), []byte("null")) {
		return nil, false
	}
	return env.Result, true
}

// Decode unmarshals the payload of a successful result into T. A nil payload
// decodes to the zero value of T.
func Decode[T any](r Result) (T, error) {
	var v T
	if err := r.Err(); err != nil {
		return v, err
	}
	if len(r.Data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(r.Data, &v); err != nil {
		return v, fmt.Errorf("failed to decode result payload: %w", err)
	}
	return v, nil
}
