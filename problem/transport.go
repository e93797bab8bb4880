package problem

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
)

// TagForStatus returns the transport tag for an HTTP status code.
// 2xx carries no tag.
func TagForStatus(status int) Tag {
	switch {
	case status >= 200 && status < 300:
		return TagNone
	case status >= 400 && status < 500:
		return TagClient
	case status >= 500 && status < 600:
		return TagServer
	default:
		return TagUnknown
	}
}

// TagForError returns the transport tag for an error returned by an HTTP
// client before any response was received.
func TagForError(err error) Tag {
	if err == nil {
		return TagNone
	}
	if errors.Is(err, context.Canceled) {
		return TagCancel
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return TagTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TagTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return TagConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return TagConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return TagConnection
		}
		return TagNetwork
	}
	if netErr != nil {
		return TagNetwork
	}
	return TagUnknown
}

// OutcomeFor builds an Outcome from a received status and body.
func OutcomeFor(status int, body []byte) Outcome {
	tag := TagForStatus(status)
	return Outcome{OK: tag == TagNone, Tag: tag, Status: status, Body: body}
}

// OutcomeForError builds an Outcome for an exchange that failed before a
// response was received.
func OutcomeForError(err error) Outcome {
	tag := TagForError(err)
	if tag == TagNone {
		tag = TagUnknown
	}
	return Outcome{Tag: tag}
}
