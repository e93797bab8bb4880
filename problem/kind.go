// Package problem classifies the outcome of an HTTP exchange into a closed
// set of problem kinds so callers never branch on raw status codes.
package problem

// Kind identifies the classified result of an exchange.
type Kind string

const (
	// KindOK is a successful exchange carrying the unwrapped payload.
	KindOK Kind = "ok"

	// KindCannotConnect means the server could not be reached.
	KindCannotConnect Kind = "cannot-connect"
	// KindTimeout means the request did not complete in time.
	KindTimeout Kind = "timeout"
	// KindServer is any 5xx response.
	KindServer Kind = "server"
	// KindUnauthorized is a 401.
	KindUnauthorized Kind = "unauthorized"
	// KindForbidden is a 403.
	KindForbidden Kind = "forbidden"
	// KindNotFound is a 404.
	KindNotFound Kind = "not-found"
	// KindDuplicate is a 409.
	KindDuplicate Kind = "duplicate"
	// KindBadRequest is a 400.
	KindBadRequest Kind = "bad-request"
	// KindRejected is every other 4xx.
	KindRejected Kind = "rejected"
	// KindUnknown is the catch-all for unexpected transport failures.
	KindUnknown Kind = "unknown"
	// KindBadData means the payload did not have the expected shape.
	// Only produced when strict payload checking is requested.
	KindBadData Kind = "bad-data"
)

// Temporary reports whether an unmodified retry of a request that produced
// this kind has a reasonable chance of succeeding.
func (k Kind) Temporary() bool {
	switch k {
	case KindCannotConnect, KindTimeout, KindUnknown:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Tag is the problem tag a transport attaches to a failed exchange.
type Tag string

const (
	TagNone       Tag = ""
	TagConnection Tag = "CONNECTION_ERROR"
	TagNetwork    Tag = "NETWORK_ERROR"
	TagTimeout    Tag = "TIMEOUT_ERROR"
	TagServer     Tag = "SERVER_ERROR"
	TagUnknown    Tag = "UNKNOWN_ERROR"
	TagClient     Tag = "CLIENT_ERROR"
	TagCancel     Tag = "CANCEL_ERROR"
)
