package chat

import "fmt"

// TransportError is fatal to the session: a socket read or write failed or
// the server closed the connection. Reconnection policy belongs to the
// caller; the session never retries internally.
type TransportError struct {
	Host  string
	Port  int
	State State
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure on %s:%d (state %s): %s", e.Host, e.Port, e.State, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HandshakeError is fatal to a login attempt: the server rejected the
// credentials or broke the expected packet sequence. The caller decides
// whether to retry with fresh credentials.
type HandshakeError struct {
	Host   string
	Port   int
	State  State
	Reason string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("login failed on %s:%d (state %s): %s", e.Host, e.Port, e.State, e.Reason)
}
