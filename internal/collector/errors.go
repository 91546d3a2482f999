package collector

import "fmt"

// Kind classifies why a GetCapabilities request failed.
type Kind string

const (
	// KindNetwork covers transport failures: DNS, TLS, timeouts, resets.
	KindNetwork Kind = "network"
	// KindStatus is a response with a status other than 200.
	KindStatus Kind = "status"
	// KindMalformed is a 200 response whose body is not a capabilities document.
	KindMalformed Kind = "malformed"
)

// FetchError is the error returned for a failed (server, service) query.
// Its message becomes the detail of the error event.
type FetchError struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	case KindMalformed:
		return fmt.Sprintf("malformed response: %v", e.Err)
	default:
		return fmt.Sprintf("network error: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could succeed.
func (e *FetchError) Retryable() bool {
	return e.Kind == KindNetwork
}
