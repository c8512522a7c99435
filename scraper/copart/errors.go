package copart

import (
	"fmt"
	"net/http"
)

// ErrorKind buckets fetch failures into the retryable modes the HTTP
// boundary knows how to report.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrTimeout
	ErrBlocked
	ErrNotFound
	ErrNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTimeout:
		return "timeout"
	case ErrBlocked:
		return "blocked"
	case ErrNotFound:
		return "not found"
	case ErrNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the failure kind onto the status code the boundary layer
// reports to clients.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrTimeout:
		return http.StatusGatewayTimeout
	case ErrBlocked:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message is the client-facing description for the failure kind.
func (k ErrorKind) Message() string {
	switch k {
	case ErrTimeout:
		return "Request to the auction site timed out"
	case ErrBlocked:
		return "Access denied by the auction site"
	case ErrNotFound:
		return "Lot not found"
	case ErrNetwork:
		return "Unable to connect to the auction site"
	default:
		return "Error processing request"
	}
}

// FetchError is the typed failure a Fetch returns. The extractor never sees
// one; the boundary maps it straight to an HTTP status.
type FetchError struct {
	Kind      ErrorKind
	LotNumber string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch lot %s: %s: %v", e.LotNumber, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
