package station

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the station address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-2xx response not covered below
	ErrTypeHTTP
	// ErrTypeRejected indicates the station rejected the request (4xx)
	ErrTypeRejected
	// ErrTypeParse indicates a response that could not be decoded
	ErrTypeParse
	// ErrTypeJob indicates a generation job that finished with an error
	ErrTypeJob
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeRejected:
		return "Request Rejected"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeJob:
		return "Job Failed"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// StationError is returned by every Client call that fails.
type StationError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Hint       string    // Troubleshooting text sent by the station, if any
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the request may be retried
}

// Error implements the error interface
func (e *StationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *StationError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error.
func ClassifyNetworkError(err error) *StationError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &StationError{Type: ErrTypeTimeout, Message: "Request timed out", Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &StationError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &StationError{Type: ErrTypeConnectionRefused, Message: "Station refused connection", Err: err, Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &StationError{Type: ErrTypeNetwork, Message: "Network error occurred", Err: err, Retryable: true}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *StationError {
	classified := ClassifyNetworkError(err)
	if classified == nil {
		return &StationError{Type: ErrTypeNetwork, Message: message, Retryable: true}
	}
	classified.Message = message
	return classified
}

// NewHTTPError creates an error from a non-2xx response. message and hint
// come from the station's error body when it sent one.
func NewHTTPError(statusCode int, message, hint string) *StationError {
	t := ErrTypeHTTP
	if statusCode >= 400 && statusCode < 500 {
		t = ErrTypeRejected
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &StationError{
		Type:       t,
		Message:    message,
		StatusCode: statusCode,
		Hint:       hint,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *StationError {
	return &StationError{Type: ErrTypeParse, Message: message, Err: err}
}

// NewJobError reports a job the station could not complete.
func NewJobError(id, message string) *StationError {
	return &StationError{Type: ErrTypeJob, Message: fmt.Sprintf("job %s: %s", id, message)}
}

func asStationError(err error) (*StationError, bool) {
	var se *StationError
	ok := errors.As(err, &se)
	return se, ok
}

// IsNetworkError checks if an error is a transport error of any kind
func IsNetworkError(err error) bool {
	se, ok := asStationError(err)
	if !ok {
		return false
	}
	switch se.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// IsNotFound checks if the station answered 404
func IsNotFound(err error) bool {
	se, ok := asStationError(err)
	return ok && se.StatusCode == http.StatusNotFound
}

// IsConflict checks if the station answered 409
func IsConflict(err error) bool {
	se, ok := asStationError(err)
	return ok && se.StatusCode == http.StatusConflict
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	se, ok := asStationError(err)
	return ok && se.Retryable
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	se, ok := asStationError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}
	if se.Hint != "" {
		return se.Hint
	}

	switch se.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The station did not respond in time.",
			"Troubleshooting:",
			"  • Check that labelgen-server is running on the station",
			"  • Large label jobs can take a while; poll the job instead of waiting",
			"  • Try increasing the timeout with --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"Nothing is listening at the station address.",
			"Troubleshooting:",
			"  • Start the station: labelgen-server",
			"  • Verify the port number (default is 8780)",
			"  • Find running stations with: labelgen discover",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the station hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Find running stations with: labelgen discover",
		}, "\n")

	case ErrTypeNetwork:
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check that you're on the same network as the station",
			"  • Check firewall rules for the station port",
		}, "\n")

	case ErrTypeHTTP:
		return strings.Join([]string{
			fmt.Sprintf("The station returned an error (HTTP %d).", se.StatusCode),
			"Troubleshooting:",
			"  • Check the station logs: labelgen logs --remote",
			"  • Make sure the workbook is not open in a spreadsheet application",
		}, "\n")

	case ErrTypeRejected:
		return fmt.Sprintf("The station rejected the request (HTTP %d). Check the request values.", se.StatusCode)

	case ErrTypeParse:
		return strings.Join([]string{
			"Failed to parse the station's response.",
			"Troubleshooting:",
			"  • Client and station versions may differ; compare labelgen version outputs",
		}, "\n")

	case ErrTypeJob:
		return "The label job failed on the station. Check the station logs for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	se, ok := asStationError(err)
	if !ok {
		return err.Error()
	}

	switch se.Type {
	case ErrTypeTimeout:
		return "Station not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Station refused connection - is labelgen-server running?"
	case ErrTypeDNS:
		return "Cannot resolve station hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Station error (HTTP %d)", se.StatusCode)
	case ErrTypeParse:
		return "Failed to parse station response"
	default:
		return se.Message
	}
}
