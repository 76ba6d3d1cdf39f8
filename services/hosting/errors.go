package hosting

import "fmt"

// HostingAPIError is returned for any non-2xx response from the source
// hosting REST API. The upstream message is surfaced to the caller.
type HostingAPIError struct {
	StatusCode int
	Message    string
}

func (e *HostingAPIError) Error() string {
	return fmt.Sprintf("hosting API error (status %d): %s", e.StatusCode, e.Message)
}
