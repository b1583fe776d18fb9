package agent

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means the completion provider has no API key. It routes to
// the fallback path and must never surface to the end user as a hard failure.
var ErrNotConfigured = errors.New("completion provider is not configured")

// ProviderError wraps network, timeout, or malformed-response failures from an
// external service.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
