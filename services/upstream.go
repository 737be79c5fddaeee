package services

import "fmt"

// UpstreamKind distinguishes external model failures for diagnostics. Callers
// never show these to end users.
type UpstreamKind string

const (
	UpstreamConnection    UpstreamKind = "connection"
	UpstreamRateLimited   UpstreamKind = "rate_limited"
	UpstreamAPIStatus     UpstreamKind = "api_status"
	UpstreamNotConfigured UpstreamKind = "not_configured"
	UpstreamEmpty         UpstreamKind = "empty"
)

type UpstreamError struct {
	Kind       UpstreamKind
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("upstream %s (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("upstream %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("upstream %s", e.Kind)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == ErrUpstream.Code
}
