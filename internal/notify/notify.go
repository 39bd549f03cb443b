package notify

import (
	"context"
	"fmt"
	"time"
)

// Channel delivers one rendered message to the notification endpoint.
//
// A nil error means the endpoint accepted the message. A *RateLimitedError
// is retryable after the embedded hint; any other error is permanent for
// the current cycle.
type Channel interface {
	Send(ctx context.Context, text string) error
}

// RateLimitedError reports flood control with the endpoint-provided wait hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// APIError is a non-retryable rejection from the messaging API.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Description)
}
