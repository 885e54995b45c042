package webhooks

import (
	"errors"
	"fmt"
)

// ErrWebhookNotFound is returned by a Store when the webhook row no longer
// exists. The worker discards the task silently.
var ErrWebhookNotFound = errors.New("webhook not found")

// DeliveryTimeoutError is a transport-level failure (connect/read timeout).
// These are the only failures the worker retries.
type DeliveryTimeoutError struct {
	URL string
	Err error
}

func (e *DeliveryTimeoutError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.URL, e.Err)
}

func (e *DeliveryTimeoutError) Unwrap() error {
	return e.Err
}

// DeliveryError is a completed HTTP exchange with a non-2xx status. It is
// recorded in the webhook's telemetry and never retried.
type DeliveryError struct {
	URL    string
	Status int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s returned HTTP %d", e.URL, e.Status)
}
