package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitErrorWithRetry("slow down", 0)

	if err.Error() != "slow down" {
		t.Fatalf("Error message = %q, want %q", err.Error(), "slow down")
	}

	if !IsRateLimitError(err) {
		t.Fatalf("IsRateLimitError returned false for RateLimitError")
	}

	wrapped := fmt.Errorf("fetching: %w", err)
	if !IsRateLimitError(wrapped) {
		t.Fatalf("IsRateLimitError returned false for wrapped RateLimitError")
	}
}

func TestRateLimitErrorWithRetry(t *testing.T) {
	tests := []struct {
		name            string
		duration        time.Duration
		expectedMessage string
	}{
		{name: "zero", duration: 0, expectedMessage: "rate limited"},
		{name: "1 second", duration: time.Second, expectedMessage: "rate limited (retry after 1s)"},
		{name: "2 minutes", duration: 2 * time.Minute, expectedMessage: "rate limited (retry after 2m0s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRateLimitErrorWithRetry("rate limited", tt.duration)
			if err.Error() != tt.expectedMessage {
				t.Fatalf("Error message = %q, want %q", err.Error(), tt.expectedMessage)
			}
			if err.RetryAfter != tt.duration {
				t.Fatalf("RetryAfter = %v, want %v", err.RetryAfter, tt.duration)
			}
		})
	}
}

func TestInvalidInputError(t *testing.T) {
	err := NewInvalidInputError("Invalid OCR text provided")

	if err.Error() != "Invalid OCR text provided" {
		t.Fatalf("Error message = %q", err.Error())
	}
	if !IsInvalidInput(fmt.Errorf("wrap: %w", err)) {
		t.Fatalf("IsInvalidInput returned false for wrapped InvalidInputError")
	}
	if IsNotFound(err) || IsTransport(err) {
		t.Fatalf("InvalidInputError classified as another kind")
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("No books found matching the text")

	if !IsNotFound(stdErrors.Join(err)) {
		t.Fatalf("IsNotFound returned false for joined NotFoundError")
	}
	if IsInvalidInput(err) || IsTransport(err) {
		t.Fatalf("NotFoundError classified as another kind")
	}
}

func TestTransportError(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := NewTransportError("catalog request", cause)

	if err.Error() != "catalog request: connection refused" {
		t.Fatalf("Error message = %q", err.Error())
	}
	if !stdErrors.Is(err, cause) {
		t.Fatalf("TransportError does not unwrap to its cause")
	}
	if !IsTransport(fmt.Errorf("outer: %w", err)) {
		t.Fatalf("IsTransport returned false for wrapped TransportError")
	}

	bare := NewTransportError("", cause)
	if bare.Error() != "connection refused" {
		t.Fatalf("Error message without op = %q", bare.Error())
	}
}

func TestRateLimitCountsAsTransport(t *testing.T) {
	if !IsTransport(NewRateLimitErrorWithRetry("429", 0)) {
		t.Fatalf("RateLimitError should classify as a transport failure")
	}
}

func TestSelectionCancelledError(t *testing.T) {
	err := NewSelectionCancelledError("user stopped")

	if err.Error() != "user stopped" {
		t.Fatalf("Error message = %q, want %q", err.Error(), "user stopped")
	}

	if !IsSelectionCancelled(stdErrors.Join(err)) {
		t.Fatalf("IsSelectionCancelled returned false for wrapped SelectionCancelledError")
	}
}
