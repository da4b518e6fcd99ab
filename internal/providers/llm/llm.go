package llm

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Provider sends one prompt to a text-generation model and returns its full text answer.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// ErrEmptyResponse is returned when the model answered without any text part.
var ErrEmptyResponse = errors.New("empty model response")

// IsRateLimited reports whether err signals "too many requests" from any of the supported backends.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code == 429 {
		return true
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	return strings.Contains(err.Error(), "429")
}
