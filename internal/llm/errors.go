package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/Abhijeetjrock/db-analyzer1/internal/llm/generate"
)

// ErrorType classifies a provider failure
type ErrorType string

const (
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeEndpoint      ErrorType = "endpoint"
	ErrorTypeModelNotFound ErrorType = "model_not_found"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error is a classified provider failure.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

func (e *Error) Unwrap() error { return e.Cause }

// UserMessage is the short explanation shown next to a rule-based fallback.
// The provider's own text follows in parentheses so a bad key or a dead
// endpoint can be told apart from the summary alone.
func (e *Error) UserMessage() string {
	var summary string
	switch e.Type {
	case ErrorTypeAuth:
		summary = "Invalid API key or insufficient permissions for the configured AI provider."
	case ErrorTypeRateLimit:
		summary = "AI provider rate limit exceeded. Try again in a minute."
	case ErrorTypeTimeout:
		summary = "AI provider request timed out."
	case ErrorTypeModelNotFound:
		summary = "The configured AI model was not found."
	case ErrorTypeEndpoint:
		summary = "AI provider endpoint is unreachable or failing."
	default:
		summary = "AI optimization error: " + e.Message
		if e.Cause == nil {
			return summary
		}
	}
	if detail := e.detail(); detail != "" {
		return summary + " (" + detail + ")"
	}
	return summary
}

const maxDetailLen = 300

// detail is the provider text behind the failure, capped to one short line
func (e *Error) detail() string {
	text := e.Message
	if e.Cause != nil {
		text = e.Cause.Error()
	}
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > maxDetailLen {
		text = string(r[:maxDetailLen]) + "..."
	}
	return text
}

func NewError(errType ErrorType, message string, retryable bool, statusCode int, cause error) *Error {
	return &Error{Type: errType, Message: message, Retryable: retryable, StatusCode: statusCode, Cause: cause}
}

// ClassifyError maps a raw provider error to an *Error. Structured errors
// from the OpenAI client and plain HTTP providers are read by status code;
// anything else falls back to matching the message.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(ErrorTypeTimeout, "request timeout", true, 0, err)
	}
	if errors.Is(err, context.Canceled) {
		return NewError(ErrorTypeTimeout, "request canceled", false, 0, err)
	}

	if status := statusCode(err); status > 0 {
		return classifyStatus(status, err)
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "invalid x-api-key"):
		return NewError(ErrorTypeAuth, "authentication failed", false, 0, err)
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests"):
		return NewError(ErrorTypeRateLimit, "rate limited", true, 0, err)
	case strings.Contains(lower, "model") && (strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")):
		return NewError(ErrorTypeModelNotFound, "model not found", false, 0, err)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return NewError(ErrorTypeEndpoint, "connection failed", true, 0, err)
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return NewError(ErrorTypeTimeout, "request timeout", true, 0, err)
	}
	return NewError(ErrorTypeUnknown, "llm error", false, 0, err)
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var httpErr *generate.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

func classifyStatus(status int, err error) *Error {
	switch {
	case status == 401 || status == 403:
		return NewError(ErrorTypeAuth, "authentication failed", false, status, err)
	case status == 404:
		if strings.Contains(strings.ToLower(err.Error()), "model") {
			return NewError(ErrorTypeModelNotFound, "model not found", false, status, err)
		}
		return NewError(ErrorTypeEndpoint, "endpoint not found", false, status, err)
	case status == 408:
		return NewError(ErrorTypeTimeout, "request timeout", true, status, err)
	case status == 429:
		return NewError(ErrorTypeRateLimit, "rate limited", true, status, err)
	case status >= 500:
		return NewError(ErrorTypeEndpoint, "server error", true, status, err)
	}
	return NewError(ErrorTypeUnknown, "llm error", false, status, err)
}

// IsRetryable reports whether err is a classified, retryable failure
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}
