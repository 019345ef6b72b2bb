// Package types holds the JSON envelopes shared by every HTTP response.
package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error. Message is already localized to Locale.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Locale    string `json:"locale,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
