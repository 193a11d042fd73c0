// Package types defines the JSON envelopes every HTTP response is wrapped in.
package types

// SuccessEnvelope wraps a successful payload under a single data key so
// clients never have to sniff the top-level shape.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body: a stable machine-readable code, a
// message safe to show, and optional structured details (validation fields,
// stock shortfalls).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope carries an APIError under an error key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
