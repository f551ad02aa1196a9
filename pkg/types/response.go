package types

// SuccessEnvelope wraps every successful API payload, so a booking, a
// reservation result and an availability window all share the same shape.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a failed request. Code carries the
// taxonomy value (INSUFFICIENT_INVENTORY, CONCURRENCY_ABORT, ...); Details
// is populated only where the code allows it, e.g. per-date shortfalls.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError the same way SuccessEnvelope wraps data.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
