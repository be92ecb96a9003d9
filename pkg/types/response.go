package types

// SuccessEnvelope wraps every 2xx JSON body under a single data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error shape. Details is only populated for
// codes whose metadata allows exposing them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps a single APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
