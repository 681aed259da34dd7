package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CanRetry      bool   `json:"can_retry"`
	SuggestManual bool   `json:"suggest_manual"`
	Details       any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
