package errors

// ErrorBody is the JSON document returned for every failed request.
// "e" carries the human-readable reason, "code" the stable machine-readable one.
type ErrorBody struct {
	E    string `json:"e"`
	Code string `json:"code,omitempty"`
}

// NewErrorBody renders an AppError without exposing its details or cause.
func NewErrorBody(appErr AppError) ErrorBody {
	return ErrorBody{
		E:    appErr.Message(),
		Code: appErr.ErrorCode(),
	}
}
