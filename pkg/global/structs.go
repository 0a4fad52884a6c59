package global

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// FieldError builds a single-field validation entry.
func FieldError(field, message, code string) ValidationError {
	return ValidationError{Field: field, Message: message, Code: code}
}

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"code,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

func SuccessResponse(data any) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

func ErrorResponse(message string, errors []ValidationError) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

// CodedErrorResponse is ErrorResponse with a machine-readable code.
func CodedErrorResponse(code, message string, errors []ValidationError) APIResponse {
	resp := ErrorResponse(message, errors)
	resp.Code = code
	return resp
}
