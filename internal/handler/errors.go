package handler

// ErrorDetail is the machine-readable part of an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON body for every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "tag not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// validationBody returns an ErrorResponse for a domain validation failure.
// The message is extracted from the wrapped domain.ErrValidation error.
func validationBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)}}
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

// forbiddenBody returns an ErrorResponse for an operation on a disabled tag.
func forbiddenBody() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "forbidden", Message: "this tag has been disabled by the owner"}}
}

// conflictBody returns an ErrorResponse for a tag code that is already taken.
func conflictBody() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "already_registered", Message: "this tag code is already registered"}}
}

// rateLimitBody returns an ErrorResponse for a cooldown rejection.
func rateLimitBody() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "rate_limited", Message: "please wait before sending another alert"}}
}

// internalBody returns the generic ErrorResponse for unexpected failures.
// Details stay in the logs; callers get no internals.
func internalBody() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal server error"}}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TagService.Register: validation error: invalid phone number format"
// → "invalid phone number format"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, prefix := range []string{
		"service.TagService.Register: validation error: ",
		"service.TagService.Alert: validation error: ",
		"validation error: ",
	} {
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
