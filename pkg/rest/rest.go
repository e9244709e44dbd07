package rest

import "net/http"

type Causes struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ApiErr struct {
	Message string   `json:"message"`
	Err     string   `json:"error"`
	Code    int      `json:"code"`
	Causes  []Causes `json:"causes,omitempty"`
}

func (e *ApiErr) Error() string {
	return e.Message
}

func NewApiErr(message, err string, code int, causes []Causes) *ApiErr {
	return &ApiErr{
		Message: message,
		Err:     err,
		Code:    code,
		Causes:  causes,
	}
}

func NewBadRequestError(message string) *ApiErr {
	return NewApiErr(message, "bad_request", http.StatusBadRequest, nil)
}

func NewBadRequestValidationError(message string, causes []Causes) *ApiErr {
	return NewApiErr(message, "bad_request", http.StatusBadRequest, causes)
}

func NewUnauthorizedRequestError(message string) *ApiErr {
	return NewApiErr(message, "unauthorized", http.StatusUnauthorized, nil)
}

func NewNotFoundError(message string) *ApiErr {
	return NewApiErr(message, "not_found", http.StatusNotFound, nil)
}

func NewUnprocessableEntity(message string) *ApiErr {
	return NewApiErr(message, "unprocessable_entity", http.StatusUnprocessableEntity, nil)
}

func NewInternalServerError(message string) *ApiErr {
	return NewApiErr(message, "internal_server_error", http.StatusInternalServerError, nil)
}
