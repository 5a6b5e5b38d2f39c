package httpdto

// Response is the envelope for every JSON body. Data is always emitted so a
// failed listing still renders "data": [].
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewSuccessMessageResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}

// NewErrorResponseWithData is used where clients expect a typed data field
// even on failure.
func NewErrorResponseWithData[T any](err string, code string, data T) Response[T] {
	return Response[T]{
		Success: false,
		Error:   err,
		Code:    code,
		Data:    data,
	}
}
