package gee

// ErrorResponse is the JSON body of every error written through AbortWithError.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func NewErrorResponse(c *Context, code int, message string) ErrorResponse {
	return ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: c.Req.Header.Get("X-Request-ID"),
	}
}
