package dto

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fraudguard/fraudguard/pkg/constants"
	"github.com/fraudguard/fraudguard/pkg/errors"
)

// APIResponse is the uniform envelope of every API reply.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorDTO   `json:"error,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorDTO is the wire form of an application error.
type ErrorDTO struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps a payload in the success envelope.
func SuccessResponse(data interface{}, traceID string) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

// SendSuccess writes the success envelope with the request trace id.
func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse(data, requestTraceID(c)))
}

// SendError writes the failure envelope, deriving the HTTP status from the
// application error code.
func SendError(c *gin.Context, err error) {
	appErr := errors.FromError(err)
	c.JSON(appErr.HTTPStatus, ErrorResponse(appErr, requestTraceID(c)))
}

func requestTraceID(c *gin.Context) string {
	traceID, _ := c.Request.Context().Value(constants.ContextKeyTraceID).(string)
	return traceID
}

// ErrorResponse wraps an error in the failure envelope, normalizing unknown
// errors to the internal code.
func ErrorResponse(err error, traceID string) *APIResponse {
	appErr := errors.FromError(err)
	return &APIResponse{
		Success: false,
		Error: &ErrorDTO{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		},
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}
