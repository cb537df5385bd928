package dto

import (
	"strings"
	"time"

	"github.com/mes/backend/internal/domain/shared"
)

// Response is the success envelope of every API answer
type Response struct {
	Success   bool             `json:"success"`
	Data      any              `json:"data,omitempty"`
	Message   string           `json:"message,omitempty"`
	Meta      *shared.PageMeta `json:"meta,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	ErrorCode  string             `json:"errorCode"`
	StatusCode int                `json:"statusCode"`
	Timestamp  string             `json:"timestamp"`
	Path       string             `json:"path"`
	RequestID  string             `json:"requestId,omitempty"`
	Details    []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one failed field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data, Timestamp: timestamp()}
}

// NewMessageResponse creates a success response carrying a message
func NewMessageResponse(data any, message string) Response {
	return Response{Success: true, Data: data, Message: message, Timestamp: timestamp()}
}

// NewListResponse creates a success response from a page of items
func NewListResponse[T any](page shared.Page[T]) Response {
	meta := page.Meta
	return Response{Success: true, Data: page.Items, Meta: &meta, Timestamp: timestamp()}
}

// NewErrorResponse creates an error response. The code is normalized and
// the status derived from it.
func NewErrorResponse(code, message, path string) ErrorResponse {
	code = NormalizeErrorCode(code)
	return ErrorResponse{
		Success:    false,
		Message:    message,
		ErrorCode:  code,
		StatusCode: GetHTTPStatus(code),
		Timestamp:  timestamp(),
		Path:       path,
	}
}

// NewValidationErrorResponse creates a 400 response listing field failures
func NewValidationErrorResponse(message, path string, details []ValidationDetail) ErrorResponse {
	resp := NewErrorResponse(ErrCodeValidation, message, path)
	resp.Details = details
	return resp
}

// ListQuery holds the common list query parameters
type ListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	Search    string `form:"search" binding:"max=200"`
	Status    string `form:"status"`
	FromDate  string `form:"fromDate"`
	ToDate    string `form:"toDate"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// ToFilter converts the query into a repository filter. Date-only upper
// bounds include the whole day.
func (q ListQuery) ToFilter() (shared.Filter, error) {
	f := shared.DefaultFilter()
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Search = strings.TrimSpace(q.Search)
	f.Status = strings.TrimSpace(q.Status)
	f.OrderBy = q.SortBy
	f.OrderDir = strings.ToLower(q.SortOrder)

	if q.FromDate != "" {
		from, _, err := ParseDate(q.FromDate)
		if err != nil {
			return f, shared.InvalidInput("invalid fromDate %q", q.FromDate)
		}
		f.FromDate = &from
	}
	if q.ToDate != "" {
		to, dateOnly, err := ParseDate(q.ToDate)
		if err != nil {
			return f, shared.InvalidInput("invalid toDate %q", q.ToDate)
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		f.ToDate = &to
	}
	return f.Normalized(), nil
}

// ParseDate accepts YYYY-MM-DD (local time) or RFC 3339. dateOnly reports
// which form matched.
func ParseDate(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	return t, false, err
}

// IDsRequest carries a list of ids in a request body
type IDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}
