package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mes/backend/internal/interfaces/http/dto"
)

// SetupValidator configures gin's validator: JSON field names in errors and
// the yn (alias useyn) tag for Y/N flags. It returns an error when gin is not
// using go-playground/validator.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	if err := v.RegisterValidation("yn", validateYN); err != nil {
		return err
	}
	return v.RegisterValidation("useyn", validateYN)
}

// validateYN accepts "Y" or "N"
func validateYN(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "Y" || s == "N"
}

// HandleBindError writes the response for a failed ShouldBind call
func HandleBindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]dto.ValidationDetail, 0, len(validationErrors))
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
		resp := dto.NewValidationErrorResponse("Request validation failed", c.Request.URL.Path, details)
		resp.RequestID = GetRequestID(c)
		c.AbortWithStatusJSON(resp.StatusCode, resp)
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		AbortWithError(c, dto.ErrCodeInvalidJSON, "Request body is empty")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		AbortWithError(c, dto.ErrCodeInvalidJSON, "Malformed JSON body")
	case errors.As(err, &typeErr):
		AbortWithError(c, dto.ErrCodeInvalidJSON, "Field "+typeErr.Field+" must be "+typeErr.Type.String())
	default:
		AbortWithError(c, dto.ErrCodeBadRequest, err.Error())
	}
}

// validationMessage returns a human-readable validation message
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "yn", "useyn":
		return "Must be Y or N"
	case "ip":
		return "Invalid IP address"
	default:
		return "Invalid value"
	}
}
