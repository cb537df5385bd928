package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var setupValidatorOnce sync.Once

type consumableBody struct {
	ConsumableCode string `json:"consumableCode" binding:"required,max=50"`
	ExpectedLife   int    `json:"expectedLife" binding:"omitempty,min=1"`
	UseYn          string `json:"useYn" binding:"omitempty,yn"`
	Category       string `json:"category" binding:"omitempty,oneof=MOLD JIG TOOL"`
}

func newValidationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	setupValidatorOnce.Do(func() {
		require.NoError(t, SetupValidator())
	})
	r := gin.New()
	r.POST("/consumables", func(c *gin.Context) {
		var body consumableBody
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleBindError(c, err)
			return
		}
		c.JSON(http.StatusCreated, body)
	})
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/consumables", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(r, req)
}

func TestHandleBindError_Validation(t *testing.T) {
	r := newValidationRouter(t)

	w := postJSON(r, `{"expectedLife":0,"useYn":"X","category":"BOLT"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.ErrorCode)
	fields := map[string]string{}
	for _, d := range resp.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "consumableCode is required", fields["consumableCode"])
	assert.Equal(t, "Must be Y or N", fields["useYn"])
	assert.Equal(t, "Must be one of: MOLD JIG TOOL", fields["category"])
}

func TestHandleBindError_Accepts(t *testing.T) {
	r := newValidationRouter(t)
	w := postJSON(r, `{"consumableCode":"MOLD-01","useYn":"N","category":"MOLD"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandleBindError_BadJSON(t *testing.T) {
	r := newValidationRouter(t)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"empty body", ``, "Request body is empty"},
		{"truncated", `{"consumableCode":`, "Malformed JSON body"},
		{"syntax", `{"consumableCode" "M"}`, "Malformed JSON body"},
		{"wrong type", `{"consumableCode":"M","expectedLife":"ten"}`, "Field expectedLife must be int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, dto.ErrCodeInvalidJSON, resp.ErrorCode)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, resp.Message)
			}
		})
	}
}
