package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/mes/backend/internal/application/identity"
	"github.com/mes/backend/internal/domain/identity"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*identityapp.Principal, error) {
	args := m.Called(ctx, token)
	if p := args.Get(0); p != nil {
		return p.(*identityapp.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func newAuthRouter(a Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Auth(AuthConfig{Authenticator: a, SkipPaths: []string{"/api/v1/auth/login"}}))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId":    GetUserID(c),
			"ctxUserId": logger.GetUserID(c.Request.Context()),
			"hasUser":   GetPrincipal(c) != nil,
		})
	}
	r.GET("/api/v1/parts", handler)
	r.POST("/api/v1/auth/login", handler)
	return r
}

func TestAuth_ValidToken(t *testing.T) {
	user := &identity.User{UserCode: "op1"}
	user.ID = uuid.New()
	a := &mockAuthenticator{}
	a.On("Authenticate", mock.Anything, user.ID.String()).Return(&identityapp.Principal{User: user}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parts", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+user.ID.String())
	w := serve(newAuthRouter(a), req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"`+user.ID.String()+`","ctxUserId":"`+user.ID.String()+`","hasUser":true}`, w.Body.String())
	a.AssertExpectations(t)
}

func TestAuth_Rejections(t *testing.T) {
	a := &mockAuthenticator{}
	a.On("Authenticate", mock.Anything, "expired").Return(nil, identityapp.ErrInvalidToken)
	a.On("Authenticate", mock.Anything, "dbdown").Return(nil, errors.New("dial tcp: connection refused"))
	r := newAuthRouter(a)

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"empty token", "Bearer  ", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"invalid token", "Bearer expired", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"store down", "Bearer dbdown", http.StatusServiceUnavailable, dto.ErrCodeServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/parts", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).ErrorCode)
		})
	}
}

func TestAuth_SkipPath(t *testing.T) {
	a := &mockAuthenticator{}
	w := serve(newAuthRouter(a), httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"","ctxUserId":"","hasUser":false}`, w.Body.String())
	a.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestAuth_InactiveUserKeepsDomainMessage(t *testing.T) {
	a := &mockAuthenticator{}
	a.On("Authenticate", mock.Anything, "tok").Return(nil, shared.NewDomainError("UNAUTHORIZED", "User is inactive"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parts", nil)
	req.Header.Set(AuthHeaderKey, "Bearer tok")
	w := serve(newAuthRouter(a), req)
	assert.Equal(t, "User is inactive", decodeError(t, w).Message)
}
