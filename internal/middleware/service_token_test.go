package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stretchr/testify/assert"
)

func newServiceRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(RequireServiceToken(token))
	api.GET("/quiz/questions/:category", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"questions": []string{}})
	})
	return r
}

func questionsRequest(authorization string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quiz/questions/geo", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func TestRequireServiceToken(t *testing.T) {
	r := newServiceRouter("svc-token")

	cases := []struct {
		name          string
		authorization string
		status        int
		code          response.ErrCode
	}{
		{"missing header", "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"not bearer", "Basic c3ZjLXRva2Vu", http.StatusUnauthorized, response.ErrTokenRequired},
		{"wrong token", "Bearer guess", http.StatusUnauthorized, response.ErrTokenInvalid},
		{"valid token", "Bearer svc-token", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, questionsRequest(tc.authorization))
			assert.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, w))
			}
		})
	}
}

func TestRequireServiceTokenClosedWithoutToken(t *testing.T) {
	r := newServiceRouter("")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, questionsRequest("Bearer anything"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrTokenInvalid, errorCode(t, w))
}
