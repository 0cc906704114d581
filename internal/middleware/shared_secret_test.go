package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSecretRouter(secret string) *gin.Engine {
	router := gin.New()
	router.POST("/generate", RequireSharedSecret(secret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequireSharedSecretAccepts(t *testing.T) {
	router := newSecretRouter("s3cret")

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.Header.Set(SharedSecretHeader, "s3cret")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRequireSharedSecretRejectsWrongValue(t *testing.T) {
	router := newSecretRouter("s3cret")

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.Header.Set(SharedSecretHeader, "guess")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestRequireSharedSecretRejectsMissingHeader(t *testing.T) {
	router := newSecretRouter("s3cret")

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestRequireSharedSecretRejectsWhenUnconfigured(t *testing.T) {
	router := newSecretRouter("")

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.Header.Set(SharedSecretHeader, "")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
