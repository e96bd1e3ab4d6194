package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindTarget struct {
	ID    string  `json:"id" binding:"required"`
	Price float64 `json:"price" binding:"gt=0"`
}

func TestValidationDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	var captured error
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req bindTarget
		captured = c.ShouldBindJSON(&req)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"price":0}`)))
	require.Error(t, captured)

	details := ValidationDetails(captured)
	require.Len(t, details, 2)
	assert.Equal(t, "id", details[0].Field)
	assert.Equal(t, "is required", details[0].Message)
	assert.Equal(t, "price", details[1].Field)
	assert.Equal(t, "must be greater than 0", details[1].Message)

	assert.Nil(t, ValidationDetails(errors.New("unexpected EOF")))
}
