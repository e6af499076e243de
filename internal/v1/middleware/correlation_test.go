package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loteria-live/backend/go/internal/v1/logging"
)

func TestCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(capture *string) *gin.Engine {
		router := gin.New()
		router.Use(CorrelationID())
		router.GET("/", func(c *gin.Context) {
			*capture = c.GetString(string(logging.CorrelationIDKey))
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("generates an id when the header is absent", func(t *testing.T) {
		var got string
		w := httptest.NewRecorder()
		newRouter(&got).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		header := w.Header().Get(HeaderXCorrelationID)
		require.NotEmpty(t, header)
		_, err := uuid.Parse(header)
		assert.NoError(t, err, "generated ids are uuids")
		assert.Equal(t, header, got, "the same id reaches the request context")
	})

	t.Run("propagates a caller-provided id", func(t *testing.T) {
		var got string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderXCorrelationID, "caller-chosen-id")

		w := httptest.NewRecorder()
		newRouter(&got).ServeHTTP(w, req)

		assert.Equal(t, "caller-chosen-id", w.Header().Get(HeaderXCorrelationID))
		assert.Equal(t, "caller-chosen-id", got)
	})
}
