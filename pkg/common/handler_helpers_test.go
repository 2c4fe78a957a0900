package common_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		fallbackMsg     string
		expectHandled   bool
		expectStatus    int
		expectErrorCode string
		expectMessage   string
	}{
		{
			name:          "nil error returns false",
			err:           nil,
			fallbackMsg:   "failed",
			expectHandled: false,
		},
		{
			name:            "not found AppError",
			err:             common.NewNotFoundError("No coordinates found", nil),
			fallbackMsg:     "failed to geocode",
			expectHandled:   true,
			expectStatus:    http.StatusNotFound,
			expectErrorCode: common.CodeNotFound,
			expectMessage:   "No coordinates found",
		},
		{
			name:            "wrapped AppError is unwrapped",
			err:             fmt.Errorf("lookup: %w", common.NewBadRequestError("Location is required", nil)),
			fallbackMsg:     "failed",
			expectHandled:   true,
			expectStatus:    http.StatusBadRequest,
			expectErrorCode: common.CodeInputError,
			expectMessage:   "Location is required",
		},
		{
			name:            "upstream error hides the cause",
			err:             common.NewUpstreamError(http.StatusBadGateway, "Failed to fetch route", errors.New("dial tcp: refused")),
			fallbackMsg:     "failed",
			expectHandled:   true,
			expectStatus:    http.StatusBadGateway,
			expectErrorCode: common.CodeUpstreamError,
			expectMessage:   "Failed to fetch route",
		},
		{
			name:          "regular error uses fallback",
			err:           errors.New("boom"),
			fallbackMsg:   "failed to fetch route",
			expectHandled: true,
			expectStatus:  http.StatusInternalServerError,
			expectMessage: "failed to fetch route",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			handled := common.HandleServiceError(c, tt.err, tt.fallbackMsg)
			assert.Equal(t, tt.expectHandled, handled)
			if !tt.expectHandled {
				return
			}

			assert.Equal(t, tt.expectStatus, w.Code)

			var resp common.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectMessage, resp.Error.Message)
			assert.Equal(t, tt.expectErrorCode, resp.Error.ErrorCode)
			assert.NotContains(t, w.Body.String(), "dial tcp")
		})
	}
}

func TestErrorCodeOf(t *testing.T) {
	assert.Equal(t, "", common.ErrorCodeOf(nil))
	assert.Equal(t, common.CodeUserError, common.ErrorCodeOf(common.NewUserError("Please enter valid source and destination.")))
	assert.Equal(t, common.CodeInternalError, common.ErrorCodeOf(errors.New("x")))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := common.NewUpstreamError(http.StatusInternalServerError, "Internal server error", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error: timeout", err.Error())
}

func TestParseUUIDParam(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	_, ok := common.ParseUUIDParam(c, "id", "session ID")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid session ID")
}

func TestReadinessProbe(t *testing.T) {
	router := gin.New()
	router.GET("/ready", common.ReadinessProbe("routes", "1.0.0", map[string]func() error{
		"redis":  func() error { return nil },
		"router": func() error { return errors.New("unreachable") },
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp common.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not ready", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["redis"].Status)
	assert.Equal(t, "unreachable", resp.Checks["router"].Message)
}

func TestNoRouteAndNoMethodHandlers(t *testing.T) {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(common.NoRouteHandler())
	router.NoMethod(common.NoMethodHandler())
	router.GET("/known", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":404,"message":"route not found"}}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/known", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
