package errors

import (
	"context"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/plugin/pdap"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    ErrorCode
		wantStatus  int
		wantMessage string
	}{
		{"missing token", pkgerrors.Wrap(pdap.ErrNoToken, "create"), ErrCodeUnauthorized, http.StatusUnauthorized, "authentication required"},
		{"api 401", &pdap.StatusError{StatusCode: 401, Message: "Token expired"}, ErrCodeUnauthorized, http.StatusUnauthorized, "Token expired"},
		{"api 404", pkgerrors.Wrap(&pdap.StatusError{StatusCode: 404}, "get"), ErrCodeNotFound, http.StatusNotFound, "not found"},
		{"api 400", &pdap.StatusError{StatusCode: 400, Message: "title is required"}, ErrCodeInvalidArgument, http.StatusBadRequest, "title is required"},
		{"api 429", &pdap.StatusError{StatusCode: 429}, ErrCodeRateLimitExceeded, http.StatusTooManyRequests, "rate limit exceeded"},
		{"api 500", &pdap.StatusError{StatusCode: 500, Message: "boom"}, ErrCodeUpstreamFailed, http.StatusBadGateway, "data sources API request failed"},
		{"transport", pkgerrors.New("dial tcp: refused"), ErrCodeUpstreamFailed, http.StatusBadGateway, "data sources API request failed"},
		{"deadline", pkgerrors.Wrap(context.DeadlineExceeded, "GET /search"), ErrCodeTimeout, http.StatusGatewayTimeout, "upstream request timed out"},
		{"already classified", InvalidArgument("bad id"), ErrCodeInvalidArgument, http.StatusBadRequest, "bad id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus())
			assert.Equal(t, tt.wantMessage, got.Message)
			if tt.err != nil {
				assert.ErrorIs(t, got, tt.err)
			}
		})
	}

	assert.Nil(t, FromError(nil))
}

func TestAPIError(t *testing.T) {
	cause := pkgerrors.New("socket closed")
	err := UpstreamFailed("search failed", cause)
	assert.Equal(t, "[UPSTREAM_FAILED] search failed: socket closed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[PERMISSION_DENIED] foreign origin", PermissionDenied("foreign origin").Error())
	assert.Equal(t, http.StatusForbidden, PermissionDenied("x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, (&APIError{Code: "OTHER"}).HTTPStatus())

	var apiErr *APIError
	require.True(t, pkgerrors.As(pkgerrors.Wrap(Unauthorized("x"), "ctx"), &apiErr))
	assert.Equal(t, ErrCodeUnauthorized, apiErr.Code)
}
