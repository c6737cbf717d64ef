package errors_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/musemate/backend/pkg/errors"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"not found":  {apperrors.NewNotFoundError("museum not found"), http.StatusNotFound},
		"validation": {apperrors.NewValidationError("query is required"), http.StatusBadRequest},
		"conflict":   {apperrors.NewConflictError("stale revision"), http.StatusConflict},
		"external":   {apperrors.NewExternalError("youtube", fmt.Errorf("boom")), http.StatusBadGateway},
		"wrapped":    {fmt.Errorf("lookup: %w", apperrors.NewNotFoundError("x")), http.StatusNotFound},
		"deadline":   {context.DeadlineExceeded, http.StatusGatewayTimeout},
		"plain":      {fmt.Errorf("boom"), http.StatusInternalServerError},
		"unknown":    {&apperrors.AppError{Type: "UNAUTHORIZED", Message: "x"}, http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, apperrors.HTTPStatus(tc.err))
		})
	}
}

func TestIsTransportFailure(t *testing.T) {
	assert.True(t, apperrors.IsTransportFailure(apperrors.NewExternalError("vimeo", nil)))
	assert.True(t, apperrors.IsTransportFailure(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.False(t, apperrors.IsTransportFailure(apperrors.NewNotFoundError("x")))
	assert.False(t, apperrors.IsTransportFailure(nil))
}

func TestPublicMessageHidesInternalDetail(t *testing.T) {
	err := apperrors.NewInternalError("failed to scan row", fmt.Errorf("pq: secret detail"))
	assert.Equal(t, "internal server error", apperrors.PublicMessage(err))
	assert.Equal(t, "museum not found", apperrors.PublicMessage(apperrors.NewNotFoundError("museum not found")))
}
