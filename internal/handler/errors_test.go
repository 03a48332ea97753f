package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/recipe-box/internal/logutil"
	"github.com/iliyamo/recipe-box/internal/repository"
	"github.com/iliyamo/recipe-box/internal/service"
)

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{&service.ValidationError{Field: "name", Reason: "is required"}, http.StatusBadRequest, `"field":"name"`},
		{repository.ErrUsernameTaken, http.StatusBadRequest, "username already exists"},
		{service.ErrInvalidCredentials, http.StatusBadRequest, "invalid credentials"},
		{repository.ErrUnknownOwner, http.StatusForbidden, "unknown user"},
		{fmt.Errorf("lookup: %w", repository.ErrNotFound), http.StatusNotFound, "recipe not found"},
		{repository.ErrConflict, http.StatusConflict, "retry"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, writeError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestWriteErrorHidesAndLogsStorageFailures(t *testing.T) {
	var logs bytes.Buffer
	ctx := logutil.WithLogger(context.Background(), logutil.New(&logs, "info", "json"))
	req := httptest.NewRequest(http.MethodGet, "/recipes", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, writeError(c, errors.New("connection refused on 10.0.0.5")))
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, logs.String(), "10.0.0.5")
}

type failingPinger struct{ err error }

func (p failingPinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	e := echo.New()
	for _, tc := range []struct {
		name   string
		db     Pinger
		status int
	}{
		{"no store", nil, http.StatusOK},
		{"store up", failingPinger{}, http.StatusOK},
		{"store down", failingPinger{errors.New("down")}, http.StatusServiceUnavailable},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, Health(tc.db)(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
