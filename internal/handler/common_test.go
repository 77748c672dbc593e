package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/parking-reservation/internal/repository"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	assert.NoError(t, respondError(c, err))
	return rec.Code
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{repository.ErrNoAvailableSpot, http.StatusConflict},
		{repository.ErrInvalidTransition, http.StatusConflict},
		{repository.ErrCapacity, http.StatusConflict},
		{repository.ErrDeletionBlocked, http.StatusConflict},
		{repository.ErrConsistency, http.StatusConflict},
		{fmt.Errorf("cancel from active: %w", repository.ErrInvalidTransition), http.StatusConflict},
		{repository.ErrForbidden, http.StatusForbidden},
		{repository.ErrLotNotFound, http.StatusNotFound},
		{repository.ErrSpotNotFound, http.StatusNotFound},
		{repository.ErrReservationNotFound, http.StatusNotFound},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(t, tc.err), "error %v", tc.err)
	}
}

func TestGetUserIDTypes(t *testing.T) {
	e := echo.New()
	for _, v := range []interface{}{uint64(7), int(7), int64(7), float64(7), "7"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set("user_id", v)
		id, err := getUserID(c)
		assert.NoError(t, err)
		assert.EqualValues(t, 7, id)
	}
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := getUserID(c)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	assert.NoError(t, Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
