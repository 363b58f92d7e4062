package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrap: %w", ErrValidation), http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrDuplicate, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("pq: password authentication failed"))
	require.NotContains(t, rr.Body.String(), "password")
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount": 1, "bogus": true}`))
	var body struct {
		Amount int `json:"amount"`
	}
	err := DecodeJSON(req, &body)
	require.ErrorIs(t, err, ErrValidation)
}

func TestBindReportsFieldFailures(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": ""}`))
	var body struct {
		Name string `json:"name" validate:"required"`
	}
	err := Bind(req, validator.New(), &body)
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), `name failed "required"`)
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?days=7&bad=x", nil)
	v, err := QueryInt(req, "days", 30)
	require.NoError(t, err)
	require.EqualValues(t, 7, v)

	v, err = QueryInt(req, "missing", 30)
	require.NoError(t, err)
	require.EqualValues(t, 30, v)

	_, err = QueryInt(req, "bad", 30)
	require.ErrorIs(t, err, ErrValidation)
}
