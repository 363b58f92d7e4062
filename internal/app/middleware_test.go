package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vpants/bookkeeper/internal/shared"
)

type stubKeys struct {
	claimErr error
	claimed  int
	released int
}

func (s *stubKeys) Claim(ctx context.Context, scope, key string) error {
	s.claimed++
	return s.claimErr
}

func (s *stubKeys) Release(ctx context.Context, scope, key string) error {
	s.released++
	return nil
}

func (s *stubKeys) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	return 0, nil
}

func serve(mw func(http.Handler) http.Handler, method string, key string, status int) *httptest.ResponseRecorder {
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	req := httptest.NewRequest(method, "/sales", nil)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIdempotencySkipsWithoutKeyOrPost(t *testing.T) {
	keys := &stubKeys{}
	mw := Idempotency(keys, nil)
	require.Equal(t, http.StatusCreated, serve(mw, http.MethodPost, "", http.StatusCreated).Code)
	require.Equal(t, http.StatusOK, serve(mw, http.MethodGet, "k", http.StatusOK).Code)
	require.Zero(t, keys.claimed)
}

func TestIdempotencyReleasesOnClientError(t *testing.T) {
	keys := &stubKeys{}
	mw := Idempotency(keys, nil)
	require.Equal(t, http.StatusBadRequest, serve(mw, http.MethodPost, "k", http.StatusBadRequest).Code)
	require.Equal(t, 1, keys.released)
	require.Equal(t, http.StatusCreated, serve(mw, http.MethodPost, "k", http.StatusCreated).Code)
	require.Equal(t, 1, keys.released)
}

func TestIdempotencyStoreFailure(t *testing.T) {
	mw := Idempotency(&stubKeys{claimErr: errors.New("redis down")}, nil)
	require.Equal(t, http.StatusInternalServerError, serve(mw, http.MethodPost, "k", http.StatusCreated).Code)

	mw = Idempotency(&stubKeys{claimErr: shared.ErrIdempotencyReplay}, nil)
	require.Equal(t, http.StatusConflict, serve(mw, http.MethodPost, "k", http.StatusCreated).Code)
}
