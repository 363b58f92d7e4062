package shared

import (
	"errors"
	"fmt"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
)

var (
	// ErrIdempotencyKeyRequired indicates a blank idempotency key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	// ErrIdempotencyReplay indicates the key was already claimed.
	ErrIdempotencyReplay = fmt.Errorf("%w: idempotent request already processed", httpx.ErrConflict)
)
