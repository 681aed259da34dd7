package cep

import (
	"context"
	"errors"
	"net"
	"net/url"

	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 4096

// Provider fetches an address for a normalized eight-digit code. A nil error
// means the provider answered authoritatively; not-found is returned as a
// CodeNotFound error so callers can distinguish it from transport failures.
type Provider interface {
	Source() Source
	Fetch(ctx context.Context, code string) (*Address, error)
}

// classifyTransportError splits a failed HTTP round trip into timeout vs
// generic network failure. Both are retryable as-is.
func classifyTransportError(err error, action string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, action+" timed out")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, action+" timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, action+" timed out")
	}
	return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, action+" failed")
}
