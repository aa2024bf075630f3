package security

import (
	"context"

	"factgate/pkg/apperrors"
)

type gatewayKey struct{}

// Bind derives a context carrying the gateway for exactly one request.
// Binding over a context that already carries a gateway is a reentrancy bug
// and fails immediately rather than silently shadowing the caller's identity.
//
// Release is scoping: the binding ends when the derived context goes out of
// scope, on every exit path, which is why there is no Unbind.
func Bind(ctx context.Context, gw *Gateway) (context.Context, error) {
	if IsBound(ctx) {
		return nil, apperrors.New(apperrors.CodeInternal, "security gateway already bound")
	}
	return context.WithValue(ctx, gatewayKey{}, gw), nil
}

// FromContext returns the gateway bound to ctx. It fails closed with
// authentication_failed when no gateway is bound: an execution without an
// identity has no access at all.
func FromContext(ctx context.Context) (*Gateway, error) {
	gw, ok := ctx.Value(gatewayKey{}).(*Gateway)
	if !ok {
		return nil, apperrors.New(apperrors.CodeAuthenticationFailed, "no identity bound to execution context")
	}
	return gw, nil
}

// IsBound reports whether ctx carries a gateway.
func IsBound(ctx context.Context) bool {
	_, ok := ctx.Value(gatewayKey{}).(*Gateway)
	return ok
}

// Scoped binds gw, runs fn with the derived context, and guarantees the
// caller's own context stays unbound regardless of how fn exits. This is the
// try/finally-equivalent for code outside the HTTP middleware, e.g. workers
// acting on behalf of a service identity.
func Scoped(ctx context.Context, gw *Gateway, fn func(ctx context.Context) error) error {
	bound, err := Bind(ctx, gw)
	if err != nil {
		return err
	}
	return fn(bound)
}
