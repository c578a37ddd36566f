// Package reqctx carries request-scoped values through context.Context:
// the request metadata set by the HTTP middleware, and the verified token
// claims of authenticated requests.
//
//	ctx = reqctx.WithClaims(ctx, claims)
//	if id, ok := reqctx.UserIDFromContext(ctx); ok { ... }
package reqctx
