package httpapi

import "context"

// baseCtx is the server-lifetime context. Shutdown cancels it so handlers
// blocked on the gate or the engine unwind promptly.
var baseCtx = context.Background()

// SetBaseContext installs the server-lifetime context. Nil resets to
// Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	baseCtx = ctx
}

// joinContexts derives from req a context that is also canceled when the
// server-lifetime context ends. The returned cancel releases the watcher
// and must be called when the handler returns.
func joinContexts(server, req context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(req)
	stop := context.AfterFunc(server, cancel)
	return ctx, func() { stop(); cancel() }
}
