package observability

import "context"

type contextKey struct{}

var observerContextKey = contextKey{}

// ObserverFromContext returns the Observer attached to ctx, or nil.
func ObserverFromContext(ctx context.Context) Observer {
	if ctx == nil {
		return nil
	}
	observer, _ := ctx.Value(observerContextKey).(Observer)
	return observer
}

// ContextWithObserver returns a copy of ctx carrying observer. A nil ctx is
// treated as context.Background().
func ContextWithObserver(ctx context.Context, observer Observer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, observerContextKey, observer)
}
